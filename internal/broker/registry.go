// Package broker selects the brokerage adapter for a bot's stored credential.
package broker

import (
	"fmt"
	"strings"

	"trading-bots/internal/interfaces"
	"trading-bots/internal/models"
)

const ModeDryRun = "DRY_RUN"

// Registry routes credentials to brokers by name. In DRY_RUN mode every credential goes to the paper broker.
type Registry struct {
	mode    string
	brokers map[string]interfaces.Broker
}

var _ interfaces.BrokerFactory = (*Registry)(nil)

func NewRegistry(mode string, brokers ...interfaces.Broker) *Registry {
	r := &Registry{mode: strings.ToUpper(mode), brokers: make(map[string]interfaces.Broker, len(brokers))}
	for _, b := range brokers {
		r.brokers[b.Name()] = b
	}
	return r
}

// ForCredential returns the broker for cred. An empty broker name means Capital.com.
func (r *Registry) ForCredential(cred *models.BrokerCredential) (interfaces.Broker, error) {
	name := models.BrokerCapital
	if cred != nil && cred.Broker != "" {
		name = strings.ToLower(cred.Broker)
	}
	if r.mode == ModeDryRun {
		name = models.BrokerPaper
	}
	b, ok := r.brokers[name]
	if !ok {
		return nil, fmt.Errorf("unsupported broker %q", name)
	}
	return b, nil
}
