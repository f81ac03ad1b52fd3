package evaluation

import "trading-bots/internal/interfaces"

func New(d Deps) interfaces.BotEvaluator {
	return newService(d)
}
