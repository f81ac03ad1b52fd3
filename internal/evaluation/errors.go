package evaluation

import "errors"

// Fatal errors abort the evaluation.
var (
	ErrBotNotFound          = errors.New("bot not found")
	ErrChartGeneration      = errors.New("chart generation failed")
	ErrAnalysis             = errors.New("ai analysis failed")
	ErrPersistence          = errors.New("failed to record evaluation")
	ErrEvaluationInProgress = errors.New("evaluation already in progress")
)

// Trade errors are reported in the trade result and never abort the evaluation.
var (
	ErrMissingCredentials = errors.New("no broker credentials configured for bot")
	ErrAuthentication     = errors.New("broker authentication failed")
	ErrUnknownInstrument  = errors.New("could not find epic for symbol")
	ErrOrderRejected      = errors.New("trade execution rejected")
)

const unknownError = "Unknown error"

// errorMessage is the text reported to callers for err.
func errorMessage(err error) string {
	if err == nil || err.Error() == "" {
		return unknownError
	}
	return err.Error()
}
