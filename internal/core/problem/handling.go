package problem

// Handling is the triage classification of one executed scenario.
type Handling string

const (
	HandlingSuccess   Handling = "SUCCESS"
	HandlingHandled   Handling = "HANDLED"
	HandlingUnhandled Handling = "UNHANDLED"
)

// ErrorLinks lists the problems linked to one error through its patterns.
type ErrorLinks struct {
	ErrorID  int64
	Problems []State
}

// ScenarioLinks is the input of the handling classifier for one scenario.
type ScenarioLinks struct {
	ScenarioID int64
	Errors     []ErrorLinks
}

// ClassifyHandling derives the handling of a scenario:
// - SUCCESS when it has no error
// - HANDLED when at least one error links to a handled problem
// - UNHANDLED otherwise
func ClassifyHandling(s ScenarioLinks) Handling {
	if len(s.Errors) == 0 {
		return HandlingSuccess
	}

	for _, e := range s.Errors {
		for _, p := range e.Problems {
			if IsHandled(p) {
				return HandlingHandled
			}
		}
	}

	return HandlingUnhandled
}
