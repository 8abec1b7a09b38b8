package usecase

import (
	"tunespot/internal/domain"
	"tunespot/internal/ports"
)

const noMatchDetail = "no result found, please try again"

type outcomeRouter struct {
	presenter ports.Presenter
	events    ports.EventSink
}

func newOutcomeRouter(presenter ports.Presenter, events ports.EventSink) outcomeRouter {
	return outcomeRouter{presenter: presenter, events: events}
}

// Deliver forwards a terminal outcome to the presentation model or surfaces a
// failure notice, and returns the reason for the transition back to idle.
func (r outcomeRouter) Deliver(outcome domain.RecognitionOutcome) domain.SessionStateReason {
	switch outcome.Kind {
	case domain.OutcomeMatched:
		if outcome.Match == nil {
			break
		}
		r.presenter.Show(outcome.Match)
		return domain.SessionReasonMatchFound
	case domain.OutcomeTransportError:
		r.presenter.Dismiss()
		detail := "recognition failed"
		if outcome.Err != nil {
			detail = outcome.Err.Error()
		}
		r.events.SessionError(domain.ErrorCodeTransport, detail)
		return domain.SessionReasonRecognitionFailed
	}

	r.presenter.Dismiss()
	r.events.SessionError(domain.ErrorCodeNoMatch, noMatchDetail)
	return domain.SessionReasonNoMatch
}
