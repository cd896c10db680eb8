// Package flow implements the case flow state machine and its bootstrap
// sequencing for caseflow.
//
// The state machine mirrors the customer-facing wizard: a case starts on the
// options step (or directly on payment when the classifier forces theft/loss),
// advances to payment, and terminates on complete, after which the snapshot
// is erased and the user is redirected to the partner site.
package flow

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sesamtech/caseflow/internal/models"
)

// ErrInvalidTransition is returned when an action is dispatched in a step it
// is not valid for, or when a transition guard rejects it.
var ErrInvalidTransition = errors.New("invalid flow transition")

// swishFailureMessage is the deterministic outcome of a swish payment. The
// payment layer is a simulation: card always succeeds, swish always fails.
const swishFailureMessage = "Swish payment failed. Please try again or pay by card."

// DeriveInitialState builds the default FlowState for a case when no
// persisted snapshot exists for its GUID. Forced theft/loss cases skip the
// options step entirely; drop-off partner cases preselect drop-off; every
// other case preselects swap.
func DeriveInitialState(guid string, c *models.CaseRecord) models.FlowState {
	state := models.FlowState{
		GUID:                  guid,
		FlowStep:              models.StepOptions,
		SelectedPaymentMethod: models.PaymentCard,
	}

	switch c.ServiceTypeID {
	case models.ServiceTypeTheftLoss:
		state.FlowStep = models.StepPayment
		state.SelectedService = models.ServiceTheftLost
	case models.ServiceTypeDropOff:
		state.SelectedService = models.ServiceDropOff
	default:
		state.SelectedService = models.ServiceSwap
	}

	slog.Debug("flow.DeriveInitialState: derived default state", "guid", guid, "service_type_id", c.ServiceTypeID, "flow_step", state.FlowStep, "selected_service", state.SelectedService)
	return state
}

// Apply runs one action against the state machine and returns the resulting
// state. The input state is never mutated. Transitions are synchronous,
// in-memory replacements; the only asynchronous step in the whole flow is the
// initial bootstrap.
func Apply(state models.FlowState, c *models.CaseRecord, action models.Action) (models.FlowState, error) {
	if err := action.Validate(); err != nil {
		return state, err
	}

	switch action.Type {
	case models.ActionSelectService:
		if state.FlowStep != models.StepOptions {
			return state, fmt.Errorf("%w: %s is only valid on the options step", ErrInvalidTransition, action.Type)
		}
		state.SelectedService = action.Service
		state.SelectedColor = ""
		return state, nil

	case models.ActionSelectColor:
		if state.FlowStep != models.StepOptions || state.SelectedService != models.ServiceSwap {
			return state, fmt.Errorf("%w: %s requires the swap service on the options step", ErrInvalidTransition, action.Type)
		}
		state.SelectedColor = action.Color
		return state, nil

	case models.ActionProceedToPayment:
		if state.FlowStep != models.StepOptions {
			return state, fmt.Errorf("%w: %s is only valid on the options step", ErrInvalidTransition, action.Type)
		}
		if state.SelectedService == "" {
			return state, fmt.Errorf("%w: a service must be selected before payment", ErrInvalidTransition)
		}
		if state.SelectedService == models.ServiceSwap && state.SelectedColor == "" {
			return state, fmt.Errorf("%w: a color must be selected for a swap", ErrInvalidTransition)
		}
		state.FlowStep = models.StepPayment
		state.PaymentError = ""
		return state, nil

	case models.ActionGoToOptions:
		if state.FlowStep != models.StepPayment {
			return state, fmt.Errorf("%w: %s is only valid on the payment step", ErrInvalidTransition, action.Type)
		}
		if c.ForcedService() {
			return state, fmt.Errorf("%w: this case does not permit a service choice", ErrInvalidTransition)
		}
		state.FlowStep = models.StepOptions
		return state, nil

	case models.ActionSelectPaymentMethod:
		if state.FlowStep != models.StepPayment {
			return state, fmt.Errorf("%w: %s is only valid on the payment step", ErrInvalidTransition, action.Type)
		}
		state.SelectedPaymentMethod = action.Method
		state.PaymentError = ""
		return state, nil

	case models.ActionSubmitPayment:
		if state.FlowStep != models.StepPayment {
			return state, fmt.Errorf("%w: %s is only valid on the payment step", ErrInvalidTransition, action.Type)
		}
		if state.SelectedPaymentMethod == models.PaymentCard {
			state.FlowStep = models.StepComplete
			return state, nil
		}
		// Simulated swish failure: the flow stays on payment with an error.
		state.PaymentError = swishFailureMessage
		return state, nil
	}

	return state, fmt.Errorf("unknown action type '%s'", action.Type)
}
