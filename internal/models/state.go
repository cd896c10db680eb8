// Package models defines flow state structures for caseflow.
package models

import "fmt"

// ServiceOption is the service a user can choose for their case.
type ServiceOption string

const (
	ServiceTheftLost ServiceOption = "THEFT_LOST"
	ServiceDropOff   ServiceOption = "DROP_OFF"
	ServiceSwap      ServiceOption = "SWAP"
)

// FlowStep is the screen the flow currently sits on. Steps only advance
// options -> payment -> complete, with a single permitted back-transition
// from payment to options when the case does not force a service.
type FlowStep string

const (
	StepOptions  FlowStep = "options"
	StepPayment  FlowStep = "payment"
	StepComplete FlowStep = "complete"
)

// PaymentMethod selects how the user pays.
type PaymentMethod string

const (
	PaymentCard  PaymentMethod = "card"
	PaymentSwish PaymentMethod = "swish"
)

// FlowState is the per-GUID state of a case flow. It is created at bootstrap,
// mutated by dispatched actions, snapshotted to the store after every change,
// and erased a fixed delay after reaching the complete step.
//
// SelectedColor is only meaningful while SelectedService is SWAP.
type FlowState struct {
	GUID                  string        `json:"guid"`
	FlowStep              FlowStep      `json:"flowStep"`
	SelectedService       ServiceOption `json:"selectedService,omitempty"`
	SelectedColor         string        `json:"selectedColor,omitempty"`
	SelectedPaymentMethod PaymentMethod `json:"selectedPaymentMethod"`
	PaymentError          string        `json:"paymentError,omitempty"`
}

// Validate checks that every enumerated field holds a known value.
func (s FlowState) Validate() error {
	switch s.FlowStep {
	case StepOptions, StepPayment, StepComplete:
	default:
		return fmt.Errorf("unknown flow step '%s'", s.FlowStep)
	}
	switch s.SelectedService {
	case ServiceTheftLost, ServiceDropOff, ServiceSwap, "":
	default:
		return fmt.Errorf("unknown service option '%s'", s.SelectedService)
	}
	switch s.SelectedPaymentMethod {
	case PaymentCard, PaymentSwish:
	default:
		return fmt.Errorf("unknown payment method '%s'", s.SelectedPaymentMethod)
	}
	return nil
}

// ActionType names a flow action dispatched against the state machine.
type ActionType string

const (
	ActionSelectService       ActionType = "SELECT_SERVICE"
	ActionSelectColor         ActionType = "SELECT_COLOR"
	ActionProceedToPayment    ActionType = "PROCEED_TO_PAYMENT"
	ActionGoToOptions         ActionType = "GO_TO_OPTIONS"
	ActionSelectPaymentMethod ActionType = "SELECT_PAYMENT_METHOD"
	ActionSubmitPayment       ActionType = "SUBMIT_PAYMENT"
)

// Action is one user-driven state machine input. Payload fields are used
// depending on Type: Service for SELECT_SERVICE, Color for SELECT_COLOR,
// Method for SELECT_PAYMENT_METHOD.
type Action struct {
	Type    ActionType    `json:"type"`
	Service ServiceOption `json:"service,omitempty"`
	Color   string        `json:"color,omitempty"`
	Method  PaymentMethod `json:"method,omitempty"`
}

// Validate checks the action type and the payload required for it.
func (a Action) Validate() error {
	switch a.Type {
	case ActionSelectService:
		switch a.Service {
		case ServiceTheftLost, ServiceDropOff, ServiceSwap:
		default:
			return fmt.Errorf("unknown service option '%s'", a.Service)
		}
	case ActionSelectColor:
		if a.Color == "" {
			return fmt.Errorf("missing color for %s", a.Type)
		}
	case ActionSelectPaymentMethod:
		switch a.Method {
		case PaymentCard, PaymentSwish:
		default:
			return fmt.Errorf("unknown payment method '%s'", a.Method)
		}
	case ActionProceedToPayment, ActionGoToOptions, ActionSubmitPayment:
	default:
		return fmt.Errorf("unknown action type '%s'", a.Type)
	}
	return nil
}
