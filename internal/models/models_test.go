package models

import (
	"encoding/json"
	"testing"
)

func caseWithPricing(deductible float64, deposit *float64) CaseRecord {
	return CaseRecord{
		OrderData: OrderData{
			PartnerSpecific: PartnerSpecific{
				InsuranceLtd: InsuranceLtd{
					Deductible:  deductible,
					Deposit:     deposit,
					RedirectURL: "https://partner.example.com/done",
				},
			},
		},
	}
}

func TestCaseRecord_Price(t *testing.T) {
	deposit := 150.0

	tests := []struct {
		name    string
		record  CaseRecord
		service ServiceOption
		want    float64
	}{
		{"swap adds the deposit", caseWithPricing(500, &deposit), ServiceSwap, 650},
		{"swap without a deposit", caseWithPricing(500, nil), ServiceSwap, 500},
		{"drop-off pays the deductible alone", caseWithPricing(500, &deposit), ServiceDropOff, 500},
		{"theft/loss pays the deductible alone", caseWithPricing(500, &deposit), ServiceTheftLost, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.Price(tt.service); got != tt.want {
				t.Errorf("expected %.2f, got %.2f", tt.want, got)
			}
		})
	}
}

func TestCaseRecord_ForcedService(t *testing.T) {
	if !(CaseRecord{ServiceTypeID: ServiceTypeTheftLoss}).ForcedService() {
		t.Error("theft/loss must force the service")
	}
	if (CaseRecord{ServiceTypeID: ServiceTypeDropOff}).ForcedService() {
		t.Error("drop-off must not force the service")
	}
	if (CaseRecord{ServiceTypeID: 3}).ForcedService() {
		t.Error("swap-eligible cases must not force the service")
	}
}

func TestCaseEnvelope_DecodesUpstreamShape(t *testing.T) {
	payload := `{
		"data": {
			"id": 42,
			"guid": "6f1a2b3c-4d5e-6f70-8192-a3b4c5d6e7f8",
			"caseNumber": "SE-2024-0042",
			"partnerId": 7,
			"productData": {"model": "iPhone 11 128GB"},
			"orderData": {"partnerSpecific": {"insuranceLtd": {"deductible": 500, "deposit": 150, "redirectUrl": "https://partner.example.com/done"}}},
			"serviceTypeId": 2,
			"serviceType": {"name": "Drop-off"},
			"receiver": {"name": "Anna Andersson", "address": "Storgatan 1", "postalCode": "111 22", "city": "Stockholm"},
			"manufacturer": {"name": "Apple"}
		}
	}`

	var envelope CaseEnvelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	c := envelope.Data
	if c.GUID != "6f1a2b3c-4d5e-6f70-8192-a3b4c5d6e7f8" || c.ID != 42 {
		t.Errorf("unexpected identity fields: %+v", c)
	}
	if c.ProductData.Model != "iPhone 11 128GB" || c.Manufacturer.Name != "Apple" {
		t.Errorf("unexpected device fields: %+v", c)
	}
	if c.ServiceTypeID != ServiceTypeDropOff {
		t.Errorf("unexpected classifier: %d", c.ServiceTypeID)
	}
	if c.Price(ServiceSwap) != 650 {
		t.Errorf("unexpected swap price: %.2f", c.Price(ServiceSwap))
	}
	if c.RedirectURL() != "https://partner.example.com/done" {
		t.Errorf("unexpected redirect URL: %s", c.RedirectURL())
	}
}

func TestCaseEnvelope_DepositMayBeAbsent(t *testing.T) {
	payload := `{"data": {"orderData": {"partnerSpecific": {"insuranceLtd": {"deductible": 500, "redirectUrl": "x"}}}}}`
	var envelope CaseEnvelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if envelope.Data.OrderData.PartnerSpecific.InsuranceLtd.Deposit != nil {
		t.Error("expected a nil deposit when the upstream omits it")
	}
	if envelope.Data.Price(ServiceSwap) != 500 {
		t.Errorf("unexpected swap price without deposit: %.2f", envelope.Data.Price(ServiceSwap))
	}
}

func TestStockQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   StockQuery
		wantErr bool
	}{
		{"valid", StockQuery{Model: "iPhone 11 128GB", Brand: "Apple"}, false},
		{"missing model", StockQuery{Brand: "Apple"}, true},
		{"missing brand", StockQuery{Model: "iPhone 11 128GB"}, true},
		{"whitespace only", StockQuery{Model: "   ", Brand: "Apple"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEmptyStockResult_SerializesColorsAsEmptyList(t *testing.T) {
	data, err := json.Marshal(EmptyStockResult())
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	want := `{"isAvailable":false,"colors":[]}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestFlowState_SnapshotRoundTrip(t *testing.T) {
	original := FlowState{
		GUID:                  "6f1a2b3c-4d5e-6f70-8192-a3b4c5d6e7f8",
		FlowStep:              StepPayment,
		SelectedService:       ServiceSwap,
		SelectedColor:         "White",
		SelectedPaymentMethod: PaymentSwish,
		PaymentError:          "Swish payment failed. Please try again or pay by card.",
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	var restored FlowState
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if restored != original {
		t.Errorf("round-trip mismatch: got %+v, want %+v", restored, original)
	}
}

func TestFlowState_Validate(t *testing.T) {
	valid := FlowState{FlowStep: StepOptions, SelectedService: ServiceSwap, SelectedPaymentMethod: PaymentCard}
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := (FlowState{FlowStep: "limbo", SelectedPaymentMethod: PaymentCard}).Validate(); err == nil {
		t.Error("expected an error for an unknown step")
	}
	if err := (FlowState{FlowStep: StepOptions, SelectedService: "REPAIR", SelectedPaymentMethod: PaymentCard}).Validate(); err == nil {
		t.Error("expected an error for an unknown service")
	}
	if err := (FlowState{FlowStep: StepOptions}).Validate(); err == nil {
		t.Error("expected an error for a missing payment method")
	}
}

func TestAction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		wantErr bool
	}{
		{"select service with payload", Action{Type: ActionSelectService, Service: ServiceSwap}, false},
		{"select service without payload", Action{Type: ActionSelectService}, true},
		{"select color with payload", Action{Type: ActionSelectColor, Color: "Red"}, false},
		{"select color without payload", Action{Type: ActionSelectColor}, true},
		{"select payment method with payload", Action{Type: ActionSelectPaymentMethod, Method: PaymentSwish}, false},
		{"select payment method without payload", Action{Type: ActionSelectPaymentMethod}, true},
		{"proceed to payment", Action{Type: ActionProceedToPayment}, false},
		{"go to options", Action{Type: ActionGoToOptions}, false},
		{"submit payment", Action{Type: ActionSubmitPayment}, false},
		{"unknown type", Action{Type: "TELEPORT"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.action.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
