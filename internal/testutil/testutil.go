// Package testutil provides common test utilities and fakes for caseflow
// tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sesamtech/caseflow/internal/models"
)

// Well-known GUIDs for tests.
const (
	GUIDSwap      = "6f1a2b3c-4d5e-6f70-8192-a3b4c5d6e7f8"
	GUIDDropOff   = "0e1d2c3b-4a59-6877-8695-a4b3c2d1e0f9"
	GUIDTheftLoss = "11111111-2222-4333-8444-555555555555"
)

// NewCaseEnvelope builds a case record of the given service type with
// sensible defaults for the remaining fields.
func NewCaseEnvelope(guid string, serviceTypeID int) *models.CaseEnvelope {
	deposit := 150.0
	return &models.CaseEnvelope{
		Data: models.CaseRecord{
			ID:            42,
			GUID:          guid,
			CaseNumber:    "SE-2024-0042",
			PartnerID:     7,
			ProductData:   models.ProductData{Model: "iPhone 11 128GB"},
			ServiceTypeID: serviceTypeID,
			ServiceType:   models.ServiceType{Name: "Swap"},
			Receiver: models.Receiver{
				Name:       "Anna Andersson",
				Address:    "Storgatan 1",
				PostalCode: "111 22",
				City:       "Stockholm",
			},
			Manufacturer: models.Manufacturer{Name: "Apple"},
			OrderData: models.OrderData{
				PartnerSpecific: models.PartnerSpecific{
					InsuranceLtd: models.InsuranceLtd{
						Deductible:  500,
						Deposit:     &deposit,
						RedirectURL: "https://partner.example.com/done",
					},
				},
			},
		},
	}
}

// FakeCaseFetcher is a controllable CaseFetcher implementation.
type FakeCaseFetcher struct {
	// Envelopes maps GUID to the envelope to return.
	Envelopes map[string]*models.CaseEnvelope
	// Err is returned for every fetch when set.
	Err error
	// Started, when non-nil, receives the GUID as soon as a fetch begins.
	Started chan string
	// Block, when non-nil, is received from before returning, letting a
	// test hold a fetch open while another one starts.
	Block chan struct{}

	mu    sync.Mutex
	calls int
}

func (f *FakeCaseFetcher) FetchCase(_ context.Context, guid string) (*models.CaseEnvelope, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.Started != nil {
		f.Started <- guid
	}
	if f.Block != nil {
		<-f.Block
	}
	if f.Err != nil {
		return nil, f.Err
	}
	if env, ok := f.Envelopes[guid]; ok {
		return env, nil
	}
	return NewCaseEnvelope(guid, 3), nil
}

// Calls reports how many fetches have started.
func (f *FakeCaseFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FakeStockChecker returns a fixed result and counts calls.
type FakeStockChecker struct {
	Result models.StockResult
	Calls  int
}

func (f *FakeStockChecker) CheckStock(_ context.Context, _, _ string) models.StockResult {
	f.Calls++
	return f.Result
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it
// doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// DecodeJSONBody decodes the recorded response body into a generic map.
func DecodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}
	return body
}

// CreateHTTPRequest creates an HTTP request with an optional JSON body.
func CreateHTTPRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	if body == nil {
		return httptest.NewRequest(method, url, nil)
	}
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, url, bytes.NewBuffer(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}
