// Package models defines the core data structures for caseflow.
//
// It contains the case record shape returned by the upstream case-management
// API, the stock lookup query/result pair produced by the SOAP adapter, and
// the JSON response bodies served by the HTTP API.
package models

import (
	"errors"
	"strings"
)

// Service type classifier values carried by the upstream case record.
// They decide the default flow a case starts in.
const (
	// ServiceTypeTheftLoss forces the flow straight to payment; the user has
	// no service choice to make.
	ServiceTypeTheftLoss = 1
	// ServiceTypeDropOff preselects the drop-off partner option.
	ServiceTypeDropOff = 2
	// Any other classifier is swap-eligible and preselects swap.
)

// CaseEnvelope is the upstream case-management API response. The payload is
// nested under "data"; the envelope is proxied to callers unchanged.
type CaseEnvelope struct {
	Data CaseRecord `json:"data"`
}

// CaseRecord identifies a single service case. Immutable once fetched.
type CaseRecord struct {
	ID            int          `json:"id"`
	GUID          string       `json:"guid"`
	CaseNumber    string       `json:"caseNumber"`
	PartnerID     int          `json:"partnerId"`
	ProductData   ProductData  `json:"productData"`
	OrderData     OrderData    `json:"orderData"`
	ServiceTypeID int          `json:"serviceTypeId"`
	ServiceType   ServiceType  `json:"serviceType"`
	Receiver      Receiver     `json:"receiver"`
	Manufacturer  Manufacturer `json:"manufacturer"`
}

// ProductData carries the free-text device model, storage included
// (e.g. "iPhone 11 128GB").
type ProductData struct {
	Model string `json:"model"`
}

// OrderData wraps partner-specific pricing and the post-completion redirect.
type OrderData struct {
	PartnerSpecific PartnerSpecific `json:"partnerSpecific"`
}

type PartnerSpecific struct {
	InsuranceLtd InsuranceLtd `json:"insuranceLtd"`
}

// InsuranceLtd holds the partner pricing for this case. Deposit only applies
// to swaps and may be absent.
type InsuranceLtd struct {
	Deductible  float64  `json:"deductible"`
	Deposit     *float64 `json:"deposit,omitempty"`
	RedirectURL string   `json:"redirectUrl"`
}

type ServiceType struct {
	Name string `json:"name"`
}

// Receiver is the recipient address for the case.
type Receiver struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
}

type Manufacturer struct {
	Name string `json:"name"`
}

// ForcedService reports whether the case classifier forces a single
// predetermined service, removing the user's choice (and the back-transition
// from payment to options).
func (c CaseRecord) ForcedService() bool {
	return c.ServiceTypeID == ServiceTypeTheftLoss
}

// Price returns the amount due for the chosen service: swaps pay the
// deductible plus the deposit (when present), everything else pays the
// deductible alone.
func (c CaseRecord) Price(service ServiceOption) float64 {
	if service == ServiceSwap && c.OrderData.PartnerSpecific.InsuranceLtd.Deposit != nil {
		return c.OrderData.PartnerSpecific.InsuranceLtd.Deductible + *c.OrderData.PartnerSpecific.InsuranceLtd.Deposit
	}
	return c.OrderData.PartnerSpecific.InsuranceLtd.Deductible
}

// RedirectURL returns the externally supplied URL the user is sent to after
// the flow completes.
func (c CaseRecord) RedirectURL() string {
	return c.OrderData.PartnerSpecific.InsuranceLtd.RedirectURL
}

// StockQuery is the transient key for a stock lookup, derived from a case's
// product model and manufacturer.
type StockQuery struct {
	Model string `json:"model"`
	Brand string `json:"brand"`
}

// Validate ensures both fields are present before any remote call is made.
func (q StockQuery) Validate() error {
	if strings.TrimSpace(q.Model) == "" {
		return errors.New("missing required field: model")
	}
	if strings.TrimSpace(q.Brand) == "" {
		return errors.New("missing required field: brand")
	}
	return nil
}

// StockResult is the normalized outcome of a swap stock lookup. It is
// recomputed on demand and never persisted.
//
// Invariant: IsAvailable is true exactly when Colors is non-empty, regardless
// of what the upstream status flag claimed.
type StockResult struct {
	IsAvailable bool     `json:"isAvailable"`
	Colors      []string `json:"colors"`
}

// EmptyStockResult is the degraded "stock unknown" outcome. Colors is non-nil
// so the JSON body always carries [] rather than null.
func EmptyStockResult() StockResult {
	return StockResult{IsAvailable: false, Colors: []string{}}
}

// ParsedModel is a free-text model string split into the separate model and
// storage fields the stock service requires. Storage is empty unless the
// trailing token carries a recognized capacity unit.
type ParsedModel struct {
	Model   string `json:"model"`
	Storage string `json:"storage"`
}

// MessageResponse is the error body for the case and flow routes.
type MessageResponse struct {
	Message string `json:"message"`
}

// Message builds a MessageResponse.
func Message(message string) MessageResponse {
	return MessageResponse{Message: message}
}

// StockCheckResponse is the body for /api/stock/check. Error is set only on
// the unexpected-failure path; the result fields still carry the degraded
// unavailable shape so clients can consume the body uniformly.
type StockCheckResponse struct {
	IsAvailable bool     `json:"isAvailable"`
	Colors      []string `json:"colors"`
	Error       string   `json:"error,omitempty"`
}

// StockError builds the degraded StockCheckResponse with an error message.
func StockError(message string) StockCheckResponse {
	return StockCheckResponse{IsAvailable: false, Colors: []string{}, Error: message}
}

// StockOK wraps a StockResult for the response body.
func StockOK(r StockResult) StockCheckResponse {
	return StockCheckResponse{IsAvailable: r.IsAvailable, Colors: r.Colors}
}

// BootstrapResponse is the body for a successful flow bootstrap.
type BootstrapResponse struct {
	Case  *CaseEnvelope `json:"case"`
	State FlowState     `json:"state"`
}

// ActionResponse is the body returned after a dispatched flow action.
// RedirectURL is populated once the flow has completed.
type ActionResponse struct {
	State       FlowState `json:"state"`
	RedirectURL string    `json:"redirectUrl,omitempty"`
}
