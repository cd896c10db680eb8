// Package soap adapts the legacy SwapStockLookUp SOAP service for caseflow.
//
// It builds the hand-written request envelope, performs the single-shot
// remote call, and normalizes the namespaced XML response into the
// {isAvailable, colors} shape the rest of the system consumes.
package soap

import (
	"fmt"
	"strings"

	"github.com/sesamtech/caseflow/internal/models"
)

// Credentials holds the fixed account configuration embedded in every stock
// lookup request. It is injected at client construction so the adapter can be
// exercised without process environment coupling.
type Credentials struct {
	UserName  string
	Password  string
	SesamDB   string
	StockName string
}

// ParseItemModel splits a free-text model string ("iPhone 11 128GB") into the
// separate model and storage fields the stock service requires. The split
// happens at the last space, and is only accepted when the tail carries a
// literal "GB" or "TB" unit marker; otherwise the whole string is the model
// (so "Macbook Pro" does not end up with storage "Pro").
func ParseItemModel(fullModel string) models.ParsedModel {
	lastSpace := strings.LastIndex(fullModel, " ")
	if lastSpace == -1 {
		return models.ParsedModel{Model: fullModel}
	}

	model := fullModel[:lastSpace]
	storage := fullModel[lastSpace+1:]

	if strings.Contains(storage, "GB") || strings.Contains(storage, "TB") {
		return models.ParsedModel{Model: model, Storage: storage}
	}

	return models.ParsedModel{Model: fullModel}
}

// BuildEnvelope constructs the SwapStockLookUpVer2 request body for the given
// device and brand. Values are interpolated verbatim, without XML escaping,
// matching what the legacy endpoint has always been fed.
func BuildEnvelope(fullModel, brand string, creds Credentials) string {
	parsed := ParseItemModel(fullModel)

	return fmt.Sprintf(`<x:Envelope xmlns:x="http://schemas.xmlsoap.org/soap/envelope/" xmlns:tem="http://tempuri.org/" xmlns:icp="http://schemas.datacontract.org/2004/07/ICPE_Internal_API_DLL">
    <x:Header/>
    <x:Body>
        <tem:SwapStockLookUpVer2>
            <tem:Credentials>
                <icp:Password>%s</icp:Password>
                <icp:SesamDb>%s</icp:SesamDb>
                <icp:UserName>%s</icp:UserName>
            </tem:Credentials>
            <tem:LookUpItem>
                <icp:Brand>%s</icp:Brand>
                <icp:Color></icp:Color>
                <icp:Model>%s</icp:Model>
                <icp:StockName>%s</icp:StockName>
                <icp:Storage>%s</icp:Storage>
            </tem:LookUpItem>
        </tem:SwapStockLookUpVer2>
    </x:Body>
</x:Envelope>`,
		creds.Password, creds.SesamDB, creds.UserName,
		brand, parsed.Model, creds.StockName, parsed.Storage)
}
