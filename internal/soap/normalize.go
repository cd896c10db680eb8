// Package soap provides response normalization for the stock lookup service.
package soap

import (
	"encoding/xml"
	"log/slog"
	"strings"

	"github.com/sesamtech/caseflow/internal/models"
)

// Decoding targets for the SwapStockLookUpVer2 response. Element names are
// unqualified, so encoding/xml matches on local names and the namespace
// prefixes the service emits are effectively stripped.
type responseEnvelope struct {
	XMLName xml.Name     `xml:"Envelope"`
	Body    responseBody `xml:"Body"`
}

type responseBody struct {
	Response lookupResponse `xml:"SwapStockLookUpVer2Response"`
}

type lookupResponse struct {
	Result *lookupResult `xml:"SwapStockLookUpVer2Result"`
}

type lookupResult struct {
	Status         string         `xml:"status"`
	AvailableItems availableItems `xml:"AvailableItems"`
}

type availableItems struct {
	Items []availableItem `xml:"WS_API_.SwapStockAvailableItemV2"`
}

type availableItem struct {
	Color string `xml:"Color"`
}

// Normalize extracts the stock availability result from a raw SOAP response
// body. It never returns an error: any missing node, status other than
// literal "true", absent item container, or decode failure degrades to the
// empty unavailable result with a logged diagnostic.
//
// Item colors are projected in document order, duplicates included. The final
// availability is derived from the color list alone, overriding the upstream
// status flag when the two disagree.
func Normalize(data []byte) models.StockResult {
	var env responseEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		slog.Error("soap.Normalize: failed to decode response XML", "error", err)
		return models.EmptyStockResult()
	}

	result := env.Body.Response.Result
	if result == nil {
		slog.Debug("soap.Normalize: response carries no lookup result")
		return models.EmptyStockResult()
	}

	if strings.TrimSpace(result.Status) != "true" {
		slog.Debug("soap.Normalize: lookup status not true", "status", result.Status)
		return models.EmptyStockResult()
	}

	items := result.AvailableItems.Items
	if len(items) == 0 {
		slog.Debug("soap.Normalize: no available items in response")
		return models.EmptyStockResult()
	}

	colors := make([]string, 0, len(items))
	for _, item := range items {
		colors = append(colors, item.Color)
	}

	return models.StockResult{IsAvailable: len(colors) > 0, Colors: colors}
}
