package soap

import (
	"fmt"
	"reflect"
	"testing"
)

// responseXML wraps a SwapStockLookUpVer2Result payload in the namespaced
// envelope the service emits.
func responseXML(result string) []byte {
	return fmt.Appendf(nil, `<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
  <s:Body>
    <SwapStockLookUpVer2Response xmlns="http://tempuri.org/">%s</SwapStockLookUpVer2Response>
  </s:Body>
</s:Envelope>`, result)
}

func itemsXML(colors ...string) string {
	out := ""
	for _, c := range colors {
		out += fmt.Sprintf(`<a:WS_API_.SwapStockAvailableItemV2><a:Color>%s</a:Color></a:WS_API_.SwapStockAvailableItemV2>`, c)
	}
	return out
}

func TestNormalize_AvailableItems(t *testing.T) {
	data := responseXML(fmt.Sprintf(`<SwapStockLookUpVer2Result xmlns:a="http://schemas.datacontract.org/2004/07/WS_API_">
      <a:status>true</a:status>
      <a:AvailableItems>%s</a:AvailableItems>
    </SwapStockLookUpVer2Result>`, itemsXML("White", "Red", "White")))

	result := Normalize(data)

	if !result.IsAvailable {
		t.Error("expected available result")
	}
	// Order preserved, duplicates included.
	if !reflect.DeepEqual(result.Colors, []string{"White", "Red", "White"}) {
		t.Errorf("unexpected colors: %v", result.Colors)
	}
}

func TestNormalize_SingleItem(t *testing.T) {
	data := responseXML(fmt.Sprintf(`<SwapStockLookUpVer2Result xmlns:a="http://schemas.datacontract.org/2004/07/WS_API_">
      <a:status>true</a:status>
      <a:AvailableItems>%s</a:AvailableItems>
    </SwapStockLookUpVer2Result>`, itemsXML("Black")))

	result := Normalize(data)

	if !result.IsAvailable || !reflect.DeepEqual(result.Colors, []string{"Black"}) {
		t.Errorf("single item should become a one-element list, got %+v", result)
	}
}

func TestNormalize_Empty(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"absent result node", responseXML(``)},
		{"status not true", responseXML(`<SwapStockLookUpVer2Result xmlns:a="http://schemas.datacontract.org/2004/07/WS_API_">
			<a:status>false</a:status>
			<a:AvailableItems>` + itemsXML("White") + `</a:AvailableItems>
		</SwapStockLookUpVer2Result>`)},
		{"status missing", responseXML(`<SwapStockLookUpVer2Result xmlns:a="http://schemas.datacontract.org/2004/07/WS_API_">
			<a:AvailableItems>` + itemsXML("White") + `</a:AvailableItems>
		</SwapStockLookUpVer2Result>`)},
		{"absent item container", responseXML(`<SwapStockLookUpVer2Result xmlns:a="http://schemas.datacontract.org/2004/07/WS_API_">
			<a:status>true</a:status>
		</SwapStockLookUpVer2Result>`)},
		{"empty item list despite status true", responseXML(`<SwapStockLookUpVer2Result xmlns:a="http://schemas.datacontract.org/2004/07/WS_API_">
			<a:status>true</a:status>
			<a:AvailableItems></a:AvailableItems>
		</SwapStockLookUpVer2Result>`)},
		{"malformed XML", []byte(`<s:Envelope><s:Body>`)},
		{"not XML at all", []byte(`{"isAvailable": true}`)},
		{"empty input", []byte("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Normalize(tt.data)
			if result.IsAvailable {
				t.Error("expected unavailable result")
			}
			if result.Colors == nil || len(result.Colors) != 0 {
				t.Errorf("expected empty non-nil color list, got %#v", result.Colors)
			}
		})
	}
}

func TestNormalize_AvailabilityDerivedFromColors(t *testing.T) {
	// Upstream status true with zero items must still read as unavailable:
	// availability follows the color list, not the status flag.
	data := responseXML(`<SwapStockLookUpVer2Result xmlns:a="http://schemas.datacontract.org/2004/07/WS_API_">
      <a:status>true</a:status>
      <a:AvailableItems></a:AvailableItems>
    </SwapStockLookUpVer2Result>`)

	result := Normalize(data)
	if result.IsAvailable {
		t.Error("status=true with no colors must be unavailable")
	}
}
