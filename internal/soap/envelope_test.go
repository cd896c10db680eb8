package soap

import (
	"strings"
	"testing"

	"github.com/sesamtech/caseflow/internal/models"
)

func TestParseItemModel(t *testing.T) {
	tests := []struct {
		name      string
		fullModel string
		want      models.ParsedModel
	}{
		{"model with storage", "iPhone 11 128GB", models.ParsedModel{Model: "iPhone 11", Storage: "128GB"}},
		{"terabyte storage", "iPad Pro 1TB", models.ParsedModel{Model: "iPad Pro", Storage: "1TB"}},
		{"trailing word is not storage", "Macbook Pro", models.ParsedModel{Model: "Macbook Pro", Storage: ""}},
		{"no spaces", "iPhone", models.ParsedModel{Model: "iPhone", Storage: ""}},
		{"lowercase unit is not storage", "iPhone 11 128gb", models.ParsedModel{Model: "iPhone 11 128gb", Storage: ""}},
		{"storage only after last space", "Galaxy S21 Ultra 256GB", models.ParsedModel{Model: "Galaxy S21 Ultra", Storage: "256GB"}},
		{"empty string", "", models.ParsedModel{Model: "", Storage: ""}},
		{"trailing space", "iPhone ", models.ParsedModel{Model: "iPhone ", Storage: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseItemModel(tt.fullModel)
			if got != tt.want {
				t.Errorf("ParseItemModel(%q) = %+v, want %+v", tt.fullModel, got, tt.want)
			}
		})
	}
}

func TestBuildEnvelope(t *testing.T) {
	creds := Credentials{
		UserName:  "svc-user",
		Password:  "svc-pass",
		SesamDB:   "SESAM_SE",
		StockName: "SWAPSTOCK",
	}

	envelope := BuildEnvelope("iPhone 11 128GB", "Apple", creds)

	for _, want := range []string{
		`<tem:SwapStockLookUpVer2>`,
		`<icp:Password>svc-pass</icp:Password>`,
		`<icp:SesamDb>SESAM_SE</icp:SesamDb>`,
		`<icp:UserName>svc-user</icp:UserName>`,
		`<icp:Brand>Apple</icp:Brand>`,
		`<icp:Color></icp:Color>`,
		`<icp:Model>iPhone 11</icp:Model>`,
		`<icp:StockName>SWAPSTOCK</icp:StockName>`,
		`<icp:Storage>128GB</icp:Storage>`,
		`xmlns:x="http://schemas.xmlsoap.org/soap/envelope/"`,
	} {
		if !strings.Contains(envelope, want) {
			t.Errorf("envelope missing %q:\n%s", want, envelope)
		}
	}
}

func TestBuildEnvelope_NoStorage(t *testing.T) {
	envelope := BuildEnvelope("Macbook Pro", "Apple", Credentials{})

	if !strings.Contains(envelope, `<icp:Model>Macbook Pro</icp:Model>`) {
		t.Errorf("expected whole string as model:\n%s", envelope)
	}
	if !strings.Contains(envelope, `<icp:Storage></icp:Storage>`) {
		t.Errorf("expected empty storage:\n%s", envelope)
	}
}

func TestBuildEnvelope_LiteralInterpolation(t *testing.T) {
	// Values are embedded verbatim; no entity escaping happens.
	envelope := BuildEnvelope("Odd & Model 64GB", "B&O", Credentials{})

	if !strings.Contains(envelope, `<icp:Model>Odd & Model</icp:Model>`) {
		t.Errorf("expected literal ampersand in model:\n%s", envelope)
	}
	if !strings.Contains(envelope, `<icp:Brand>B&O</icp:Brand>`) {
		t.Errorf("expected literal ampersand in brand:\n%s", envelope)
	}
}
