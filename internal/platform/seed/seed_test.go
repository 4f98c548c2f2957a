package seed

import (
	"strings"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	products, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	if len(products) != 9 {
		t.Fatalf("expected 9 products, got %d", len(products))
	}
	if products[0].ID != "100" || products[0].Stock != 150 || products[0].Unit != "kg" {
		t.Fatalf("unexpected first product %+v", products[0])
	}
	honey := products[6]
	if honey.Name != "Miel Orgánica" || honey.UnitPrice() != 4500 {
		t.Fatalf("expected discounted honey, got %+v", honey)
	}
	if len(products[0].Reviews) != 2 || products[0].Reviews[0].Rating != 5 {
		t.Fatalf("unexpected reviews %+v", products[0].Reviews)
	}
}

func TestParseRejectsInvalidCatalog(t *testing.T) {
	data := []byte(`
products:
  - id: "1"
    price: 100
    stock: -1
  - id: "1"
    price: 100
    stock: 2
  - price: 5
`)
	_, err := Parse(data)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"non-negative", "duplicate id", "id is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile("/nonexistent/catalog.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
