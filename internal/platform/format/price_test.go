package format

import (
	"strings"
	"testing"
)

func TestPrice(t *testing.T) {
	if got := Price(0); got != "Gratis" {
		t.Fatalf("expected Gratis, got %q", got)
	}
	got := Price(12500)
	if !strings.HasPrefix(got, "$") || !strings.Contains(got, "500") {
		t.Fatalf("unexpected formatted price %q", got)
	}
	if neg := Price(-1200); !strings.HasPrefix(neg, "-$") {
		t.Fatalf("unexpected negative price %q", neg)
	}
	if CurrencyCode != "CLP" {
		t.Fatalf("expected CLP, got %s", CurrencyCode)
	}
}
