package utils

import (
	"strings"
	"testing"
)

func TestGenerateOrderID_Format(t *testing.T) {
	id := GenerateOrderID()
	if !strings.HasPrefix(id, "ORD") {
		t.Fatalf("order id missing ORD prefix: %s", id)
	}
	rest := strings.TrimPrefix(id, "ORD")
	if len(rest) < 19 {
		t.Fatalf("order id too short: %s", id)
	}
	for _, c := range rest {
		if c < '0' || c > '9' {
			t.Fatalf("order id contains non-digit: %s", id)
		}
	}
}

func TestGenerateOrderID_Unique(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		id := GenerateOrderID()
		if seen[id] {
			t.Fatalf("duplicate order id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestGenerateInternalID(t *testing.T) {
	id := GenerateInternalID("CHK", 42)
	if !strings.HasPrefix(id, "CHK") {
		t.Fatalf("internal id missing prefix: %s", id)
	}
	if !strings.HasSuffix(id, "42") {
		t.Fatalf("internal id missing user id suffix: %s", id)
	}
}
