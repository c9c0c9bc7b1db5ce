package users

import (
	"net/http/httptest"
	"testing"

	"bajaj/utils"
)

func TestDecodeCallbackFields_PreservesNumericText(t *testing.T) {
	body := []byte(`{"status":"SUCCESS","order_id":"ORD1","amount":250.50,"count":3,"flag":true,"note":null}`)
	fields, err := decodeCallbackFields(body)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	// Numbers must keep their exact wire text so signatures recompute correctly.
	if fields["amount"] != "250.50" {
		t.Fatalf("amount reformatted: %q", fields["amount"])
	}
	if fields["count"] != "3" {
		t.Fatalf("count reformatted: %q", fields["count"])
	}
	if fields["status"] != "SUCCESS" || fields["order_id"] != "ORD1" {
		t.Fatalf("string fields corrupted: %v", fields)
	}
	if fields["flag"] != "true" {
		t.Fatalf("bool mis-decoded: %q", fields["flag"])
	}
	if fields["note"] != "" {
		t.Fatalf("null should decode to empty string, got %q", fields["note"])
	}
}

func TestDecodeCallbackFields_InvalidJSON(t *testing.T) {
	if _, err := decodeCallbackFields([]byte(`not json`)); err == nil {
		t.Fatal("invalid JSON accepted")
	}
}

func TestIsSuccessStatus(t *testing.T) {
	for _, s := range []string{"SUCCESS", "success", " txn_success ", "COMPLETED", "paid"} {
		if !isSuccessStatus(s) {
			t.Fatalf("%q should be a success status", s)
		}
	}
	for _, s := range []string{"FAILED", "PENDING", "", "CANCELLED"} {
		if isSuccessStatus(s) {
			t.Fatalf("%q should not be a success status", s)
		}
	}
}

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest("GET", "/v1/users/recharge?page=3&limit=25", nil)
	page, limit := parsePagination(r, 10, 100)
	if page != 3 || limit != 25 {
		t.Fatalf("got page=%d limit=%d", page, limit)
	}

	r = httptest.NewRequest("GET", "/v1/users/recharge", nil)
	page, limit = parsePagination(r, 10, 100)
	if page != 1 || limit != 10 {
		t.Fatalf("defaults not applied: page=%d limit=%d", page, limit)
	}

	r = httptest.NewRequest("GET", "/v1/users/recharge?page=-2&limit=9999", nil)
	page, limit = parsePagination(r, 10, 100)
	if page != 1 || limit != 100 {
		t.Fatalf("bounds not applied: page=%d limit=%d", page, limit)
	}
}

func TestCallbackSignatureOK_UnsignedAccepted(t *testing.T) {
	fields := map[string]string{"status": "SUCCESS", "order_id": "ORD1"}
	if !callbackSignatureOK(fields, "secret") {
		t.Fatal("unsigned callback rejected")
	}
}

func TestCallbackSignatureOK_ValidSignature(t *testing.T) {
	fields := map[string]string{"status": "SUCCESS", "order_id": "ORD1", "amount": "100.00"}
	sig := utils.SignPayload(fields, "secret")
	fields["signature"] = sig
	if !callbackSignatureOK(fields, "secret") {
		t.Fatal("valid signature rejected")
	}
}

func TestCallbackSignatureOK_BadSignatureRejected(t *testing.T) {
	fields := map[string]string{"status": "SUCCESS", "order_id": "ORD1", "signature": "deadbeef"}
	if callbackSignatureOK(fields, "secret") {
		t.Fatal("bad signature accepted")
	}
}
