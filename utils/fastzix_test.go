package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

const testSecret = "test-api-key"

func rawHMAC(material, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(material))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestSignPayload_SortedPipeJoined(t *testing.T) {
	fields := map[string]string{
		"order_id": "ORD1700000000000123456",
		"amount":   "100.00",
		"merch_id": "M123",
	}
	got := SignPayload(fields, testSecret)
	want := rawHMAC("amount=100.00|merch_id=M123|order_id=ORD1700000000000123456", testSecret)
	if got != want {
		t.Fatalf("signature mismatch: got %s want %s", got, want)
	}
}

func TestSignPayload_Deterministic(t *testing.T) {
	fields := map[string]string{"a": "1", "b": "2", "c": "3"}
	first := SignPayload(fields, testSecret)
	second := SignPayload(fields, testSecret)
	if first != second {
		t.Fatalf("same input produced different signatures: %s vs %s", first, second)
	}
}

func TestSignPayload_SecretIsNotAField(t *testing.T) {
	fields := map[string]string{"order_id": "ORD1"}
	got := SignPayload(fields, testSecret)
	// Signing material must not contain the secret as a key=value pair.
	withSecretField := rawHMAC("key="+testSecret+"|order_id=ORD1", testSecret)
	if got == withSecretField {
		t.Fatal("secret leaked into the signing material")
	}
	if got != rawHMAC("order_id=ORD1", testSecret) {
		t.Fatal("signing material should be exactly the sorted fields")
	}
}

func TestVerifySignature_Valid(t *testing.T) {
	fields := map[string]string{"order_id": "ORD1", "status": "SUCCESS", "amount": "250"}
	sig := SignPayload(fields, testSecret)
	if !VerifySignature(fields, sig, testSecret) {
		t.Fatal("valid signature rejected")
	}
}

func TestVerifySignature_UppercaseAccepted(t *testing.T) {
	fields := map[string]string{"order_id": "ORD1", "status": "SUCCESS"}
	sig := SignPayload(fields, testSecret)
	upper := ""
	for _, c := range sig {
		if c >= 'a' && c <= 'f' {
			c = c - 'a' + 'A'
		}
		upper += string(c)
	}
	if !VerifySignature(fields, upper, testSecret) {
		t.Fatal("uppercase hex signature rejected")
	}
}

func TestVerifySignature_ExcludesSignatureField(t *testing.T) {
	fields := map[string]string{"order_id": "ORD1", "status": "SUCCESS"}
	sig := SignPayload(fields, testSecret)
	// Callbacks carry the signature inside the body; it must not sign itself.
	fields["signature"] = sig
	if !VerifySignature(fields, sig, testSecret) {
		t.Fatal("signature field was included in the signed material")
	}
}

func TestVerifySignature_TamperedField(t *testing.T) {
	fields := map[string]string{"order_id": "ORD1", "amount": "250"}
	sig := SignPayload(fields, testSecret)
	fields["amount"] = "99999"
	if VerifySignature(fields, sig, testSecret) {
		t.Fatal("tampered payload accepted")
	}
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	fields := map[string]string{"order_id": "ORD1"}
	sig := SignPayload(fields, testSecret)
	if VerifySignature(fields, sig, "other-secret") {
		t.Fatal("signature from a different secret accepted")
	}
}

func TestVerifySignature_EmptySignature(t *testing.T) {
	if VerifySignature(map[string]string{"order_id": "ORD1"}, "", testSecret) {
		t.Fatal("empty signature accepted")
	}
}
