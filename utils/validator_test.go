package utils

import "testing"

type bankForm struct {
	HolderName    string `validate:"required,nameok"`
	AccountNumber string `validate:"required,acctnum"`
	IFSCCode      string `validate:"required,ifsc"`
}

type signupForm struct {
	Number               string `validate:"required,phone10"`
	Password             string `validate:"required,pwdmin"`
	PasswordConfirmation string `validate:"required,eqfield=Password"`
}

func TestValidateStruct_BankAccountValid(t *testing.T) {
	form := bankForm{
		HolderName:    "Ramesh Kumar",
		AccountNumber: "123456789012",
		IFSCCode:      "HDFC0001234",
	}
	if err := ValidateStruct(&form); err != nil {
		t.Fatalf("valid bank form rejected: %v", err)
	}
}

func TestValidateStruct_IFSC(t *testing.T) {
	bad := []string{
		"HDFC1001234", // fifth char must be 0
		"HDF00012345", // only three letters
		"hdfc0001234", // lowercase
		"HDFC000123",  // too short
	}
	for _, code := range bad {
		form := bankForm{HolderName: "A", AccountNumber: "123456789", IFSCCode: code}
		if err := ValidateStruct(&form); err == nil {
			t.Fatalf("IFSC %q accepted", code)
		}
	}
}

func TestValidateStruct_AccountNumber(t *testing.T) {
	bad := []string{"12345678", "1234567890123456789", "12345abc9"}
	for _, acct := range bad {
		form := bankForm{HolderName: "A", AccountNumber: acct, IFSCCode: "HDFC0001234"}
		if err := ValidateStruct(&form); err == nil {
			t.Fatalf("account number %q accepted", acct)
		}
	}
}

func TestValidateStruct_Phone(t *testing.T) {
	good := []string{"9876543210", "919876543210"}
	for _, n := range good {
		form := signupForm{Number: n, Password: "secret1", PasswordConfirmation: "secret1"}
		if err := ValidateStruct(&form); err != nil {
			t.Fatalf("phone %q rejected: %v", n, err)
		}
	}
	bad := []string{"98765", "98765abc10", "+919876543210"}
	for _, n := range bad {
		form := signupForm{Number: n, Password: "secret1", PasswordConfirmation: "secret1"}
		if err := ValidateStruct(&form); err == nil {
			t.Fatalf("phone %q accepted", n)
		}
	}
}

func TestValidateStruct_PasswordRules(t *testing.T) {
	short := signupForm{Number: "9876543210", Password: "abc", PasswordConfirmation: "abc"}
	if err := ValidateStruct(&short); err == nil {
		t.Fatal("password under 6 chars accepted")
	}
	mismatch := signupForm{Number: "9876543210", Password: "secret1", PasswordConfirmation: "secret2"}
	if err := ValidateStruct(&mismatch); err == nil {
		t.Fatal("mismatched confirmation accepted")
	}
}

func TestValidateStruct_Required(t *testing.T) {
	form := bankForm{}
	if err := ValidateStruct(&form); err == nil {
		t.Fatal("empty required fields accepted")
	}
}
