package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
)

// Minimal internal validator to avoid external dependency. Supports:
// - required
// - phone10 (Indian mobile, 10-15 digits)
// - ifsc (4 letters + '0' + 6 alphanumerics)
// - nameok (letters, numbers, space, hyphen, apostrophe, 1-100 chars)
// - acctnum (9-18 digits)
// - pwdmin (min length 6)
// - eqfield=OtherField (field equals another field)

var (
	rePhone10 = regexp.MustCompile(`^[0-9]{10,15}$`)
	reIFSC    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	reNameOK  = regexp.MustCompile(`^[A-Za-z0-9 \-']{1,100}$`)
	reAcctNum = regexp.MustCompile(`^[0-9]{9,18}$`)
)

// ValidateStruct inspects struct tags `validate:"..."` and returns the first error encountered.
func ValidateStruct(s interface{}) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return errors.New("ValidateStruct expects a struct or pointer to struct")
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}
		parts := strings.Split(tag, ",")
		fv := v.Field(i)
		var sval string
		if fv.IsValid() && fv.Kind() == reflect.String {
			sval = fv.String()
		}
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "required" {
				if sval == "" {
					return errors.New(field.Name + " is required")
				}
			} else if p == "phone10" {
				if sval != "" && !rePhone10.MatchString(sval) {
					return errors.New(field.Name + " must be a mobile number of 10 to 15 digits")
				}
			} else if p == "ifsc" {
				if sval != "" && !reIFSC.MatchString(sval) {
					return errors.New(field.Name + " must be a valid IFSC code")
				}
			} else if p == "nameok" {
				if sval != "" && !reNameOK.MatchString(sval) {
					return errors.New(field.Name + " contains invalid characters")
				}
			} else if p == "acctnum" {
				if sval != "" && !reAcctNum.MatchString(sval) {
					return errors.New(field.Name + " must be an account number of 9 to 18 digits")
				}
			} else if p == "pwdmin" {
				if len(sval) < 6 {
					return errors.New(field.Name + " must be at least 6 characters")
				}
			} else if strings.HasPrefix(p, "eqfield=") {
				other := strings.TrimPrefix(p, "eqfield=")
				of := v.FieldByName(other)
				if of.IsValid() && of.Kind() == reflect.String {
					if sval != of.String() {
						return errors.New(field.Name + " must equal " + other)
					}
				}
			}
		}
	}
	return nil
}
