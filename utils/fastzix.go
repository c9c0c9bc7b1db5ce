package utils

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
)

// Fastzix is the UPI collection gateway. Requests carry an X-VERIFY header:
// HMAC-SHA256 over the payload fields sorted by key and joined as
// "k1=v1|k2=v2|...". The secret is only the HMAC key, never a field.
const (
	fastzixCurrency  = "INR"
	fastzixOrderPath = "/api/v1/order"
	FastzixTimeout   = 15 * time.Second
	signatureField   = "signature"
	signatureHeader  = "X-VERIFY"
)

var ErrFastzixDeclined = errors.New("fastzix_declined")

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

type FastzixConfig struct {
	BaseURL     string
	MerchantID  string
	APIKey      string
	RedirectURL string
}

// GetFastzixConfig reads gateway credentials from the environment. Missing
// credentials are a deploy problem, not a caller problem.
func GetFastzixConfig() (FastzixConfig, error) {
	cfg := FastzixConfig{
		BaseURL:     strings.TrimRight(envOr("FASTZIX_BASE_URL", "https://fastzix.in"), "/"),
		MerchantID:  os.Getenv("FASTZIX_MERCH_ID"),
		APIKey:      os.Getenv("FASTZIX_API_KEY"),
		RedirectURL: os.Getenv("FASTZIX_REDIRECT_URL"),
	}
	if cfg.MerchantID == "" || cfg.APIKey == "" || cfg.RedirectURL == "" {
		return cfg, errors.New("fastzix credentials are not configured")
	}
	return cfg, nil
}

// SignPayload computes the hex HMAC-SHA256 signature over fields sorted by
// key and joined with '|'. Values are signed exactly as given.
func SignPayload(fields map[string]string, secret string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+fields[k])
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a callback signature. The signature field itself
// is excluded from the signed material. Comparison is constant-time.
func VerifySignature(fields map[string]string, signature, secret string) bool {
	if signature == "" {
		return false
	}
	clean := make(map[string]string, len(fields))
	for k, v := range fields {
		if k == signatureField {
			continue
		}
		clean[k] = v
	}
	expected := SignPayload(clean, secret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

type fastzixOrderRequest struct {
	CustomerMobile string `json:"customer_mobile"`
	MerchID        string `json:"merch_id"`
	Amount         string `json:"amount"`
	OrderID        string `json:"order_id"`
	Currency       string `json:"currency"`
	RedirectURL    string `json:"redirect_url"`
	UDF1           string `json:"udf1"`
	UDF2           string `json:"udf2"`
	UDF3           string `json:"udf3"`
	UDF4           string `json:"udf4"`
	UDF5           string `json:"udf5"`
}

func (r fastzixOrderRequest) signedFields() map[string]string {
	return map[string]string{
		"customer_mobile": r.CustomerMobile,
		"merch_id":        r.MerchID,
		"amount":          r.Amount,
		"order_id":        r.OrderID,
		"currency":        r.Currency,
		"redirect_url":    r.RedirectURL,
		"udf1":            r.UDF1,
		"udf2":            r.UDF2,
		"udf3":            r.UDF3,
		"udf4":            r.UDF4,
		"udf5":            r.UDF5,
	}
}

type FastzixOrderResult struct {
	OrderID    string `json:"order_id"`
	PaymentURL string `json:"payment_url"`
}

type FastzixOrderResponse struct {
	Status  bool               `json:"status"`
	Message string             `json:"message"`
	Result  FastzixOrderResult `json:"result"`
}

// CreateFastzixOrder posts a signed order and returns the parsed response
// plus the raw request/response bodies for the audit columns. A declined
// order (HTTP 2xx but status=false) returns ErrFastzixDeclined wrapped
// with the gateway message.
func CreateFastzixOrder(ctx context.Context, client *http.Client, cfg FastzixConfig, orderID, phone string, userID uint, amount float64) (*FastzixOrderResponse, []byte, []byte, error) {
	if client == nil {
		client = &http.Client{Timeout: FastzixTimeout}
	}

	payload := fastzixOrderRequest{
		CustomerMobile: phone,
		MerchID:        cfg.MerchantID,
		Amount:         fmt.Sprintf("%.2f", amount),
		OrderID:        orderID,
		Currency:       fastzixCurrency,
		RedirectURL:    cfg.RedirectURL,
		UDF1:           fmt.Sprintf("%d", userID),
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+fastzixOrderPath, bytes.NewReader(reqBody))
	if err != nil {
		return nil, reqBody, nil, fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(signatureHeader, SignPayload(payload.signedFields(), cfg.APIKey))

	resp, err := client.Do(req)
	if err != nil {
		return nil, reqBody, nil, fmt.Errorf("call fastzix: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, reqBody, nil, fmt.Errorf("read fastzix response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, reqBody, respBody, fmt.Errorf("fastzix returned http %d", resp.StatusCode)
	}

	var parsed FastzixOrderResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, reqBody, respBody, fmt.Errorf("decode fastzix response: %w", err)
	}
	if !parsed.Status {
		msg := parsed.Message
		if msg == "" {
			msg = "no message"
		}
		return &parsed, reqBody, respBody, fmt.Errorf("%w: %s", ErrFastzixDeclined, msg)
	}
	if parsed.Result.PaymentURL == "" {
		return &parsed, reqBody, respBody, errors.New("fastzix response missing payment_url")
	}
	return &parsed, reqBody, respBody, nil
}
