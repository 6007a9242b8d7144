package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxBody = 1 << 20

type TossClient struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
}

func NewTossClient(baseURL, secretKey string, timeout time.Duration) *TossClient {
	return &TossClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(secretKey+":")),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// String keeps the credentials out of any formatted output.
func (c *TossClient) String() string {
	return fmt.Sprintf("TossClient{baseURL: %s}", c.baseURL)
}

type tossPayment struct {
	PaymentKey  string `json:"paymentKey"`
	OrderID     string `json:"orderId"`
	Status      string `json:"status"`
	Method      string `json:"method"`
	TotalAmount *int64 `json:"totalAmount"`
	ApprovedAt  string `json:"approvedAt"`
}

type tossError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *TossClient) Confirm(ctx context.Context, req ConfirmRequest) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal confirm request: %w", err)
	}
	return c.do(ctx, http.MethodPost, c.baseURL+"/v1/payments/confirm", body)
}

func (c *TossClient) Lookup(ctx context.Context, paymentKey string) (*Result, error) {
	return c.do(ctx, http.MethodGet, c.baseURL+"/v1/payments/"+url.PathEscape(paymentKey), nil)
}

func (c *TossClient) do(ctx context.Context, method, endpoint string, body []byte) (*Result, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error carries the URL only, never headers.
		return nil, fmt.Errorf("%w: %v", ErrUnknownOutcome, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil, fmt.Errorf("%w: read body: %v", ErrUnknownOutcome, err)
		}
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: "unreadable error body"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var te tossError
		if jsonErr := json.Unmarshal(raw, &te); jsonErr != nil || te.Message == "" {
			te.Message = http.StatusText(resp.StatusCode)
		}
		return nil, &GatewayError{StatusCode: resp.StatusCode, Code: te.Code, Message: te.Message}
	}

	return parsePayment(resp.StatusCode, raw)
}

func parsePayment(status int, raw []byte) (*Result, error) {
	var p tossPayment
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &GatewayError{StatusCode: status, Code: "MALFORMED_RESPONSE", Message: err.Error()}
	}
	if p.Status == "" || p.TotalAmount == nil {
		return nil, &GatewayError{StatusCode: status, Code: "MALFORMED_RESPONSE", Message: "status or totalAmount missing"}
	}

	res := &Result{
		PaymentKey:  p.PaymentKey,
		OrderID:     p.OrderID,
		Status:      p.Status,
		Method:      p.Method,
		TotalAmount: *p.TotalAmount,
	}
	if p.ApprovedAt != "" {
		t, err := time.Parse(time.RFC3339, p.ApprovedAt)
		if err != nil {
			return nil, &GatewayError{StatusCode: status, Code: "MALFORMED_RESPONSE", Message: "approvedAt: " + err.Error()}
		}
		res.ApprovedAt = t.UTC()
	}
	return res, nil
}

// IsUnknown reports whether err leaves the payment outcome undecided.
func IsUnknown(err error) bool {
	return errors.Is(err, ErrUnknownOutcome)
}
