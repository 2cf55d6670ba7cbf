package gstnsync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrOTPRequired is the soft-fail channel for expired portal sessions.
// Callers interpret it as "request a fresh OTP from the user", never
// as a hard failure.
var ErrOTPRequired = errors.New("otp verification required")

// otpErrorCodes are the portal error codes that mean the session needs
// re-authentication rather than a retry.
var otpErrorCodes = map[string]bool{
	"RETOTPREQUEST": true,
	"AUTH4033":      true,
	"AUTH4034":      true,
}

type gstnClient struct {
	baseURL   string
	authToken string
	http      *http.Client
	limiter   <-chan time.Time
}

func newGstnClient(authToken string) (*gstnClient, error) {
	baseURL := strings.TrimSpace(os.Getenv("GSTN_API_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.gst.gov.in"
	}
	if strings.TrimSpace(authToken) == "" {
		return nil, errors.New("gstn auth token is empty")
	}
	rateLimitPerMin := int64(30)
	if v := strings.TrimSpace(os.Getenv("GSTN_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			rateLimitPerMin = n
		}
	}
	interval := time.Minute / time.Duration(rateLimitPerMin)

	return &gstnClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: authToken,
		http:      &http.Client{Timeout: 60 * time.Second},
		limiter:   time.Tick(interval),
	}, nil
}

// DownloadReturn fetches one return payload and verifies it belongs to
// the requested (gstin, period) and that its checksum holds. Any
// mismatch fails fast before decoding; no partial processing.
func (c *gstnClient) DownloadReturn(ctx context.Context, gstin, returnPeriod, returnType string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("gstin", gstin)
	params.Set("ret_period", returnPeriod)
	params.Set("rtn_typ", returnType)

	body, err := c.get(ctx, "/taxpayerapi/v1.1/returns", params)
	if err != nil {
		return nil, err
	}

	var envelope returnEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("invalid response, retry or raise a support ticket: %w", err)
	}
	if envelope.Gstin != gstin || envelope.ReturnPeriod != returnPeriod {
		return nil, errors.New("invalid response, retry or raise a support ticket: gstin or period mismatch")
	}
	if len(envelope.Data) == 0 {
		return nil, errors.New("invalid response, retry or raise a support ticket: empty payload")
	}

	digest := sha256.Sum256(envelope.Data)
	if !strings.EqualFold(hex.EncodeToString(digest[:]), envelope.Checksum) {
		return nil, errors.New("checksum mismatch on downloaded return")
	}
	return envelope.Data, nil
}

func (c *gstnClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	<-c.limiter
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("auth-token", c.authToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && otpErrorCodes[apiErr.ErrorCode] {
			return nil, ErrOTPRequired
		}
		return nil, fmt.Errorf("gstn api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
