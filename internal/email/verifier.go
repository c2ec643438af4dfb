// Package email checks address deliverability against a Kickbox-compatible
// verification API. The check is advisory: account opening proceeds on
// "risky" results and only rejects undeliverable addresses.
package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"

	"github.com/minibank/ledger/internal/config"
)

var emailFormat = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// Result is the verifier's verdict on one address.
type Result struct {
	Email       string `json:"email"`
	Deliverable bool   `json:"deliverable"`
	Reason      string `json:"reason"`
}

// verifyResponse mirrors the fields of the Kickbox verify endpoint we use.
type verifyResponse struct {
	Result string `json:"result"` // deliverable | undeliverable | risky | unknown
	Reason string `json:"reason"`
}

// Verifier calls the verification API. A nil Verifier (no API key
// configured) accepts any well-formed address.
type Verifier struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewVerifier returns nil when no API key is configured; callers treat a nil
// verifier as format-check only.
func NewVerifier(logger *slog.Logger, cfg *config.KickboxConfig) *Verifier {
	if cfg.APIKey == "" {
		return nil
	}
	return &Verifier{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// ValidFormat reports whether the address is syntactically plausible.
// Checked before any API call so garbage never reaches the service.
func ValidFormat(email string) bool {
	return emailFormat.MatchString(email)
}

// Verify checks one address. Transport failures degrade to acceptance with a
// reason, the same way the original treated API errors: deliverability
// checking must never block account opening.
func (v *Verifier) Verify(ctx context.Context, email string) Result {
	if !ValidFormat(email) {
		return Result{Email: email, Deliverable: false, Reason: "invalid format"}
	}
	if v == nil {
		return Result{Email: email, Deliverable: true, Reason: "verification disabled"}
	}

	endpoint := fmt.Sprintf("%s/verify?email=%s&apikey=%s",
		v.baseURL, url.QueryEscape(email), url.QueryEscape(v.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{Email: email, Deliverable: true, Reason: "verification unavailable"}
	}

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Warn("email verification request failed", "error", err)
		return Result{Email: email, Deliverable: true, Reason: "verification unavailable"}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		v.logger.Warn("email verification returned non-OK status", "status", resp.StatusCode)
		return Result{Email: email, Deliverable: true, Reason: "verification unavailable"}
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		v.logger.Warn("email verification returned malformed body", "error", err)
		return Result{Email: email, Deliverable: true, Reason: "verification unavailable"}
	}

	switch body.Result {
	case "deliverable":
		return Result{Email: email, Deliverable: true, Reason: "deliverable"}
	case "risky":
		return Result{Email: email, Deliverable: true, Reason: "risky: " + body.Reason}
	case "undeliverable":
		return Result{Email: email, Deliverable: false, Reason: body.Reason}
	default:
		return Result{Email: email, Deliverable: true, Reason: "unknown: " + body.Reason}
	}
}
