package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"skillbridge-billing/internal/domain"
	"skillbridge-billing/internal/domain/model"
	"skillbridge-billing/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*DarajaGateway)(nil)

const (
	sandboxBase = "https://sandbox.safaricom.co.ke"
	liveBase    = "https://api.safaricom.co.ke"

	tokenPath   = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath = "/mpesa/stkpush/v1/processrequest"

	// callbackPathSuffix is appended to the configured callback base URL; it
	// must match the webhook route the server registers.
	callbackPathSuffix = "/billing/callback/mpesa"

	timestampLayout = "20060102150405"
)

// DarajaGateway talks to Safaricom's Daraja API: OAuth token, then STK push.
// Merchant settings come from the settings source per call; consumer
// credentials are fixed at construction.
type DarajaGateway struct {
	consumerKey    string
	consumerSecret string
	settings       adapter.SettingsSource
	client         *http.Client

	// now is swappable in tests; the STK password signs over this timestamp.
	now func() time.Time
	// baseOverride points both endpoints at a test server when non-empty.
	baseOverride string
}

func NewDarajaGateway(consumerKey, consumerSecret string, settings adapter.SettingsSource, timeout time.Duration) (*DarajaGateway, error) {
	if settings == nil {
		return nil, errors.New("settings source is required")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &DarajaGateway{
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		settings:       settings,
		client:         &http.Client{Timeout: timeout},
		now:            time.Now,
	}, nil
}

func (g *DarajaGateway) Name() string { return "mpesa" }

func (g *DarajaGateway) baseURL(env model.MpesaEnvironment) string {
	if g.baseOverride != "" {
		return g.baseOverride
	}
	if env == model.MpesaEnvLive {
		return liveBase
	}
	return sandboxBase
}

// AccessToken obtains a bearer token with basic-auth-encoded consumer
// credentials. A missing token is a hard stop for callers.
func (g *DarajaGateway) AccessToken(ctx context.Context) (string, error) {
	s, err := g.settings.Current()
	if err != nil || !s.Configured() {
		return "", domain.ErrSettingsMissing
	}
	if g.consumerKey == "" || g.consumerSecret == "" {
		return "", fmt.Errorf("%w: consumer key/secret not configured", domain.ErrSettingsMissing)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL(s.Environment)+tokenPath, nil)
	if err != nil {
		return "", err
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(g.consumerKey + ":" + g.consumerSecret))
	req.Header.Set("Authorization", "Basic "+credentials)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: token endpoint returned %d", domain.ErrGatewayUnavailable, resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode token response: %v", domain.ErrGatewayUnavailable, err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", domain.ErrGatewayUnavailable)
	}
	return out.AccessToken, nil
}

// stkPassword derives the request signature: base64(shortcode+passkey+ts).
// The returned timestamp string is part of the signed material and must be
// sent verbatim in the payload.
func stkPassword(shortcode, passkey string, t time.Time) (password, timestamp string) {
	timestamp = t.Format(timestampLayout)
	password = base64.StdEncoding.EncodeToString([]byte(shortcode + passkey + timestamp))
	return password, timestamp
}

// NormalizePhone converts a Kenyan MSISDN to international numeral format:
// a leading 0 becomes the 254 prefix, a leading + is stripped.
func NormalizePhone(phone string) string {
	switch {
	case strings.HasPrefix(phone, "0"):
		return "254" + phone[1:]
	case strings.HasPrefix(phone, "+"):
		return phone[1:]
	default:
		return phone
	}
}

type stkPushPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// StkPush prompts the payer's phone. Every failure mode comes back as an
// error return; the checkout request id in the result is the token the
// asynchronous callback is later matched against.
func (g *DarajaGateway) StkPush(ctx context.Context, phone string, amountKES int64, accountReference, description string) (adapter.StkPushResult, error) {
	s, err := g.settings.Current()
	if err != nil || !s.Configured() {
		return adapter.StkPushResult{}, domain.ErrSettingsMissing
	}

	token, err := g.AccessToken(ctx)
	if err != nil {
		return adapter.StkPushResult{}, err
	}

	password, timestamp := stkPassword(s.Shortcode, s.Passkey, g.now())
	msisdn := NormalizePhone(phone)

	callbackURL := strings.TrimSuffix(s.CallbackBaseURL, "/") + callbackPathSuffix

	payload := stkPushPayload{
		BusinessShortCode: s.Shortcode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            amountKES,
		PartyA:            msisdn,
		PartyB:            s.Shortcode,
		PhoneNumber:       msisdn,
		CallBackURL:       callbackURL,
		AccountReference:  accountReference,
		TransactionDesc:   description,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return adapter.StkPushResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL(s.Environment)+stkPushPath, bytes.NewReader(b))
	if err != nil {
		return adapter.StkPushResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return adapter.StkPushResult{}, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return adapter.StkPushResult{}, fmt.Errorf("%w: stk push returned %d", domain.ErrGatewayUnavailable, resp.StatusCode)
	}

	var out struct {
		CheckoutRequestID   string `json:"CheckoutRequestID"`
		MerchantRequestID   string `json:"MerchantRequestID"`
		ResponseCode        string `json:"ResponseCode"`
		ResponseDescription string `json:"ResponseDescription"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return adapter.StkPushResult{}, fmt.Errorf("%w: decode stk push response: %v", domain.ErrGatewayUnavailable, err)
	}
	if out.CheckoutRequestID == "" {
		return adapter.StkPushResult{}, fmt.Errorf("%w: missing checkout request id", domain.ErrGatewayUnavailable)
	}

	return adapter.StkPushResult{
		CheckoutRequestID:   out.CheckoutRequestID,
		MerchantRequestID:   out.MerchantRequestID,
		ResponseCode:        out.ResponseCode,
		ResponseDescription: out.ResponseDescription,
	}, nil
}
