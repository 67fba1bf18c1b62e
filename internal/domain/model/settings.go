package model

import "time"

type MpesaEnvironment string

const (
	MpesaEnvSandbox MpesaEnvironment = "SANDBOX"
	MpesaEnvLive    MpesaEnvironment = "LIVE"
)

// MerchantSettings holds the Daraja credentials the admin configures at
// runtime. Single row; the gateway reads it through the settings provider,
// never the database.
type MerchantSettings struct {
	Shortcode       string
	Passkey         string
	CompanyName     string
	Environment     MpesaEnvironment
	CallbackBaseURL string
	UpdatedAt       time.Time
}

// Configured reports whether the settings are complete enough to attempt a
// gateway call.
func (s *MerchantSettings) Configured() bool {
	return s != nil && s.Shortcode != "" && s.Passkey != ""
}
