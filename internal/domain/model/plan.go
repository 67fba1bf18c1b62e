package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type PlanAudience string

const (
	PlanAudienceClient       PlanAudience = "CLIENT"
	PlanAudienceProfessional PlanAudience = "PROFESSIONAL"
)

// Plan is a static catalog entry. Read-only for the billing core; mutated
// only through the admin API.
type Plan struct {
	ID           int64
	Name         string
	Audience     PlanAudience
	PriceKES     decimal.Decimal
	DurationDays int
	Features     json.RawMessage // opaque feature/limit blob
	Active       bool
	CreatedAt    time.Time
}

func (p *Plan) Duration() time.Duration {
	return time.Duration(p.DurationDays) * 24 * time.Hour
}
