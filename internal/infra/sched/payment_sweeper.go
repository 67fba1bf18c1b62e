package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"skillbridge-billing/internal/infra/metrics"
	"skillbridge-billing/internal/usecase"
)

const sweepBatchSize = 200

// PaymentSweeper fails PENDING payments whose callback never arrived.
// Daraja gives up redelivering eventually; without the sweep those rows
// would stay PENDING forever.
type PaymentSweeper struct {
	interval   time.Duration
	staleAfter time.Duration
	paymentUC  usecase.PaymentUseCase
	log        *zerolog.Logger
}

func NewPaymentSweeper(interval, staleAfter time.Duration, paymentUC usecase.PaymentUseCase, logger *zerolog.Logger) *PaymentSweeper {
	l := logger.With().Str("component", "PaymentSweeper").Logger()
	return &PaymentSweeper{
		interval:   interval,
		staleAfter: staleAfter,
		paymentUC:  paymentUC,
		log:        &l,
	}
}

func (w *PaymentSweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("stale_after", w.staleAfter).Msg("starting payment sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping payment sweeper")
			return ctx.Err()
		case <-ticker.C:
			cutoff := time.Now().Add(-w.staleAfter)
			n, err := w.paymentUC.FailStalePending(ctx, cutoff, sweepBatchSize)
			if err != nil {
				w.log.Error().Err(err).Msg("payment sweep failed")
				continue
			}
			if n > 0 {
				metrics.IncPaymentsSweptStale(n)
				w.log.Info().Int("count", n).Time("cutoff", cutoff).Msg("stale pending payments failed")
			}
		}
	}
}
