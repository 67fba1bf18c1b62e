package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"skillbridge-billing/internal/domain"
	"skillbridge-billing/internal/domain/model"
	"skillbridge-billing/internal/infra/redis"
)

var validate = validator.New()

type paymentInitiateRequest struct {
	PlanID    int64  `json:"plan_id" validate:"required,gt=0"`
	ProfileID int64  `json:"profile_id" validate:"required,gt=0"`
	Phone     string `json:"phone" validate:"required,min=10,max=13"`
}

type paymentResponse struct {
	ID          string `json:"id"`
	PlanID      int64  `json:"plan_id"`
	Status      string `json:"status"`
	AmountKES   string `json:"amount_kes"`
	ProviderRef string `json:"provider_ref,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func toPaymentResponse(p *model.Payment) paymentResponse {
	return paymentResponse{
		ID:          p.ID,
		PlanID:      p.PlanID,
		Status:      string(p.Status),
		AmountKES:   p.AmountKES.StringFixed(2),
		ProviderRef: p.ProviderRef(),
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) paymentInitiateHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := userIDFrom(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	allowed, err := s.limiter.Allow(ctx, redis.InitiateKey(userID), s.rateLimit.InitiatePerMinute, time.Minute)
	if err != nil {
		s.log.Error().Err(err).Msg("rate limiter unavailable")
	} else if !allowed {
		writeError(w, http.StatusTooManyRequests, "too many payment attempts, try again shortly")
		return
	}

	var req paymentInitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.paymentUC.Initiate(ctx, userID, req.ProfileID, req.PlanID, req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "plan not found")
		case errors.Is(err, domain.ErrPlanInactive):
			writeError(w, http.StatusUnprocessableEntity, "plan is not available")
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrGatewayUnavailable):
			// The PENDING record was already marked FAILED; surface the id
			// so the client can show it in history.
			resp := map[string]string{"error": "payment gateway unavailable"}
			if p != nil {
				resp["payment_id"] = p.ID
			}
			writeJSON(w, http.StatusBadGateway, resp)
		default:
			writeError(w, http.StatusInternalServerError, "failed to initiate payment")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, toPaymentResponse(p))
}

func (s *Server) paymentStatusHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := userIDFrom(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	p, err := s.paymentUC.Status(ctx, userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "payment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get payment")
		return
	}

	writeJSON(w, http.StatusOK, toPaymentResponse(p))
}

func (s *Server) paymentHistoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := userIDFrom(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	payments, err := s.paymentUC.History(ctx, userID, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list payments")
		return
	}

	data := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		data = append(data, toPaymentResponse(p))
	}
	writeJSON(w, http.StatusOK, struct {
		Data   []paymentResponse `json:"data"`
		Limit  int               `json:"limit"`
		Offset int               `json:"offset"`
	}{Data: data, Limit: limit, Offset: offset})
}

func (s *Server) subscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := userIDFrom(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	subs, err := s.subUC.ListByUser(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Data []*model.Subscription `json:"data"`
	}{Data: subs})
}

func (s *Server) plansListHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	audience := model.PlanAudience(strings.ToUpper(r.URL.Query().Get("audience")))
	if audience != "" && audience != model.PlanAudienceClient && audience != model.PlanAudienceProfessional {
		writeError(w, http.StatusBadRequest, "unknown audience")
		return
	}

	plans, err := s.planUC.ListActive(ctx, audience)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list plans")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Data []*model.Plan `json:"data"`
	}{Data: plans})
}
