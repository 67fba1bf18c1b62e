package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"skillbridge-billing/internal/domain"
	"skillbridge-billing/internal/domain/model"
)

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	byStatus, byPlan, err := s.statsUC.Totals(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get totals")
		return
	}
	week, month, year, err := s.statsUC.Revenue(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get revenue")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		PaymentsByStatus map[string]int `json:"payments_by_status"`
		ActiveSubsByPlan map[string]int `json:"active_subs_by_plan"`
		Revenue          struct {
			Week  int64 `json:"week"`
			Month int64 `json:"month"`
			Year  int64 `json:"year"`
		} `json:"revenue_kes"`
	}{
		PaymentsByStatus: byStatus,
		ActiveSubsByPlan: byPlan,
		Revenue: struct {
			Week  int64 `json:"week"`
			Month int64 `json:"month"`
			Year  int64 `json:"year"`
		}{Week: week, Month: month, Year: year},
	})
}

type planRequest struct {
	Name         string          `json:"name" validate:"required"`
	Audience     string          `json:"audience" validate:"required"`
	PriceKES     string          `json:"price_kes" validate:"required"`
	DurationDays int             `json:"duration_days" validate:"required,gt=0"`
	Features     json.RawMessage `json:"features"`
	Active       *bool           `json:"active"`
}

func (req *planRequest) toModel(id int64) (*model.Plan, error) {
	price, err := decimal.NewFromString(req.PriceKES)
	if err != nil {
		return nil, errors.New("price_kes must be a decimal string")
	}
	p := &model.Plan{
		ID:           id,
		Name:         req.Name,
		Audience:     model.PlanAudience(strings.ToUpper(req.Audience)),
		PriceKES:     price,
		DurationDays: req.DurationDays,
		Features:     req.Features,
		Active:       true,
	}
	if req.Active != nil {
		p.Active = *req.Active
	}
	return p, nil
}

func (s *Server) adminPlansListHandler(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planUC.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list plans")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data []*model.Plan `json:"data"`
	}{Data: plans})
}

func (s *Server) adminPlanCreateHandler(w http.ResponseWriter, r *http.Request) {
	s.savePlan(w, r, 0)
}

func (s *Server) adminPlanUpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid plan id")
		return
	}
	s.savePlan(w, r, id)
}

func (s *Server) savePlan(w http.ResponseWriter, r *http.Request, id int64) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := req.toModel(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.planUC.Save(r.Context(), plan); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "plan not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to save plan")
		}
		return
	}

	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, plan)
}

// adminPlanDeleteHandler deactivates rather than deletes. Payments and
// subscriptions keep referencing the plan row.
func (s *Server) adminPlanDeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid plan id")
		return
	}

	if err := s.planUC.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "plan not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to deactivate plan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type settingsRequest struct {
	Shortcode       string `json:"shortcode" validate:"required"`
	Passkey         string `json:"passkey" validate:"required"`
	CompanyName     string `json:"company_name"`
	Environment     string `json:"environment" validate:"required,oneof=SANDBOX LIVE sandbox live"`
	CallbackBaseURL string `json:"callback_base_url" validate:"required,url"`
}

// The passkey is write-only through the API.
type settingsResponse struct {
	Shortcode       string `json:"shortcode"`
	CompanyName     string `json:"company_name"`
	Environment     string `json:"environment"`
	CallbackBaseURL string `json:"callback_base_url"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

func (s *Server) settingsGetHandler(w http.ResponseWriter, r *http.Request) {
	cur, err := s.settingsUC.Current()
	if err != nil {
		if errors.Is(err, domain.ErrSettingsMissing) {
			writeError(w, http.StatusNotFound, "merchant settings not configured")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get settings")
		return
	}

	resp := settingsResponse{
		Shortcode:       cur.Shortcode,
		CompanyName:     cur.CompanyName,
		Environment:     string(cur.Environment),
		CallbackBaseURL: cur.CallbackBaseURL,
	}
	if !cur.UpdatedAt.IsZero() {
		resp.UpdatedAt = cur.UpdatedAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) settingsUpdateHandler(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := s.settingsUC.Update(r.Context(), &model.MerchantSettings{
		Shortcode:       req.Shortcode,
		Passkey:         req.Passkey,
		CompanyName:     req.CompanyName,
		Environment:     model.MpesaEnvironment(strings.ToUpper(req.Environment)),
		CallbackBaseURL: strings.TrimRight(req.CallbackBaseURL, "/"),
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) settingsReloadHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.settingsUC.Reload(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reload settings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}
