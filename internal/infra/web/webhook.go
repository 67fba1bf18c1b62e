package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"skillbridge-billing/internal/domain"
)

// mpesaCallbackHandler terminates the Daraja STK callback. The gateway
// redelivers on any non-2xx, so the status code is the retry contract:
// 200 acknowledges (applied or duplicate), 400 rejects garbage that can
// never succeed, 500 asks for redelivery.
func (s *Server) mpesaCallbackHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "unreadable body"})
		return
	}
	if len(body) == 0 || !json.Valid(body) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "invalid JSON body"})
		return
	}

	err = s.reconcileUC.ProcessCallback(r.Context(), body)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "callback processed"})
	case errors.Is(err, domain.ErrAlreadyReconciled):
		// Redelivery of an already-applied callback. Acknowledge so the
		// gateway stops retrying.
		writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "already processed"})
	default:
		s.log.Error().Err(err).Msg("callback processing failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": "processing failed"})
	}
}
