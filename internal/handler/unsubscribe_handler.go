// internal/handler/unsubscribe_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	appErrors "github.com/pikarlabs/campaign-dispatch/internal/errors"
	"github.com/pikarlabs/campaign-dispatch/internal/service"
)

// UnsubscribeHandler serves the per-recipient opt-out link embedded in
// campaign footers.
type UnsubscribeHandler struct {
	Tokens *service.TokenService
}

// Unsubscribe activates the token carried in the link. Re-visiting an
// already-used link succeeds; an unknown token, or a token that does not
// belong to the link's tenant/email, is a failure.
func (h *UnsubscribeHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	token := query.Get("token")
	if token == "" {
		writeResult(w, http.StatusBadRequest, false)
		return
	}

	if err := h.Tokens.ActivateLink(token, query.Get("tenant"), query.Get("email")); err != nil {
		var invalid *appErrors.ErrInvalidToken
		if errors.As(err, &invalid) {
			writeResult(w, http.StatusBadRequest, false)
			return
		}
		log.Println("⚠️ unsubscribe failed:", err)
		writeResult(w, http.StatusInternalServerError, false)
		return
	}

	writeResult(w, http.StatusOK, true)
}

func writeResult(w http.ResponseWriter, status int, success bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]bool{"success": success})
}
