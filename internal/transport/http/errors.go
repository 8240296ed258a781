package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"wager-engine/internal/wager"

	"github.com/rs/zerolog/log"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, wager.ErrInvalidParameters), errors.Is(err, wager.ErrInvalidMove):
		return http.StatusBadRequest
	case errors.Is(err, wager.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, wager.ErrNotConfirmed),
		errors.Is(err, wager.ErrAlreadySettled),
		errors.Is(err, wager.ErrSessionAlreadyResolved):
		return http.StatusConflict
	case errors.Is(err, wager.ErrBusy):
		return http.StatusLocked
	case errors.Is(err, wager.ErrSeedNotYetRevealed):
		return http.StatusForbidden
	case errors.Is(err, wager.ErrIdempotencyKeyReused):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeEngineError answers with the error's code and player message. Internal
// detail only goes to the log.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		metricHTTPServerErrors.Add(1)
		log.Error().Err(err).Str("path", r.URL.Path).Msg("engine call failed")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": wager.Code(err), "message": wager.Message(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
