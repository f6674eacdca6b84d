package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"diamonds/internal/core"
	"diamonds/internal/dashboard"
	"diamonds/internal/settings"
	"diamonds/internal/store"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("malformed request body")

// validationErrors are rejected with 422; the request was well formed but the
// record it describes is not acceptable.
var validationErrors = []error{
	core.ErrInvalidDate,
	core.ErrInvalidQuantity,
	core.ErrInvalidMonth,
	core.ErrInvalidYear,
	core.ErrInvalidOperator,
	core.ErrNegativeCommission,
	core.ErrInvalidAmount,
	settings.ErrPercentageRange,
	settings.ErrSplitTotal,
	settings.ErrEmptyPartner,
	settings.ErrNegativePrice,
	dashboard.ErrInvalidScope,
}

// statusForError maps domain errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError hides internal error text behind a generic message.
func writeDomainError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeError(w, status, msg)
}

// decodeJSON reads a single JSON object from the body. Date and quantity
// problems surface as their domain errors; any other decoding failure is a
// bad request.
func decodeJSON(r *http.Request, into any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(into); err != nil {
		if errors.Is(err, core.ErrInvalidDate) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
