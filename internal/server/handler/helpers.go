package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alanyoungcy/perpfeed/internal/domain"
	"github.com/alanyoungcy/perpfeed/internal/wallet"
)

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeErrorDetails sends a JSON error response carrying a details list.
func writeErrorDetails(w http.ResponseWriter, status int, msg string, details []string) {
	writeJSON(w, status, map[string]any{"error": msg, "details": details})
}

// queryInt reads an integer query parameter, returning def when it is absent
// or not a number.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// parseListOpts extracts pagination parameters from the query string.
// Defaults: limit=100 (max 500), offset=0.
func parseListOpts(r *http.Request) domain.ListOpts {
	limit := queryInt(r, "limit", 100)
	if limit <= 0 {
		limit = 100
	}
	limit = min(limit, 500)

	return domain.ListOpts{
		Limit:  limit,
		Offset: max(queryInt(r, "offset", 0), 0),
	}
}

// pathParam extracts a named path parameter from the request using Go 1.22+
// built-in routing (http.Request.PathValue).
func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}

// logHandler is a convenience to attach slog fields in handler code.
func logHandler(logger *slog.Logger, handler string) *slog.Logger {
	return logger.With(slog.String("handler", handler))
}

// checkAddress writes a 400 and returns false when address is not a valid
// Solana public key.
func checkAddress(w http.ResponseWriter, address string) bool {
	if err := wallet.Validate(address); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "Invalid Solana address format", []string{err.Error()})
		return false
	}
	return true
}

// requireAddress reads the address query parameter, writing a 400 and
// returning false when it is missing.
func requireAddress(w http.ResponseWriter, r *http.Request) (string, bool) {
	address := r.URL.Query().Get("address")
	if address == "" {
		writeError(w, http.StatusBadRequest, "Wallet address required")
		return "", false
	}
	return address, true
}

// writeUpstreamError maps an exchange failure onto the response: upstream
// statuses pass through, schema mismatches become a 500 with the offending
// fields, anything else is a 500 with fallback.
func writeUpstreamError(w http.ResponseWriter, exchange domain.Exchange, err error, fallback string) {
	var te *domain.TransportError
	if errors.As(err, &te) && te.StatusCode >= 400 {
		writeError(w, te.StatusCode, fmt.Sprintf("%s API returned %d", exchange, te.StatusCode))
		return
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeErrorDetails(w, http.StatusInternalServerError,
			fmt.Sprintf("Invalid response format from %s API", exchange), ve.Fields)
		return
	}
	writeError(w, http.StatusInternalServerError, fallback)
}
