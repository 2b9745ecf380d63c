package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/inkwell/newsletter-platform/internal/pkg/logger"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// respondSafeError logs the full internal error and sends a sanitized JSON
// error to the client. Internal details (SQL text, hosts, file paths) must
// never reach API consumers.
func respondSafeError(w http.ResponseWriter, status int, internalErr error, publicMsg string) {
	if internalErr != nil {
		logger.Error(publicMsg, "status", status, "error", internalErr)
	}
	respondError(w, status, publicMsg)
}

// safeErrorMessage maps common internal error patterns to public-safe
// messages. 4xx messages are about user input and pass through; 5xx
// messages are generalized.
func safeErrorMessage(status int, internalErr error) string {
	if status < 500 {
		if internalErr != nil {
			return internalErr.Error()
		}
		return "Bad request"
	}

	if internalErr == nil {
		return "An internal error occurred"
	}

	errStr := strings.ToLower(internalErr.Error())
	switch {
	case strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "dial tcp"):
		return "Service temporarily unavailable"

	case strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "context canceled"):
		return "Request timed out"

	case strings.Contains(errStr, "sql") ||
		strings.Contains(errStr, "pq:") ||
		strings.Contains(errStr, "query") ||
		strings.Contains(errStr, "scan") ||
		strings.Contains(errStr, "database"):
		return "A database error occurred"

	case strings.Contains(errStr, "json") ||
		strings.Contains(errStr, "unmarshal") ||
		strings.Contains(errStr, "decode") ||
		strings.Contains(errStr, "parse"):
		return "Invalid request format"

	default:
		return "An internal error occurred"
	}
}
