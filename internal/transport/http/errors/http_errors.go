package errors

import (
	"encoding/json"
	"net/http"
	"strconv"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RetryableError is returned for 429 and 503 responses.
type RetryableError struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	RetryAfterSec int64  `json:"retry_after_sec"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteRetryable(w http.ResponseWriter, status int, payload RetryableError) {
	if payload.RetryAfterSec > 0 {
		w.Header().Set("Retry-After", strconv.FormatInt(payload.RetryAfterSec, 10))
	}
	Write(w, status, payload)
}
