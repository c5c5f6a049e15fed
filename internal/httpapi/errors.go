package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// apiError is the envelope every handler-rejected request renders as. The
// status code rides along inside the JSON body as well as the HTTP status
// line, since API consumers that only read the body still need it.
type apiError struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, apiError{Error: fmt.Sprintf(format, args...), StatusCode: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
