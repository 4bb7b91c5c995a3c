package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// WriteJSON encodes v before touching the response so an encoding failure
// can still become a clean 500.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}

// problem mirrors the lab API's error body so scripts talking to both the
// API and the portal parse failures the same way.
type problem struct {
	Detail string `json:"detail"`
}

// writeDetail writes a {"detail": ...} error body.
func writeDetail(w http.ResponseWriter, code int, detail string) {
	WriteJSON(w, code, problem{Detail: detail})
}
