package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// writeJSON writes v as a JSON response
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// readJSON decodes the request body into v
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// ownerFrom resolves the owner from the "owner" query parameter, falling
// back to the configured default
func ownerFrom(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("owner")
	if raw == "" {
		return fallback
	}
	owner, err := strconv.Atoi(raw)
	if err != nil || owner <= 0 {
		return fallback
	}
	return owner
}

// boolParam resolves a boolean query parameter, falling back when absent
// or unparseable
func boolParam(r *http.Request, name string, fallback bool) bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
