package handler

import "net/http"

// Health is exempt from auth and rate limiting so probes always get
// through.
func Health(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
