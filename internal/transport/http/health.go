package http

import "net/http"

// HealthHandler answers liveness probes. It touches nothing downstream: a
// healthy process responds even while the database is unreachable.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
