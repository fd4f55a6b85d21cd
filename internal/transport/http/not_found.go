package http

import "net/http"

// NotFoundHandler keeps unknown paths on the same JSON error contract as
// every other endpoint.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
}
