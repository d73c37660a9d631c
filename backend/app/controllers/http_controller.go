package controllers

import "net/http"

type HTTPController struct{}

func NewHTTPController() *HTTPController {
	return &HTTPController{}
}

// Ping answers liveness probes.
func (c *HTTPController) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}
