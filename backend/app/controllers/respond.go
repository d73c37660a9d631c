package controllers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"apnaghar/backend/app/dto"
	"apnaghar/backend/app/middleware"
	"apnaghar/backend/app/services"
	"apnaghar/backend/app/views"
	"apnaghar/backend/global"
)

const flashCookie = "apnaghar_flash"

// Pages renders HTML responses and carries flash messages across redirects.
type Pages struct {
	Views *views.Renderer
	// Secure marks cookies as HTTPS-only.
	Secure bool
}

// wantsJSON reports whether the client asked for JSON instead of HTML.
func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

// statusFor maps a service error to its HTTP status and client message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, services.ErrUpload):
		return http.StatusBadGateway, err.Error()
	default:
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return http.StatusRequestEntityTooLarge, "upload too large"
		}
		return http.StatusInternalServerError, "internal error"
	}
}

// flashFor phrases err for a flash message.
func flashFor(err error) string {
	switch {
	case errors.Is(err, services.ErrUpload):
		return "Image upload failed: " + strings.TrimPrefix(err.Error(), services.ErrUpload.Error()+": ")
	case errors.Is(err, services.ErrValidation):
		return "Invalid input: " + strings.TrimPrefix(err.Error(), services.ErrValidation.Error()+": ")
	case errors.Is(err, services.ErrConflict):
		return "Username already taken!"
	}
	_, msg := statusFor(err)
	if msg == "" {
		return "Something went wrong."
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}

func (p *Pages) render(w http.ResponseWriter, r *http.Request, status int, page string, data views.Page) {
	if data.User == nil {
		data.User = middleware.GetIdentity(r.Context())
	}
	data.Flash = append(p.takeFlash(w, r), data.Flash...)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := p.Views.Render(w, page, data); err != nil {
		global.Logger.Error().Err(err).Str("page", page).Msg("render failed")
	}
}

// redirect answers a form post with 303 and queues msg for the next page.
func (p *Pages) redirect(w http.ResponseWriter, r *http.Request, to, msg string) {
	if msg != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     flashCookie,
			Value:    base64.RawURLEncoding.EncodeToString([]byte(msg)),
			Path:     "/",
			HttpOnly: true,
			Secure:   p.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (p *Pages) takeFlash(w http.ResponseWriter, r *http.Request) []string {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})
	b, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil || len(b) == 0 || !utf8.Valid(b) {
		return nil
	}
	return []string{string(b)}
}

// fail answers err in the client's representation. HTML clients are sent
// back to the form at back with a flash message, or shown an error page.
func (p *Pages) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		global.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	if wantsJSON(r) {
		writeJSONError(w, status, msg)
		return
	}
	switch status {
	case http.StatusNotFound, http.StatusInternalServerError, http.StatusRequestEntityTooLarge:
		p.render(w, r, status, "error.html", views.Page{Title: http.StatusText(status), Status: status, Error: flashFor(err)})
	default:
		p.redirect(w, r, back, flashFor(err))
	}
}

// deny handles authentication and authorization failures: JSON clients get
// the status, HTML clients are redirected with msg.
func (p *Pages) deny(w http.ResponseWriter, r *http.Request, err error, to, msg string) {
	if wantsJSON(r) {
		status, text := statusFor(err)
		writeJSONError(w, status, text)
		return
	}
	p.redirect(w, r, to, msg)
}

// Unauthenticated is the rejection used by routes that require a session.
func (p *Pages) Unauthenticated(w http.ResponseWriter, r *http.Request) {
	p.deny(w, r, services.ErrUnauthenticated, "/login", "Please login first.")
}
