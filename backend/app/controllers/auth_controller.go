package controllers

import (
	"errors"
	"net/http"
	"time"

	"apnaghar/backend/app/dto"
	"apnaghar/backend/app/middleware"
	"apnaghar/backend/app/services"
	"apnaghar/backend/app/views"
	"apnaghar/backend/global"
)

type AuthController struct {
	Users *services.AuthService
	Guard *middleware.Auth
	Pages *Pages
}

func NewAuthController(users *services.AuthService, guard *middleware.Auth, pages *Pages) *AuthController {
	return &AuthController{Users: users, Guard: guard, Pages: pages}
}

func (c *AuthController) RegisterForm(w http.ResponseWriter, r *http.Request) {
	c.Pages.render(w, r, http.StatusOK, "register.html", views.Page{Title: "Register"})
}

func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		c.Pages.fail(w, r, badForm(err), "/register")
		return
	}
	u, err := c.Users.Register(r.Context(), services.RegisterInput{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
		Role:     r.PostFormValue("role"),
	})
	if err != nil {
		c.Pages.fail(w, r, err, "/register")
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, dto.UserResponse{ID: u.ID, Username: u.Username, Role: u.Role})
		return
	}
	c.Pages.redirect(w, r, "/login", "Registration successful! Please login.")
}

func (c *AuthController) LoginForm(w http.ResponseWriter, r *http.Request) {
	c.Pages.render(w, r, http.StatusOK, "login.html", views.Page{Title: "Login"})
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		c.Pages.fail(w, r, badForm(err), "/login")
		return
	}
	username := r.PostFormValue("username")
	res, err := c.Users.Login(r.Context(), username, r.PostFormValue("password"))
	if errors.Is(err, services.ErrInvalidCredentials) && !wantsJSON(r) {
		c.Pages.render(w, r, http.StatusUnauthorized, "login.html", views.Page{
			Title: "Login",
			Flash: []string{"Invalid username or password!"},
			Form:  map[string]string{"username": username},
		})
		return
	}
	if err != nil {
		c.Pages.fail(w, r, err, "/login")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.Guard.CookieName,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.Expires,
		HttpOnly: true,
		Secure:   c.Pages.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, dto.TokenResponse{
			AccessToken: res.Token,
			TokenType:   "Bearer",
			ExpiresAt:   res.Expires,
			User:        dto.UserResponse{ID: res.Identity.UserID, Username: res.Identity.Username, Role: res.Identity.Role},
		})
		return
	}
	c.Pages.redirect(w, r, "/", "Login successful!")
}

// Logout always succeeds, whether or not a session was present. A store
// failure is logged; the cookie is cleared regardless.
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	if err := c.Users.Logout(r.Context(), c.Guard.Token(r)); err != nil {
		global.Logger.Warn().Err(err).Msg("logout: session not revoked")
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.Guard.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Pages.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Logged out successfully!"})
		return
	}
	c.Pages.redirect(w, r, "/", "Logged out successfully!")
}
