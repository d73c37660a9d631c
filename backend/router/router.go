package router

import (
	"net/http"

	"apnaghar/backend/app/controllers"
	"apnaghar/backend/app/middleware"

	"github.com/klauspost/compress/gzhttp"
)

// Handlers groups everything the router mounts. Metrics and Uploads are
// optional.
type Handlers struct {
	HTTP     *controllers.HTTPController
	Auth     *controllers.AuthController
	Listings *controllers.ListingController
	Events   http.Handler
	Metrics  http.Handler
	Uploads  http.Handler
}

// NewRouter mounts every route. Page routes see the caller's identity and
// are gzip-compressed; the event stream is not, so frames reach clients
// as soon as they are flushed. limiter guards login and registration.
func NewRouter(h Handlers, mw *middleware.Auth, limiter *middleware.ClientLimiter) http.Handler {
	mux := http.NewServeMux()

	page := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, middleware.WithRoute(pattern, gzhttp.GzipHandler(mw.Identify(fn))))
	}
	limited := func(pattern string, fn http.HandlerFunc) {
		var next http.Handler = fn
		if limiter != nil {
			next = middleware.RateLimit(limiter, next)
		}
		mux.Handle(pattern, middleware.WithRoute(pattern, gzhttp.GzipHandler(mw.Identify(next))))
	}

	// listings
	page("GET /{$}", h.Listings.Home)
	page("GET /search", h.Listings.Search)
	page("GET /add_room", h.Listings.AddRoomForm)
	page("POST /add_room", h.Listings.AddRoom)
	page("GET /edit_room/{id}", h.Listings.EditRoomForm)
	page("POST /edit_room/{id}", h.Listings.EditRoom)
	page("GET /delete_room/{id}", h.Listings.DeleteRoom)
	page("POST /delete_room/{id}", h.Listings.DeleteRoom)
	mux.Handle("GET /my_rooms", middleware.WithRoute("GET /my_rooms",
		gzhttp.GzipHandler(mw.RequireAuth(http.HandlerFunc(h.Listings.MyRooms)))))

	// accounts
	page("GET /register", h.Auth.RegisterForm)
	limited("POST /register", h.Auth.Register)
	page("GET /login", h.Auth.LoginForm)
	limited("POST /login", h.Auth.Login)
	page("GET /logout", h.Auth.Logout)
	page("POST /logout", h.Auth.Logout)

	// infrastructure
	mux.Handle("GET /healthz", middleware.WithRoute("GET /healthz", http.HandlerFunc(h.HTTP.Ping)))
	mux.Handle("GET /events", middleware.WithRoute("GET /events", h.Events))
	if h.Metrics != nil {
		mux.Handle("GET /metrics", middleware.WithRoute("GET /metrics", h.Metrics))
	}
	if h.Uploads != nil {
		mux.Handle("GET /uploads/", middleware.WithRoute("GET /uploads/", http.StripPrefix("/uploads/", h.Uploads)))
	}

	return mux
}
