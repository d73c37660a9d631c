package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"apnaghar/backend/app/dto"
	"apnaghar/backend/app/middleware"
	"apnaghar/backend/app/models"
	"apnaghar/backend/app/services"
	"apnaghar/backend/app/views"
)

// multipart parts beyond this stay on disk until the request ends
const multipartMemory = 8 << 20

type ListingController struct {
	Listings       *services.ListingService
	Pages          *Pages
	MaxUploadBytes int64
}

func NewListingController(listings *services.ListingService, pages *Pages, maxUploadBytes int64) *ListingController {
	return &ListingController{Listings: listings, Pages: pages, MaxUploadBytes: maxUploadBytes}
}

func (c *ListingController) Home(w http.ResponseWriter, r *http.Request) {
	rooms, err := c.Listings.ListAvailable(r.Context())
	if err != nil {
		c.Pages.fail(w, r, err, "/")
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, dto.RoomList(rooms))
		return
	}
	c.Pages.render(w, r, http.StatusOK, "index.html", views.Page{Rooms: rooms})
}

func (c *ListingController) Search(w http.ResponseWriter, r *http.Request) {
	city, area := r.URL.Query().Get("city"), r.URL.Query().Get("area")
	rooms, err := c.Listings.Search(r.Context(), city, area)
	if err != nil {
		c.Pages.fail(w, r, err, "/")
		return
	}
	if wantsJSON(r) {
		res := dto.RoomList(rooms)
		res.City, res.Area = city, area
		writeJSON(w, http.StatusOK, res)
		return
	}
	c.Pages.render(w, r, http.StatusOK, "index.html", views.Page{Title: "Search", Rooms: rooms, City: city, Area: area})
}

func (c *ListingController) MyRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := c.Listings.ListByOwner(r.Context(), middleware.GetIdentity(r.Context()))
	if services.IsAuthError(err) {
		c.Pages.deny(w, r, err, "/", "Only owners have rooms to manage.")
		return
	}
	if err != nil {
		c.Pages.fail(w, r, err, "/")
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, dto.RoomList(rooms))
		return
	}
	c.Pages.render(w, r, http.StatusOK, "my_rooms.html", views.Page{Title: "My rooms", Rooms: rooms})
}

func (c *ListingController) AddRoomForm(w http.ResponseWriter, r *http.Request) {
	if _, err := services.RequireRole(middleware.GetIdentity(r.Context()), models.RoleOwner); err != nil {
		c.Pages.deny(w, r, err, "/login", "Only owners can add rooms.")
		return
	}
	c.Pages.render(w, r, http.StatusOK, "add_room.html", views.Page{Title: "Add room"})
}

func (c *ListingController) AddRoom(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())
	// reject before reading a possibly large body
	if _, err := services.RequireRole(ident, models.RoleOwner); err != nil {
		c.Pages.deny(w, r, err, "/login", "Only owners can add rooms.")
		return
	}
	if c.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, c.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			c.Pages.fail(w, r, badForm(err), "/add_room")
			return
		}
		if err := r.ParseForm(); err != nil {
			c.Pages.fail(w, r, badForm(err), "/add_room")
			return
		}
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	in, err := roomInput(r, true)
	if err != nil {
		c.Pages.fail(w, r, err, "/add_room")
		return
	}
	roomImg, closeRoom, err := imageUpload(r, "room_image")
	if err != nil {
		c.Pages.fail(w, r, err, "/add_room")
		return
	}
	defer closeRoom()
	washImg, closeWash, err := imageUpload(r, "washroom_image")
	if err != nil {
		c.Pages.fail(w, r, err, "/add_room")
		return
	}
	defer closeWash()

	room, err := c.Listings.AddRoom(r.Context(), ident, in, roomImg, washImg)
	if services.IsAuthError(err) {
		c.Pages.deny(w, r, err, "/login", "Only owners can add rooms.")
		return
	}
	if err != nil {
		c.Pages.fail(w, r, err, "/add_room")
		return
	}
	if wantsJSON(r) {
		res := dto.RoomFrom(*room)
		writeJSON(w, http.StatusCreated, dto.RoomMutationResponse{Message: "Room added successfully!", Room: &res})
		return
	}
	c.Pages.redirect(w, r, "/", "Room added successfully!")
}

func (c *ListingController) EditRoomForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		c.Pages.fail(w, r, err, "/")
		return
	}
	room, err := c.Listings.GetOwnedRoom(r.Context(), middleware.GetIdentity(r.Context()), id)
	if services.IsAuthError(err) {
		c.Pages.deny(w, r, err, "/", "Unauthorized access!")
		return
	}
	if err != nil {
		c.Pages.fail(w, r, err, "/")
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, dto.RoomFrom(*room))
		return
	}
	c.Pages.render(w, r, http.StatusOK, "edit_room.html", views.Page{Title: "Edit room", Room: room})
}

func (c *ListingController) EditRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		c.Pages.fail(w, r, err, "/")
		return
	}
	ident := middleware.GetIdentity(r.Context())
	// ownership is settled before the form is looked at
	if _, err := c.Listings.GetOwnedRoom(r.Context(), ident, id); err != nil {
		if services.IsAuthError(err) {
			c.Pages.deny(w, r, err, "/", "Unauthorized access!")
			return
		}
		c.Pages.fail(w, r, err, "/")
		return
	}
	back := "/edit_room/" + strconv.FormatUint(uint64(id), 10)
	if err := r.ParseForm(); err != nil {
		c.Pages.fail(w, r, badForm(err), back)
		return
	}
	in, err := roomInput(r, false)
	if err != nil {
		c.Pages.fail(w, r, err, back)
		return
	}
	room, err := c.Listings.EditRoom(r.Context(), ident, id, in)
	if services.IsAuthError(err) {
		c.Pages.deny(w, r, err, "/", "Unauthorized access!")
		return
	}
	if err != nil {
		c.Pages.fail(w, r, err, back)
		return
	}
	if wantsJSON(r) {
		res := dto.RoomFrom(*room)
		writeJSON(w, http.StatusOK, dto.RoomMutationResponse{Message: "Room updated successfully!", Room: &res})
		return
	}
	c.Pages.redirect(w, r, "/", "Room updated successfully!")
}

func (c *ListingController) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		c.Pages.fail(w, r, err, "/")
		return
	}
	err = c.Listings.DeleteRoom(r.Context(), middleware.GetIdentity(r.Context()), id)
	if services.IsAuthError(err) {
		c.Pages.deny(w, r, err, "/", "Unauthorized access!")
		return
	}
	if err != nil {
		c.Pages.fail(w, r, err, "/")
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Room deleted successfully!"})
		return
	}
	c.Pages.redirect(w, r, "/", "Room deleted successfully!")
}
