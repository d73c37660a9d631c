package controllers

import (
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"apnaghar/backend/app/services"
)

func badForm(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return err
	}
	return fmt.Errorf("%w: malformed form: %v", services.ErrValidation, err)
}

// parseAvailable reads the availability checkbox. An unchecked box is not
// submitted at all, so missing means def.
func parseAvailable(r *http.Request, def bool) bool {
	v, ok := r.PostForm["available"]
	if !ok || len(v) == 0 {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v[0])) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

// roomInput reads the room fields from a parsed form. availableDefault is
// what a missing availability field means.
func roomInput(r *http.Request, availableDefault bool) (services.RoomInput, error) {
	in := services.RoomInput{
		City:      r.PostFormValue("city"),
		Area:      r.PostFormValue("area"),
		Available: parseAvailable(r, availableDefault),
	}
	raw := strings.TrimSpace(r.PostFormValue("rent"))
	if raw == "" {
		return in, fmt.Errorf("%w: rent is required", services.ErrValidation)
	}
	rent, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(rent) || math.IsInf(rent, 0) {
		return in, fmt.Errorf("%w: rent must be a number", services.ErrValidation)
	}
	in.Rent = rent
	return in, nil
}

// imageUpload opens the uploaded file in field. A missing file yields an
// empty upload, which the listing service rejects.
func imageUpload(r *http.Request, field string) (services.ImageUpload, func(), error) {
	if r.MultipartForm == nil {
		return services.ImageUpload{}, func() {}, nil
	}
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return services.ImageUpload{}, func() {}, nil
	}
	if err != nil {
		return services.ImageUpload{}, func() {}, badForm(err)
	}
	return services.ImageUpload{Filename: header.Filename, Size: header.Size, Body: file}, closer(file), nil
}

func closer(f multipart.File) func() { return func() { _ = f.Close() } }

func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 0)
	if err != nil || id == 0 {
		return 0, services.ErrNotFound
	}
	return uint(id), nil
}
