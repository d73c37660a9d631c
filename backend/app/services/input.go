package services

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
		return f.Name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

type RegisterInput struct {
	Username string `form:"username" validate:"notblank,max=100"`
	// bcrypt only looks at the first 72 bytes
	Password string `form:"password" validate:"required,max=72"`
	Role     string `form:"role" validate:"required,oneof=student owner"`
}

type RoomInput struct {
	City      string  `form:"city" validate:"notblank,max=100"`
	Area      string  `form:"area" validate:"notblank,max=100"`
	Rent      float64 `form:"rent" validate:"gte=0"`
	Available bool    `form:"available"`
}

func (in *RoomInput) normalize() {
	in.City = strings.TrimSpace(in.City)
	in.Area = strings.TrimSpace(in.Area)
}

// ImageUpload is one uploaded photo. Size is the declared payload length.
type ImageUpload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

func (u ImageUpload) empty() bool { return u.Body == nil || u.Size <= 0 }

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fe.Field() + " is invalid"
	}
}
