// Package media stores uploaded listing photos and hands back the reference
// that is saved on the room record.
package media

import (
	"context"
	"errors"
	"io"
)

var ErrEmpty = errors.New("media: empty payload")

// Object is the result of a successful Store. Ref is persisted on the room
// and rendered as-is; Key is what Remove needs to delete the object again.
type Object struct {
	Ref string
	Key string
}

type Store interface {
	Store(ctx context.Context, r io.Reader, filenameHint string) (Object, error)
	Remove(ctx context.Context, key string) error
}
