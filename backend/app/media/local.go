package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Local writes uploads into a directory. Ref and Key are both the stored
// filename, relative to Dir.
type Local struct {
	Dir string
}

func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Local{Dir: dir}, nil
}

func (l *Local) Store(ctx context.Context, r io.Reader, filenameHint string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	name := uuid.NewString() + "_" + SecureFilename(filenameHint)
	finalPath := filepath.Join(l.Dir, name)
	tempPath := finalPath + ".part"

	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Object{}, fmt.Errorf("create media file: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n == 0 {
		err = ErrEmpty
	}
	if err != nil {
		_ = os.Remove(tempPath)
		return Object{}, fmt.Errorf("write media file: %w", err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		_ = os.Remove(tempPath)
		return Object{}, fmt.Errorf("finalize media file: %w", err)
	}
	return Object{Ref: name, Key: name}, nil
}

func (l *Local) Remove(ctx context.Context, key string) error {
	name := filepath.Base(key)
	if name == "." || name == string(filepath.Separator) || name != key {
		return fmt.Errorf("invalid media key %q", key)
	}
	err := os.Remove(filepath.Join(l.Dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SecureFilename reduces a client supplied name to a safe basename made of
// ASCII letters, digits, '_', '.' and '-'. It never returns an empty string.
func SecureFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	if name == "" {
		return "upload"
	}
	return name
}
