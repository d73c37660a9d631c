// Package views renders the HTML pages of the site.
package views

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"apnaghar/backend/app/models"
	"apnaghar/backend/app/session"
	"apnaghar/backend/global"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
)

//go:embed templates/*.html
var embedded embed.FS

const layout = "layout.html"

// Pages lists every page template besides the layout.
var Pages = []string{
	"index.html",
	"login.html",
	"register.html",
	"add_room.html",
	"edit_room.html",
	"my_rooms.html",
	"error.html",
}

// Page is the data every template receives.
type Page struct {
	Title  string
	Flash  []string
	User   *session.Identity
	Rooms  []models.Room
	Room   *models.Room
	City   string
	Area   string
	Status int
	Error  string
	// Form echoes submitted values back into a re-rendered form.
	Form map[string]string
}

// Renderer holds the parsed page set. It is safe for concurrent use and can
// swap the set while serving.
type Renderer struct {
	mu    sync.RWMutex
	pages map[string]*template.Template
	dir   string
}

// New parses the embedded templates, or the ones in dir when dir is set.
func New(dir string) (*Renderer, error) {
	r := &Renderer{dir: dir}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) source() (fs.FS, error) {
	if r.dir != "" {
		return os.DirFS(r.dir), nil
	}
	return fs.Sub(embedded, "templates")
}

// Reload parses the page set again. On error the previous set stays active.
func (r *Renderer) Reload() error {
	src, err := r.source()
	if err != nil {
		return err
	}
	pages := make(map[string]*template.Template, len(Pages))
	for _, name := range Pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(src, layout, name)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = t
	}
	r.mu.Lock()
	r.pages = pages
	r.mu.Unlock()
	return nil
}

// Render executes page into w. Output is buffered so a failing template
// never leaves a half-written response.
func (r *Renderer) Render(w io.Writer, page string, data Page) error {
	r.mu.RLock()
	t, ok := r.pages[page]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// Watch reloads the templates whenever a file in the template directory
// changes, until ctx is done. It needs a directory to watch.
func (r *Renderer) Watch(ctx context.Context) error {
	if r.dir == "" {
		return fmt.Errorf("watch: no template directory configured")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(r.dir); err != nil {
		_ = w.Close()
		return err
	}
	go func() {
		defer w.Close()
		// editors emit bursts of events for one save
		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Ext(ev.Name) != ".html" {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
					pending = time.After(100 * time.Millisecond)
				}
			case <-pending:
				pending = nil
				if err := r.Reload(); err != nil {
					global.Logger.Error().Err(err).Msg("template reload failed")
					continue
				}
				global.Logger.Info().Str("dir", r.dir).Msg("templates reloaded")
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				global.Logger.Warn().Err(err).Msg("template watcher")
			}
		}
	}()
	return nil
}

var funcs = template.FuncMap{
	"rent":     FormatRent,
	"mediaURL": MediaURL,
	"ago":      func(t time.Time) string { return humanize.Time(t) },
}

// FormatRent renders a monthly rent like "₹12,000" or "₹9,999.50".
func FormatRent(v float64) string {
	return "₹" + humanize.CommafWithDigits(v, 2)
}

// MediaURL turns a stored image reference into a link. Absolute URLs come
// from a hosted media service; anything else is a local upload.
func MediaURL(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return "/uploads/" + ref
}
