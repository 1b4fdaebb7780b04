package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ButyrinIA/postboard/internal/filter"
)

// ErrBusy is returned while another export is still running.
var ErrBusy = errors.New("export already in progress")

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	// FormatXLS - устаревшее имя, бэкенд отдает тот же xlsx
	FormatXLS Format = "xls"
)

var Formats = []Format{FormatJSON, FormatCSV, FormatXLSX}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatXLSX, FormatXLS:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Extension of the downloaded file. Both spreadsheet names map to xlsx.
func (f Format) Extension() string {
	if f == FormatXLS || f == FormatXLSX {
		return "xlsx"
	}
	return string(f)
}

// Filename is posts_export_<YYYY-MM-DD>.<ext>.
func Filename(f Format, now time.Time) string {
	return "posts_export_" + now.UTC().Format("2006-01-02") + "." + f.Extension()
}

// Source streams an export from the backend.
type Source interface {
	Export(ctx context.Context, criteria filter.Criteria, format string) (io.ReadCloser, error)
}

type Exporter struct {
	src  Source
	dir  string
	now  func() time.Time
	busy atomic.Bool
}

type Option func(*Exporter)

func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

func New(src Source, dir string, opts ...Option) *Exporter {
	e := &Exporter{src: src, dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Busy reports whether an export is running. The UI disables its export
// actions while it is true.
func (e *Exporter) Busy() bool { return e.busy.Load() }

// Export downloads the posts matching criteria in format and returns the
// path of the saved file. Pagination is never sent. A second call while one
// is in flight fails with ErrBusy without touching the network.
func (e *Exporter) Export(ctx context.Context, criteria filter.Criteria, format Format) (string, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer e.busy.Store(false)

	body, err := e.src.Export(ctx, criteria, string(format))
	if err != nil {
		return "", fmt.Errorf("export %s: %w", format, err)
	}
	defer body.Close()

	path := filepath.Join(e.dir, Filename(format, e.now()))
	if err := save(body, path); err != nil {
		return "", fmt.Errorf("export %s: %w", format, err)
	}

	slog.Info("export saved", "format", format, "path", path)
	return path, nil
}

// save пишет во временный файл рядом с целевым и переименовывает его.
// Недокачанный файл не остается на диске.
func save(r io.Reader, path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".posts_export_*.part")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save file: %w", err)
	}
	return nil
}
