// Package loader reads raw sales data files.
//
// Files are decoded as UTF-8 when they are valid UTF-8 and as Latin-1
// otherwise, unless a specific encoding is configured. Blank lines are
// removed, every remaining line is trimmed and a leading header row is
// dropped.
//
// Example usage:
//
//	lines, err := loader.New().Load(ctx, "data/sales_data.txt")
//
//	// Force Windows-1252 decoding
//	lines, err := loader.New(loader.WithEncoding(loader.Windows1252)).Load(ctx, path)
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/robinvdvleuten/salesreport/logger"
	"github.com/robinvdvleuten/salesreport/sales"
	"github.com/robinvdvleuten/salesreport/telemetry"
	"golang.org/x/text/encoding/charmap"
)

// Encoding names a supported input encoding.
type Encoding string

const (
	// Auto uses UTF-8 when the data is valid UTF-8 and Latin-1 otherwise.
	Auto        Encoding = "auto"
	UTF8        Encoding = "utf-8"
	Latin1      Encoding = "latin-1"
	Windows1252 Encoding = "cp1252"
)

// ParseEncoding maps a configured encoding name onto an Encoding.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return Auto, nil
	case "utf-8", "utf8":
		return UTF8, nil
	case "latin-1", "latin1", "iso-8859-1":
		return Latin1, nil
	case "cp1252", "windows-1252":
		return Windows1252, nil
	}
	return "", fmt.Errorf("unsupported encoding %q", name)
}

// FileNotFoundError is returned when the input file does not exist.
type FileNotFoundError struct {
	Path string
	Err  error
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("sales data file not found: %s", e.Path)
}

func (e *FileNotFoundError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when the data is not valid in the configured
// encoding.
type DecodeError struct {
	Path     string
	Encoding Encoding
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unable to decode %s as %s", e.Path, e.Encoding)
}

// Loader reads sales data files.
//
// Configure the loader using functional options passed to New:
//
//	loader := New(WithEncoding(Latin1))
type Loader struct {
	Encoding Encoding
}

// Option configures how files are loaded.
type Option func(*Loader)

// WithEncoding decodes files with the given encoding instead of detecting it.
func WithEncoding(enc Encoding) Option {
	return func(l *Loader) {
		l.Encoding = enc
	}
}

// New creates a new Loader with the given options.
func New(opts ...Option) *Loader {
	l := &Loader{Encoding: Auto}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads filename and returns its data lines.
func (l *Loader) Load(ctx context.Context, filename string) ([]string, error) {
	_, timer := telemetry.StartTimer(ctx, "load "+filename)
	defer timer.End()

	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FileNotFoundError{Path: filename, Err: err}
		}
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	lines, err := l.decode(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	timer.Count(len(lines))
	return lines, nil
}

// Lines splits already loaded data the same way Load does. name is only
// used in error messages.
func (l *Loader) Lines(ctx context.Context, name string, data []byte) ([]string, error) {
	return l.decode(ctx, name, data)
}

func (l *Loader) decode(ctx context.Context, name string, data []byte) ([]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var text string
	switch l.Encoding {
	case UTF8:
		if !utf8.Valid(data) {
			return nil, &DecodeError{Path: name, Encoding: UTF8}
		}
		text = string(data)
	case Latin1:
		text = decodeWith(charmap.ISO8859_1, data)
	case Windows1252:
		text = decodeWith(charmap.Windows1252, data)
	default:
		if utf8.Valid(data) {
			text = string(data)
		} else {
			logger.FromContext(ctx).Debug().Str("file", name).Msg("input is not valid UTF-8, decoding as latin-1")
			text = decodeWith(charmap.ISO8859_1, data)
		}
	}

	return SplitLines(text), nil
}

// decodeWith decodes data with a single-byte charmap. Every byte maps to
// a rune, so decoding cannot fail.
func decodeWith(cm *charmap.Charmap, data []byte) string {
	out, err := cm.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(out)
}

// SplitLines removes blank lines, trims the rest and drops a leading header.
func SplitLines(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' })

	lines := make([]string, 0, len(raw))
	for _, ln := range raw {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}

	if len(lines) > 0 && strings.HasPrefix(strings.ToLower(lines[0]), strings.ToLower(sales.Header)) {
		lines = lines[1:]
	}
	return lines
}
