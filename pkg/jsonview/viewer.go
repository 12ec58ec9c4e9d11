package jsonview

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// NoData is rendered in place of an empty value.
const NoData = "No data available"

// CopiedFor is how long the copied indicator stays on after a successful copy.
const CopiedFor = 2 * time.Second

// Viewer displays one value with an optional title and search term.
type Viewer struct {
	Title      string
	Data       any
	Expanded   bool
	SearchTerm string

	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	copiedAt time.Time
}

type Option func(*Viewer)

func WithLogger(logger *slog.Logger) Option {
	return func(v *Viewer) {
		v.logger = logger
	}
}

// WithClock replaces time.Now for the copied indicator.
func WithClock(now func() time.Time) Option {
	return func(v *Viewer) {
		v.now = now
	}
}

func NewViewer(title string, data any, opts ...Option) *Viewer {
	viewer := &Viewer{
		Title:    title,
		Data:     data,
		Expanded: true,
		logger:   slog.Default(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(viewer)
	}

	return viewer
}

// Render writes the title and the filtered data, or NoData when there is nothing to show.
// A collapsed viewer only writes its title.
func (v *Viewer) Render(w io.Writer) error {
	if v.Title != "" {
		if _, err := fmt.Fprintln(w, v.Title); err != nil {
			return err
		}
	}

	if IsEmpty(v.Data) {
		_, err := fmt.Fprintln(w, NoData)

		return err
	}

	if !v.Expanded {
		return nil
	}

	text, err := Indent(Filter(v.Data, v.SearchTerm))
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", v.Title, err)
	}

	_, err = fmt.Fprintln(w, text)

	return err
}

// Copy writes the unfiltered data to the clipboard. Failures are logged and leave the
// copied indicator as it was.
func (v *Viewer) Copy(ctx context.Context, clip Clipboard) bool {
	text, err := Indent(v.Data)
	if err != nil {
		v.logger.ErrorContext(ctx, "Failed to copy to clipboard", "error", err)

		return false
	}

	if err := clip.WriteAll(text); err != nil {
		v.logger.ErrorContext(ctx, "Failed to copy to clipboard", "error", err)

		return false
	}

	v.mu.Lock()
	v.copiedAt = v.now()
	v.mu.Unlock()

	return true
}

// Copied reports whether a copy succeeded within the last CopiedFor.
func (v *Viewer) Copied() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.copiedAt.IsZero() {
		return false
	}

	return v.now().Sub(v.copiedAt) < CopiedFor
}
