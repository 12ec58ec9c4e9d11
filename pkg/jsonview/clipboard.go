package jsonview

import (
	"errors"

	"github.com/atotto/clipboard"
)

var ErrClipboardUnsupported = errors.New("clipboard is not available on this system")

// Clipboard receives copied text.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the operating system clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnsupported
	}

	return clipboard.WriteAll(text)
}
