package deeplink

import (
	"context"
	"io"

	"github.com/pkg/browser"
)

func init() {
	// Handler output (xdg-open, open) is not ours to print.
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

// SystemOpener hands URIs to the OS handler (open, xdg-open, rundll32).
type SystemOpener struct {
	open func(string) error
}

func NewSystemOpener() *SystemOpener {
	return &SystemOpener{open: browser.OpenURL}
}

func (o *SystemOpener) Open(ctx context.Context, uri string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return o.open(uri)
}
