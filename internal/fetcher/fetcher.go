// Package fetcher loads workbook bytes from a local path or an http(s) URL.
package fetcher

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrTooLarge is returned when a workbook exceeds Options.MaxBytes.
var ErrTooLarge = eris.New("fetcher: workbook too large")

// Options configures the fetcher. Zero values take the defaults applied by New.
type Options struct {
	UserAgent   string
	Timeout     time.Duration
	MaxRetries  int
	MaxBytes    int64
	BaseBackoff time.Duration
}

// IsURL reports whether location should be downloaded rather than read from disk.
func IsURL(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Fetch returns the bytes at location, downloading it when it is an http(s) URL.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if IsURL(location) {
		return f.download(ctx, location)
	}

	file, err := os.Open(location)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: open file")
	}
	defer file.Close() //nolint:errcheck

	return f.readLimited(file)
}

// readLimited reads at most MaxBytes and fails with ErrTooLarge beyond that.
func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, f.opts.MaxBytes+1))
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: read")
	}
	if int64(len(b)) > f.opts.MaxBytes {
		return nil, eris.Wrapf(ErrTooLarge, "limit %d bytes", f.opts.MaxBytes)
	}
	return b, nil
}
