package orbit

import (
	"context"
	"time"
)

// Source resolves orbit files from a single provider. Implementations
// return provider.ErrNotFound when the provider holds no file of the
// requested type covering the window, and provider.ErrCredential when the
// provider rejects the caller's identity.
type Source interface {
	Name() string
	Find(ctx context.Context, platform string, typ Type, start, stop time.Time) (*File, error)
	Fetch(ctx context.Context, f *File, destDir string) (string, error)
}
