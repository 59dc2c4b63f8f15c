// Package provider implements the HTTP transfer layer shared by all external
// data providers: per-provider rate limiting, a circuit breaker around the
// provider endpoint, bounded retries with exponential backoff for transient
// failures, and checksum verification for downloaded files.
package provider

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// Fetcher performs rate-limited, retrying HTTP transfers against a single provider.
type Fetcher struct {
	name       string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	maxRetries int
	authorize  func(*http.Request)
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher for the named provider. The rate limit applies
// to request starts; maxRetries bounds retry attempts for transient failures.
func NewFetcher(name string, timeout time.Duration, ratePerSecond float64, maxRetries int) *Fetcher {
	// Cookie jar is required for Earthdata URS logins: the data host redirects
	// to the authorization server and back, handing out a session cookie.
	jar, _ := cookiejar.New(nil)

	f := &Fetcher{
		name: name,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:    rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		maxRetries: maxRetries,
		logger:     slog.Default(),
	}

	f.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    name,
		Timeout: 2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.logger.Warn("provider circuit breaker state change",
				slog.String("provider", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	// Go drops the Authorization header when a redirect leaves the original
	// host, which breaks the URS round-trip. Re-apply it on every hop; the
	// session cookie takes over once the login has succeeded.
	f.httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return errors.New("stopped after 10 redirects")
		}
		if f.authorize != nil {
			f.authorize(req)
		}
		return nil
	}

	return f
}

// WithLogger sets a custom logger for the fetcher.
func (f *Fetcher) WithLogger(logger *slog.Logger) *Fetcher {
	f.logger = logger
	return f
}

// WithBasicAuth attaches HTTP basic credentials to every request.
func (f *Fetcher) WithBasicAuth(username, password string) *Fetcher {
	f.authorize = func(req *http.Request) {
		req.SetBasicAuth(username, password)
	}
	return f
}

// WithBearerToken attaches a bearer token to every request.
func (f *Fetcher) WithBearerToken(token string) *Fetcher {
	f.authorize = func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return f
}

// Get retrieves a small payload (catalog listings, JSON metadata) into memory.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	err := f.retry(ctx, func() error {
		resp, err := f.do(ctx, url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Download streams the resource at url to destDir, named after the final URL
// path element, and returns the local path.
func (f *Fetcher) Download(ctx context.Context, url, destDir string) (string, error) {
	return f.DownloadVerified(ctx, url, destDir, "")
}

// DownloadVerified downloads like Download and additionally verifies the file
// against the expected MD5 checksum. A mismatch discards the file and is
// retried within the same bounded budget before surfacing ErrIntegrity.
func (f *Fetcher) DownloadVerified(ctx context.Context, url, destDir, md5sum string) (string, error) {
	dest := filepath.Join(destDir, filepath.Base(url))
	if err := f.downloadTo(ctx, url, dest, md5sum); err != nil {
		return "", err
	}
	return dest, nil
}

// DownloadAs streams the resource at url to the exact destination path, for
// providers whose download URLs do not carry the file name.
func (f *Fetcher) DownloadAs(ctx context.Context, url, dest string) error {
	return f.downloadTo(ctx, url, dest, "")
}

func (f *Fetcher) downloadTo(ctx context.Context, url, dest, md5sum string) error {
	err := f.retry(ctx, func() error {
		resp, err := f.do(ctx, url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := writeFile(dest, resp.Body); err != nil {
			return fmt.Errorf("failed to write %s: %w", dest, err)
		}

		if md5sum == "" {
			return nil
		}

		sum, err := fileMD5(dest)
		if err != nil {
			return fmt.Errorf("failed to checksum %s: %w", dest, err)
		}
		if sum != md5sum {
			os.Remove(dest)
			f.logger.WarnContext(ctx, "checksum mismatch, discarding download",
				slog.String("provider", f.name),
				slog.String("url", url),
				slog.String("expected", md5sum),
				slog.String("actual", sum),
			)
			return fmt.Errorf("%w: got %s, want %s", ErrIntegrity, sum, md5sum)
		}
		return nil
	})
	if err != nil {
		return err
	}

	f.logger.DebugContext(ctx, "download complete",
		slog.String("provider", f.name),
		slog.String("path", dest),
	)
	return nil
}

// do executes one rate-limited request through the circuit breaker and maps
// HTTP status codes onto the error taxonomy. Credential and not-found errors
// are permanent; everything else is eligible for retry.
func (f *Fetcher) do(ctx context.Context, url string) (*http.Response, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, backoff.Permanent(err)
	}

	resp, err := f.breaker.Execute(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("User-Agent", "insar-pipeline/1.0")
		if f.authorize != nil {
			f.authorize(req)
		}

		resp, err := f.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request to %s failed: %w", f.name, err)
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			resp.Body.Close()
			return nil, backoff.Permanent(fmt.Errorf("%w: %s returned status %d", ErrCredential, f.name, resp.StatusCode))
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrNotFound, url))
		case resp.StatusCode != http.StatusOK:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return nil, fmt.Errorf("%s returned status %d: %s", f.name, resp.StatusCode, string(body))
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, backoff.Permanent(fmt.Errorf("%w: %s circuit open", ErrUnavailable, f.name))
		}
		return nil, err
	}
	return resp, nil
}

// retry runs op with exponential backoff, bounded by the fetcher's retry budget.
func (f *Fetcher) retry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 30 * time.Second

	attempt := 0
	err := backoff.Retry(func() error {
		err := op()
		if err != nil {
			attempt++
			var perm *backoff.PermanentError
			if !errors.As(err, &perm) {
				f.logger.WarnContext(ctx, "transient failure, will retry",
					slog.String("provider", f.name),
					slog.Int("attempt", attempt),
					slog.String("error", err.Error()),
				)
			}
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(f.maxRetries)), ctx))
	return err
}

func writeFile(dest string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}

func fileMD5(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h := md5.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
