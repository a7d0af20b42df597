package extract

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/stackforge/typesync/errors"
	"github.com/stackforge/typesync/schema"
)

// retryBackoff is the delay between extraction attempts.
const retryBackoff = 500 * time.Millisecond

// HTTPSource fetches the OpenAPI document from a running backend over HTTP.
type HTTPSource struct {
	baseURL    string
	schemaPath string
	client     *http.Client
	log        *zap.SugaredLogger
}

// NewHTTPSource creates a source fetching baseURL+schemaPath.
func NewHTTPSource(baseURL, schemaPath string, log *zap.SugaredLogger) *HTTPSource {
	return &HTTPSource{
		baseURL:    baseURL,
		schemaPath: schemaPath,
		client:     &http.Client{},
		log:        log,
	}
}

// Extract fetches the schema with bounded retries. On success the raw
// document is also written to opts.OutputPath so later cycles can fall back
// to it.
func (s *HTTPSource) Extract(ctx context.Context, opts Options) (*Outcome, error) {
	start := time.Now()

	var startupTime time.Duration
	if opts.HealthCheckPath != "" {
		healthStart := time.Now()
		if err := s.waitHealthy(ctx, opts); err != nil {
			return nil, errors.Wrap(errors.WithSecondary(errors.ErrExtractionFailed, err), "backend health check failed")
		}
		startupTime = time.Since(healthStart)
	}

	var lastErr error
	attempts := opts.Retries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), "extraction cancelled")
			case <-time.After(retryBackoff):
			}
			s.log.Debugw("Retrying schema extraction",
				"attempt", attempt+1,
				"attempts", attempts)
		}

		data, err := s.fetch(ctx, s.baseURL+s.schemaPath, opts.Timeout)
		if err != nil {
			lastErr = err
			continue
		}

		doc, err := schema.ParseDocument(data)
		if err != nil {
			lastErr = err
			continue
		}

		if opts.OutputPath != "" {
			if err := writeSnapshot(opts.OutputPath, data); err != nil {
				// Snapshot only matters for future fallbacks; don't fail
				// the extraction over it.
				s.log.Warnw("Failed to write schema snapshot",
					"path", opts.OutputPath,
					"error", err)
			}
		}

		return &Outcome{
			Doc:               doc,
			Origin:            OriginLive,
			ExtractionTime:    time.Since(start),
			ServerStartupTime: startupTime,
		}, nil
	}

	return nil, errors.Wrapf(errors.WithSecondary(errors.ErrExtractionFailed, lastErr),
		"schema unavailable after %d attempts", attempts)
}

// waitHealthy probes the health endpoint until it answers 2xx, the context
// is cancelled, or the attempt budget is spent.
func (s *HTTPSource) waitHealthy(ctx context.Context, opts Options) error {
	attempts := opts.Retries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff):
			}
		}

		_, err := s.fetch(ctx, s.baseURL+opts.HealthCheckPath, opts.Timeout)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// fetch performs one bounded GET.
func (s *HTTPSource) fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "request to %s failed", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Newf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}

// writeSnapshot persists the raw schema bytes for fallback use.
func writeSnapshot(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadSnapshot reads the last persisted schema snapshot.
func LoadSnapshot(path string) (schema.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "no schema snapshot at %s", path)
	}
	return schema.ParseDocument(data)
}
