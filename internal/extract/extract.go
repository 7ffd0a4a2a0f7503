package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"soundcatalog/internal/features"
)

// ErrExtractionFailed reports that the collaborator could not analyze a file.
var ErrExtractionFailed = errors.New("extraction failed")

// Extractor turns an audio file into a feature vector.
type Extractor interface {
	Extract(ctx context.Context, path string) (features.Vector, error)
}

// Func adapts a function to the Extractor interface.
type Func func(ctx context.Context, path string) (features.Vector, error)

// Extract calls f.
func (f Func) Extract(ctx context.Context, path string) (features.Vector, error) {
	return f(ctx, path)
}

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if len(detail) > 512 {
			detail = detail[len(detail)-512:]
		}
		return nil, fmt.Errorf("%s: %w: %s", name, err, detail)
	}
	return stdout.Bytes(), nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

type limited struct {
	next    Extractor
	limiter *rate.Limiter
}

// NewLimited paces calls to next at perSecond with a burst of one. A
// non-positive rate returns next unchanged.
func NewLimited(next Extractor, perSecond float64) Extractor {
	if perSecond <= 0 {
		return next
	}
	return &limited{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

func (l *limited) Extract(ctx context.Context, path string) (features.Vector, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return features.Vector{}, fmt.Errorf("%w: %s: %w", ErrExtractionFailed, path, err)
	}
	return l.next.Extract(ctx, path)
}
