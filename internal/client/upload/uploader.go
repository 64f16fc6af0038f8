// Package upload stores post images in object storage through an ordered
// list of strategies. Hosted storage gateways are picky about request
// packaging depending on the client platform, so the chain tries each
// packaging in turn: first success wins, and only after every strategy fails
// is one aggregated error reported.
package upload

import (
	"context"
	"errors"
	"fmt"

	"github.com/framezapp/framez/internal/logging"
)

// Request describes one object to store.
type Request struct {
	Bucket      string
	Path        string
	Data        []byte
	ContentType string
}

// Strategy is one way of packaging an object upload. Upload returns the
// public URL of the stored object.
type Strategy interface {
	Name() string
	Upload(ctx context.Context, req Request) (string, error)
}

// Uploader tries strategies in order.
type Uploader struct {
	strategies []Strategy
	log        logging.Logger
}

func NewUploader(log logging.Logger, strategies ...Strategy) *Uploader {
	return &Uploader{strategies: strategies, log: log}
}

// Upload runs the chain. Each failure is logged and collected; the returned
// error joins every strategy's failure so nothing is hidden from the report.
func (u *Uploader) Upload(ctx context.Context, req Request) (string, error) {
	if len(u.strategies) == 0 {
		return "", errors.New("no upload strategies configured")
	}

	var failures []error
	for _, s := range u.strategies {
		url, err := s.Upload(ctx, req)
		if err == nil {
			u.log.Debug(ctx, "upload succeeded", "strategy", s.Name(), "path", req.Path)
			return url, nil
		}
		u.log.Warn(ctx, "upload strategy failed, falling through", "strategy", s.Name(), "error", err)
		failures = append(failures, fmt.Errorf("%s: %w", s.Name(), err))
	}
	return "", fmt.Errorf("all upload strategies failed: %w", errors.Join(failures...))
}
