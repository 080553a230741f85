package classifier

import (
	"context"

	"go.uber.org/zap"
)

// resilient wraps a primary classifier with a fallback so that Classify
// never fails.
type resilient struct {
	primary  Classifier
	fallback Classifier
	logger   *zap.Logger
}

// WithFallback returns a Classifier that tries the primary implementation
// and, on any error, resolves the call through the fallback instead. The
// returned classifier never fails as long as the fallback honors its
// contract of always returning a complete result.
//
// External-dependency failure is recovered here, not retried: the primary
// call is treated as bounded and fallible, and the degraded path is logged.
//
// Parameters:
//   - primary: The preferred (typically remote-backed) classifier
//   - fallbackImpl: The deterministic local classifier
//   - logger: Logger for degraded-path events (nil means no-op logger)
func WithFallback(primary, fallbackImpl Classifier, logger *zap.Logger) Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &resilient{
		primary:  primary,
		fallback: fallbackImpl,
		logger:   logger,
	}
}

// Classify tries the primary classifier, falling back on error.
func (r *resilient) Classify(ctx context.Context, transcript string, userContext map[string]interface{}) (*Result, error) {
	result, err := r.primary.Classify(ctx, transcript, userContext)
	if err == nil {
		return result, nil
	}

	r.logger.Warn("primary classifier failed, using deterministic fallback",
		zap.Error(err))
	return r.fallback.Classify(ctx, transcript, userContext)
}

// Close closes both classifiers, returning the first error encountered.
func (r *resilient) Close() error {
	errPrimary := r.primary.Close()
	errFallback := r.fallback.Close()
	if errPrimary != nil {
		return errPrimary
	}
	return errFallback
}
