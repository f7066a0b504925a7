package media

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Presigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ImageResolver turns a stored pet image reference into a URL the client can
// load. Absolute URLs pass through; anything else is treated as an object key.
type ImageResolver struct {
	signer Presigner
	ttl    time.Duration
	logger *zap.Logger
}

func NewImageResolver(signer Presigner, ttl time.Duration, logger *zap.Logger) *ImageResolver {
	if ttl <= 0 {
		ttl = signedURLTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageResolver{signer: signer, ttl: ttl, logger: logger}
}

// Resolve never fails the caller: an unsigned key degrades to an empty image.
func (r *ImageResolver) Resolve(ctx context.Context, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if isAbsoluteURL(ref) {
		return ref
	}
	if r == nil || r.signer == nil {
		return ""
	}

	signed, err := r.signer.PresignGet(ctx, strings.TrimPrefix(ref, "/"), r.ttl)
	if err != nil {
		r.logger.Warn("presign pet image failed", zap.String("key", ref), zap.Error(err))
		return ""
	}
	return signed
}

func isAbsoluteURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
