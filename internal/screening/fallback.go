package screening

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/banking/aml-compliance/internal/domain"
)

// FallbackScreener wraps a sanctions screening provider with a timeout and a
// conservative failure policy. When the provider errors or times out, the
// verdict is match=false with Degraded set, so the caller can force manual
// review instead of silently treating the failure as a clean pass.
type FallbackScreener struct {
	provider SanctionsScreener
	timeout  time.Duration
	log      *zap.Logger
}

// NewFallbackScreener wraps provider. A non-positive timeout disables the
// deadline and only the caller's context bounds the call.
func NewFallbackScreener(provider SanctionsScreener, timeout time.Duration, log *zap.Logger) *FallbackScreener {
	return &FallbackScreener{
		provider: provider,
		timeout:  timeout,
		log:      log,
	}
}

// Screen invokes the provider. It never returns an error; provider failures
// and timeouts degrade to the conservative verdict.
func (f *FallbackScreener) Screen(ctx context.Context, subject *domain.ScreeningSubject) (domain.ScreeningVerdict, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	type outcome struct {
		verdict domain.ScreeningVerdict
		err     error
	}
	results := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.log.Error("sanctions provider panicked", zap.Any("panic", r))
				results <- outcome{err: &domain.AdapterError{Adapter: "sanctions", Err: fmt.Errorf("provider panic: %v", r)}}
			}
		}()
		verdict, err := f.provider.Screen(ctx, subject)
		results <- outcome{verdict: verdict, err: err}
	}()

	var verdict domain.ScreeningVerdict
	var err error
	select {
	case out := <-results:
		verdict, err = out.verdict, out.err
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err != nil {
		f.log.Warn("sanctions screening degraded to conservative verdict",
			zap.String("subject_id", subject.SubjectID),
			zap.Error(err),
		)
		return domain.ScreeningVerdict{
			Match:    false,
			Score:    0.0,
			Action:   "manual_review",
			Notes:    "screening provider unavailable: " + err.Error(),
			Degraded: true,
		}, nil
	}

	return verdict, nil
}
