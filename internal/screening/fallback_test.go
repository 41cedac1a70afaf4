package screening

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/banking/aml-compliance/internal/domain"
)

type erroringScreener struct{}

func (erroringScreener) Screen(_ context.Context, _ *domain.ScreeningSubject) (domain.ScreeningVerdict, error) {
	return domain.ScreeningVerdict{}, errors.New("upstream down")
}

type slowScreener struct{ delay time.Duration }

func (s slowScreener) Screen(ctx context.Context, _ *domain.ScreeningSubject) (domain.ScreeningVerdict, error) {
	select {
	case <-time.After(s.delay):
		return domain.ScreeningVerdict{Match: true, Score: 0.99}, nil
	case <-ctx.Done():
		return domain.ScreeningVerdict{}, ctx.Err()
	}
}

type panickingScreener struct{}

func (panickingScreener) Screen(_ context.Context, _ *domain.ScreeningSubject) (domain.ScreeningVerdict, error) {
	panic("provider bug")
}

func TestFallbackPassesThroughHealthyProvider(t *testing.T) {
	f := NewFallbackScreener(StubSanctionsScreener{}, time.Second, zap.NewNop())

	verdict, err := f.Screen(context.Background(), &domain.ScreeningSubject{Name: "X"})

	require.NoError(t, err)
	assert.False(t, verdict.Match)
	assert.False(t, verdict.Degraded)
	assert.Equal(t, "continue", verdict.Action)
}

func TestFallbackDegradesOnProviderError(t *testing.T) {
	f := NewFallbackScreener(erroringScreener{}, time.Second, zap.NewNop())

	verdict, err := f.Screen(context.Background(), &domain.ScreeningSubject{Name: "X"})

	require.NoError(t, err)
	assert.False(t, verdict.Match)
	assert.True(t, verdict.Degraded)
	assert.Equal(t, "manual_review", verdict.Action)
	assert.Contains(t, verdict.Notes, "screening provider unavailable")
}

func TestFallbackDegradesOnTimeout(t *testing.T) {
	f := NewFallbackScreener(slowScreener{delay: time.Second}, 20*time.Millisecond, zap.NewNop())

	verdict, err := f.Screen(context.Background(), &domain.ScreeningSubject{Name: "X"})

	require.NoError(t, err)
	assert.True(t, verdict.Degraded)
	assert.Equal(t, "manual_review", verdict.Action)
}

func TestFallbackDegradesOnProviderPanic(t *testing.T) {
	f := NewFallbackScreener(panickingScreener{}, time.Second, zap.NewNop())

	verdict, err := f.Screen(context.Background(), &domain.ScreeningSubject{Name: "X"})

	require.NoError(t, err)
	assert.True(t, verdict.Degraded)
}

func TestFallbackHonorsCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFallbackScreener(slowScreener{delay: time.Second}, time.Minute, zap.NewNop())
	verdict, err := f.Screen(ctx, &domain.ScreeningSubject{Name: "X"})

	require.NoError(t, err)
	assert.True(t, verdict.Degraded)
}
