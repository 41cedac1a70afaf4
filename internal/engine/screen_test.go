package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/banking/aml-compliance/internal/domain"
	"github.com/banking/aml-compliance/internal/screening"
	"github.com/banking/aml-compliance/internal/store"
)

func newScreeningService(st store.ScreeningStore, provider screening.SanctionsScreener) *ScreeningService {
	logger := zap.NewNop()
	return NewScreeningService(st, screening.NewFallbackScreener(provider, time.Second, logger), nil, logger)
}

func TestScreenNoMatch(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newScreeningService(st, screening.StubSanctionsScreener{})

	result := svc.Screen(context.Background(), &domain.ScreeningSubject{
		SubjectID: "cust-1",
		Name:      "Jordan Miles",
	})

	require.Empty(t, result.Error)
	assert.False(t, result.Match)
	assert.False(t, result.RequiresManualReview)
	assert.Equal(t, domain.ScreeningTypeCustomer, result.ScreeningType)
	assert.Equal(t, "continue", result.ActionTaken)
	assert.NotEqual(t, "", result.ScreeningID.String())
}

func TestScreenHighScoreRequiresManualReview(t *testing.T) {
	st := store.NewMemoryStore()
	provider := matchScreener{verdict: domain.ScreeningVerdict{
		Match:        false,
		Score:        0.85,
		MatchedNames: []string{"J. Miles"},
		Action:       "manual_review",
	}}
	svc := newScreeningService(st, provider)

	result := svc.Screen(context.Background(), &domain.ScreeningSubject{SubjectID: "cust-1", Name: "Jordan Miles"})

	// near-miss above 0.8 still escalates even without a confirmed match
	assert.False(t, result.Match)
	assert.True(t, result.RequiresManualReview)
}

func TestScreenDegradedProviderEscalates(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newScreeningService(st, errorScreener{})

	result := svc.Screen(context.Background(), &domain.ScreeningSubject{SubjectID: "cust-1", Name: "X"})

	require.Empty(t, result.Error)
	assert.False(t, result.Match)
	assert.True(t, result.RequiresManualReview)
	assert.Equal(t, "manual_review", result.ActionTaken)
}

func TestScreenResultsAreAppendOnly(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newScreeningService(st, screening.StubSanctionsScreener{})

	subject := &domain.ScreeningSubject{SubjectID: "cust-1", Name: "Jordan Miles"}
	first := svc.Screen(context.Background(), subject)
	second := svc.Screen(context.Background(), subject)

	assert.NotEqual(t, first.ScreeningID, second.ScreeningID)

	all, err := st.ListScreenings(context.Background(), time.Time{}, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestScreenMatchRecorded(t *testing.T) {
	st := store.NewMemoryStore()
	provider := matchScreener{verdict: domain.ScreeningVerdict{
		Match:        true,
		Score:        0.97,
		MatchedNames: []string{"Sanctioned Entity"},
		ListsMatched: []string{"SDN"},
		Action:       "block",
	}}
	svc := newScreeningService(st, provider)

	result := svc.Screen(context.Background(), &domain.ScreeningSubject{
		SubjectID: "entity-1",
		Name:      "Sanctioned Entity",
		Type:      domain.ScreeningTypeBeneficialOwner,
	})

	assert.True(t, result.Match)
	assert.True(t, result.RequiresManualReview)
	assert.Equal(t, domain.ScreeningTypeBeneficialOwner, result.ScreeningType)
	assert.Equal(t, []string{"SDN"}, result.ListsMatched)
	assert.Equal(t, "block", result.ActionTaken)
}
