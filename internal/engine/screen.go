package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/banking/aml-compliance/internal/domain"
	"github.com/banking/aml-compliance/internal/screening"
	"github.com/banking/aml-compliance/internal/store"
)

// Matches above this score are escalated to a human reviewer.
const manualReviewScoreFloor = 0.8

// ScreeningService screens subjects against sanctions lists and keeps the
// append-only trail of screening results. Results are immutable; re-screening
// a subject produces a new record.
type ScreeningService struct {
	results  store.ScreeningStore
	screener *screening.FallbackScreener
	indexer  CaseIndexer
	logger   *zap.Logger
}

// NewScreeningService wires the service. The indexer may be nil.
func NewScreeningService(
	results store.ScreeningStore,
	screener *screening.FallbackScreener,
	indexer CaseIndexer,
	logger *zap.Logger,
) *ScreeningService {
	return &ScreeningService{
		results:  results,
		screener: screener,
		indexer:  indexer,
		logger:   logger,
	}
}

// Screen screens one subject and records the result. A degraded provider
// yields a no-match verdict flagged for manual review rather than an error.
func (s *ScreeningService) Screen(ctx context.Context, subject *domain.ScreeningSubject) (result *domain.SanctionsScreeningResult) {
	screeningID := uuid.New()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sanctions screening panicked",
				zap.String("subject_id", subject.SubjectID),
				zap.Any("panic", r),
			)
			result = &domain.SanctionsScreeningResult{
				ScreeningID:   screeningID,
				SubjectID:     subject.SubjectID,
				ScreeningDate: time.Now().UTC(),
				Match:         false,
				Error:         "internal error during sanctions screening",
			}
		}
	}()

	screeningType := subject.Type
	if screeningType == "" {
		screeningType = domain.ScreeningTypeCustomer
	}

	// The fallback wrapper never returns an error; provider failures arrive
	// as a degraded verdict.
	verdict, _ := s.screener.Screen(ctx, subject)

	record := &domain.SanctionsScreeningResult{
		ScreeningID:          screeningID,
		SubjectID:            subject.SubjectID,
		ScreeningDate:        time.Now().UTC(),
		ScreeningType:        screeningType,
		Match:                verdict.Match,
		MatchScore:           verdict.Score,
		MatchedNames:         verdict.MatchedNames,
		ListsMatched:         verdict.ListsMatched,
		ActionTaken:          verdict.Action,
		RequiresManualReview: verdict.Score > manualReviewScoreFloor || verdict.Degraded,
		Notes:                verdict.Notes,
	}

	if err := s.results.AppendScreening(ctx, record); err != nil {
		s.logger.Error("failed to persist screening result",
			zap.String("screening_id", screeningID.String()),
			zap.String("subject_id", subject.SubjectID),
			zap.Error(err),
		)
		record.Error = "failed to persist screening result"
		return record
	}

	s.asyncIndexScreening(record)
	return record
}

func (s *ScreeningService) asyncIndexScreening(record *domain.SanctionsScreeningResult) {
	if s.indexer == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic while indexing screening result", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.indexer.IndexScreening(ctx, record); err != nil {
			s.logger.Error("failed to index screening result",
				zap.String("screening_id", record.ScreeningID.String()),
				zap.Error(err),
			)
		}
	}()
}
