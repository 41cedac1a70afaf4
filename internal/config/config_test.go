package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banking/aml-compliance/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10000.0, cfg.Compliance.CTRThreshold)
	assert.Equal(t, 5000.0, cfg.Compliance.SARThreshold)
	assert.Equal(t, 25000.0, cfg.Compliance.EnhancedDueDiligenceThreshold)
	assert.Equal(t, 0.25, cfg.Compliance.BeneficialOwnershipThreshold)
	assert.Equal(t, 5, cfg.Compliance.RecordRetentionYears)
	assert.Equal(t, []string{"IR", "KP", "SY", "CU"}, cfg.Compliance.HighRiskCountries)
	assert.Equal(t, 24*time.Hour, cfg.Compliance.AggregationWindow())
}

// Filing deadline defaults come from the regulatory deadline table so the
// two never drift apart.
func TestFilingDeadlineDefaultsMatchRegulatoryTable(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int(domain.FilingDeadlines["SAR"].Hours()/24), cfg.Compliance.SARFilingDeadlineDays)
	assert.Equal(t, int(domain.FilingDeadlines["CTR"].Hours()/24), cfg.Compliance.CTRFilingDeadlineDays)
	assert.Equal(t, 30, cfg.Compliance.SARFilingDeadlineDays)
	assert.Equal(t, 15, cfg.Compliance.CTRFilingDeadlineDays)
}
