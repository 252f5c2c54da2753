package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnrollmentStatus(t *testing.T) {
	for _, raw := range []string{"ENROLLED", "COMPLETED", "FAILED", "DROPPED"} {
		status, err := ParseEnrollmentStatus(raw)
		require.NoError(t, err)
		assert.Equal(t, EnrollmentStatus(raw), status)
	}
}

func TestParseEnrollmentStatusRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "enrolled", "WITHDRAWN", "Enrolled "} {
		_, err := ParseEnrollmentStatus(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseRiskLevel(t *testing.T) {
	for _, raw := range []string{"LOW", "MEDIUM", "HIGH"} {
		level, err := ParseRiskLevel(raw)
		require.NoError(t, err)
		assert.Equal(t, RiskLevel(raw), level)
	}
}

func TestParseRiskLevelRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "low", "CRITICAL"} {
		_, err := ParseRiskLevel(raw)
		assert.Error(t, err, raw)
	}
}
