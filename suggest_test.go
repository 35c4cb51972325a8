package cnext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNearestMatchFindsCloseTypo(t *testing.T) {
	match, ok := NearestMatch("MotrStatus", []string{"MotorStatus", "SensorStatus", "LinkState"})
	require.True(t, ok)
	require.Equal(t, "MotorStatus", match)
}

func TestNearestMatchRejectsUnrelatedNames(t *testing.T) {
	_, ok := NearestMatch("X", []string{"CompletelyDifferentTypeName"})
	require.False(t, ok)
}

func TestNearestMatchNoCandidates(t *testing.T) {
	_, ok := NearestMatch("Anything", nil)
	require.False(t, ok)
}
