package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAnalysisResult_RejectsEmptyCategory(t *testing.T) {
	_, err := NewAnalysisResult("t", "", 50, "s", "u", "id")
	require.ErrorIs(t, err, ErrEmptyCategory)
}

func TestNewAnalysisResult_RejectsScoreOutOfRange(t *testing.T) {
	_, err := NewAnalysisResult("t", "Truth", 150, "s", "u", "id")
	require.ErrorIs(t, err, ErrScoreOutOfRange)

	_, err = NewAnalysisResult("t", "Truth", -1, "s", "u", "id")
	require.ErrorIs(t, err, ErrScoreOutOfRange)
}

func TestNewAnalysisResult_AcceptsBoundaryScores(t *testing.T) {
	_, err := NewAnalysisResult("t", "Truth", 0, "s", "u", "id")
	require.NoError(t, err)
	_, err = NewAnalysisResult("t", "Truth", 100, "s", "u", "id")
	require.NoError(t, err)
}

func TestClipScore_ClampsToValidRange(t *testing.T) {
	require.Equal(t, 0, ClipScore(-5))
	require.Equal(t, 100, ClipScore(500))
	require.Equal(t, 42, ClipScore(42))
}
