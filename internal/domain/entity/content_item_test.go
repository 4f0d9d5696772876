package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewContentItem_RejectsEmptyURL(t *testing.T) {
	_, err := NewContentItem("t", "c", "", time.Now(), "src", SourceRSS)
	require.ErrorIs(t, err, ErrEmptyURL)
}

func TestNewContentItem_RejectsPublishTimeBeyondClockSkewTolerance(t *testing.T) {
	_, err := NewContentItem("t", "c", "https://a.example/1", time.Now().Add(time.Hour), "src", SourceRSS)
	require.ErrorIs(t, err, ErrPublishTimeFuture)
}

func TestNewContentItem_AllowsPublishTimeWithinClockSkewTolerance(t *testing.T) {
	item, err := NewContentItem("t", "c", "https://a.example/1", time.Now().Add(2*time.Minute), "src", SourceRSS)
	require.NoError(t, err)
	require.NotEmpty(t, item.ID)
}

func TestNewContentItem_IDIsStableAcrossReFetchesOfSameItem(t *testing.T) {
	pub := time.Now().Add(-time.Hour)
	a, err := NewContentItem("t1", "c1", "https://a.example/1", pub, "src", SourceRSS)
	require.NoError(t, err)
	b, err := NewContentItem("t2", "different content", "https://a.example/1", pub, "src", SourceRSS)
	require.NoError(t, err)

	require.Equal(t, a.ID, b.ID, "fingerprint must depend only on source type, url and publish time")
}

func TestFingerprint_DiffersWhenSourceTypeDiffers(t *testing.T) {
	pub := time.Now().Add(-time.Hour)
	rss := Fingerprint(string(SourceRSS), "https://a.example/1", pub)
	x := Fingerprint(string(SourceX), "https://a.example/1", pub)
	require.NotEqual(t, rss, x)
}
