package prompt

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/newsbot/cryptonews/internal/domain/entity"
)

func writeTemplate(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "analysis.md")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestAssemble_SubstitutesPlaceholderExactlyOnce(t *testing.T) {
	path := writeTemplate(t, "System prompt.\n\nContext: "+Placeholder+"\n")
	a := NewAssembler(path)

	snapshot := entity.MarketSnapshot{GeneratedAt: time.Now(), Body: "BTC up 3%"}
	out, err := a.Assemble(snapshot)

	require.NoError(t, err)
	require.Contains(t, out, "BTC up 3%")
	require.NotContains(t, out, Placeholder)
}

func TestAssemble_PreservesHyperlinksInSnapshotBody(t *testing.T) {
	path := writeTemplate(t, Placeholder)
	a := NewAssembler(path)

	snapshot := entity.MarketSnapshot{GeneratedAt: time.Now(), Body: "see [source](https://example.com/a)"}
	out, err := a.Assemble(snapshot)

	require.NoError(t, err)
	require.Contains(t, out, "[source](https://example.com/a)")
}

func TestAssemble_MissingPlaceholderErrors(t *testing.T) {
	path := writeTemplate(t, "no placeholder here")
	a := NewAssembler(path)

	_, err := a.Assemble(entity.MarketSnapshot{GeneratedAt: time.Now(), Body: "x"})
	require.Error(t, err)
}

func TestAssemble_CachesByTemplateMtimeAndSnapshotGeneratedAt(t *testing.T) {
	path := writeTemplate(t, Placeholder)
	a := NewAssembler(path)

	gen := time.Now()
	snap1 := entity.MarketSnapshot{GeneratedAt: gen, Body: "first"}
	out1, err := a.Assemble(snap1)
	require.NoError(t, err)
	require.Contains(t, out1, "first")

	// Same cache key (same mtime, same GeneratedAt) but a different body:
	// the cached assembly must be returned, not recomputed.
	snap2 := entity.MarketSnapshot{GeneratedAt: gen, Body: "second"}
	out2, err := a.Assemble(snap2)
	require.NoError(t, err)
	require.Equal(t, out1, out2)

	// A new GeneratedAt invalidates the cache.
	snap3 := entity.MarketSnapshot{GeneratedAt: gen.Add(time.Minute), Body: "third"}
	out3, err := a.Assemble(snap3)
	require.NoError(t, err)
	require.Contains(t, out3, "third")
}
