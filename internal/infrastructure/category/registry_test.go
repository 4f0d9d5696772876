package category

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/newsbot/cryptonews/internal/domain/entity"
	"github.com/stretchr/testify/require"
)

func writePrompt(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "analysis.md")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadFromPrompt_ParsesBulletsInOrder(t *testing.T) {
	path := writePrompt(t, `You are an analyst.

Categories:
- **Truth:** Verified facts.
- **Narrative:** Sentiment-driven content.
- **Ignored:** Irrelevant content.

More instructions below.
`)

	reg, err := LoadFromPrompt(path)
	require.NoError(t, err)

	all := reg.AllOrdered()
	require.Len(t, all, 3)
	require.Equal(t, "Truth", all[0].Key)
	require.Equal(t, "Narrative", all[1].Key)
	require.Equal(t, "Ignored", all[2].Key)
	require.Equal(t, "Verified facts.", all[0].Description)
	require.False(t, all[0].Synthesized)
}

func TestLookup_SynthesizesUnknownCategoryDeterministically(t *testing.T) {
	path := writePrompt(t, "- **Truth:** Verified facts.\n")
	reg, err := LoadFromPrompt(path)
	require.NoError(t, err)

	def1 := reg.Lookup("NewVertical")
	def2 := reg.Lookup("NewVertical")

	require.True(t, def1.Synthesized)
	require.Equal(t, def1.Emoji, def2.Emoji, "synthesis must be deterministic by key")
	require.NotEmpty(t, def1.Emoji)
}

func TestAllOrdered_AppendsSynthesizedAfterPromptDefined(t *testing.T) {
	path := writePrompt(t, "- **Truth:** Verified facts.\n- **Narrative:** Story content.\n")
	reg, err := LoadFromPrompt(path)
	require.NoError(t, err)

	reg.RecordSeen("Alpha")
	all := reg.AllOrdered()

	require.Len(t, all, 3)
	require.Equal(t, "Truth", all[0].Key)
	require.Equal(t, "Narrative", all[1].Key)
	require.Equal(t, "Alpha", all[2].Key)
	require.True(t, all[2].Synthesized)
}

func TestRecordSeen_DoesNotDuplicateKnownCategory(t *testing.T) {
	path := writePrompt(t, "- **Truth:** Verified facts.\n")
	reg, err := LoadFromPrompt(path)
	require.NoError(t, err)

	reg.RecordSeen("Truth")
	all := reg.AllOrdered()
	require.Len(t, all, 1)
	require.False(t, all[0].Synthesized)
}

func TestLookup_TotalityInvariant(t *testing.T) {
	// invariant: for every category, Lookup never returns a zero-value definition
	path := writePrompt(t, "- **Truth:** Verified facts.\n")
	reg, err := LoadFromPrompt(path)
	require.NoError(t, err)

	for _, key := range []string{"Truth", "SomethingElse", ""} {
		def := reg.Lookup(key)
		require.NotEqual(t, entity.CategoryDefinition{}, def)
	}
}
