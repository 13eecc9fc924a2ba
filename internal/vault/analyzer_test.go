package vault

import (
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func writeNote(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestAnalyzeDerivesTitlesAndLengths(t *testing.T) {
	root := t.TempDir()
	body1 := "# Note 1\n\nThis is the first note."
	body2 := "# Note 2\n\nThis is the second note."
	writeNote(t, root, "note1.md", body1)
	writeNote(t, root, "note2.md", body2)

	a := NewAnalyzer(zerolog.Nop())
	res, err := a.Analyze(root, []string{"note1.md", "note2.md"})
	require.NoError(t, err)

	require.Equal(t, []string{"Note 1", "Note 2"}, res.NoteTitles)
	want := utf8.RuneCountInString(body1) + utf8.RuneCountInString(body2)
	require.Equal(t, want, res.TotalContentLength)
	require.Equal(t, float64(want)/2, res.AverageNoteLength)
}

func TestAnalyzeTitleFallbackToFilename(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "ideas/no heading.md", "just text\nmore text")

	a := NewAnalyzer(zerolog.Nop())
	res, err := a.Analyze(root, []string{"ideas/no heading.md"})
	require.NoError(t, err)
	require.Equal(t, []string{"no heading"}, res.NoteTitles)
}

func TestAnalyzeIgnoresDeeperHeadings(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "a.md", "## sub only\n# Real Title \ntext")

	a := NewAnalyzer(zerolog.Nop())
	res, err := a.Analyze(root, []string{"a.md"})
	require.NoError(t, err)
	require.Equal(t, []string{"Real Title"}, res.NoteTitles)
}

func TestAnalyzeEmptyNoteListAverageIsZero(t *testing.T) {
	a := NewAnalyzer(zerolog.Nop())
	res, err := a.Analyze(t.TempDir(), nil)
	require.NoError(t, err)
	require.Zero(t, res.AverageNoteLength)
	require.Zero(t, res.TotalContentLength)
	require.Empty(t, res.NoteTitles)
}

func TestAnalyzeSkipsUnreadableNotes(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "good.md", "# Good\nabc")

	a := NewAnalyzer(zerolog.Nop())
	// "missing.md" is in the input list but absent on disk: skipped, yet it
	// still counts in the average's denominator.
	res, err := a.Analyze(root, []string{"good.md", "missing.md"})
	require.NoError(t, err)
	require.Equal(t, []string{"Good"}, res.NoteTitles)
	want := utf8.RuneCountInString("# Good\nabc")
	require.Equal(t, want, res.TotalContentLength)
	require.Equal(t, float64(want)/2, res.AverageNoteLength)
}

func TestAnalyzeMissingRootFails(t *testing.T) {
	a := NewAnalyzer(zerolog.Nop())
	_, err := a.Analyze(filepath.Join(t.TempDir(), "gone"), []string{"x.md"})
	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
}
