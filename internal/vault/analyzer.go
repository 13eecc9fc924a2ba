package vault

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// AnalysisResult aggregates derived note statistics. Discarded after being
// folded into the vault record.
type AnalysisResult struct {
	TotalContentLength int      `json:"totalContentLength"`
	NoteTitles         []string `json:"noteTitles"`
	// AverageNoteLength divides by the number of notes handed to the analyzer,
	// not the number successfully read. 0 when there are no notes.
	AverageNoteLength float64 `json:"averageNoteLength"`
}

// Analyzer derives per-note titles and aggregate size metrics from extracted
// notes. Read-only; never mutates the extracted tree.
type Analyzer struct {
	log zerolog.Logger
}

// NewAnalyzer returns an analyzer logging skipped notes to log.
func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{log: log}
}

// Analyze reads every note under root. A note that cannot be read is logged
// and skipped; it contributes neither length nor title. This is the only
// absorbed partial failure in the pipeline.
func (a *Analyzer) Analyze(root string, notes []string) (*AnalysisResult, error) {
	if len(notes) > 0 {
		if _, err := os.Stat(root); err != nil {
			return nil, &AnalysisError{Err: err}
		}
	}

	res := &AnalysisResult{NoteTitles: []string{}}
	for _, rel := range notes {
		content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			a.log.Warn().Err(err).Str("note", rel).Msg("failed to read note, skipping")
			continue
		}
		text := string(content)
		res.TotalContentLength += utf8.RuneCountInString(text)
		res.NoteTitles = append(res.NoteTitles, NoteTitle(rel, text))
	}

	if len(notes) > 0 {
		res.AverageNoteLength = float64(res.TotalContentLength) / float64(len(notes))
	}
	return res, nil
}

// NoteTitle returns the remainder of the first markdown H1 line, trimmed, or
// falls back to the filename without its extension.
func NoteTitle(rel, content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	base := filepath.Base(rel)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
