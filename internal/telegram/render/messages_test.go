package render

import (
	"strings"
	"testing"

	"github.com/futig/docqa/internal/entity"
	"github.com/futig/docqa/internal/state"
	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	assert.Contains(t, Status(state.Snapshot{}), "No document yet")

	snap := state.SelectDocument(state.Snapshot{}, &entity.Document{Name: "report.pdf", Content: make([]byte, 2048)})
	snap = state.SetQuestion(snap, "why?")
	text := Status(snap)

	assert.Contains(t, text, "report.pdf (2 KB)")
	assert.Contains(t, text, "Not summarized yet")
	assert.Contains(t, text, "❓ why?")
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{""}, Split("", 10))
	assert.Equal(t, []string{"short"}, Split("short", 10))
	assert.Equal(t, []string{"line one", "line two"}, Split("line one\nline two", 12))
	assert.Equal(t, []string{"abcde", "fghij", "k"}, Split("abcdefghijk", 5))

	// two-byte runes are never cut in half
	chunks := Split(strings.Repeat("é", 5), 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 3)
		assert.True(t, strings.HasPrefix(c, "é"))
	}
	assert.Equal(t, strings.Repeat("é", 5), strings.Join(chunks, ""))
}
