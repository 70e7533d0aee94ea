package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit_NoEmptyWindows(t *testing.T) {
	c := New(Config{WindowSize: 100, Overlap: 20})
	text := strings.Repeat("palabra de prueba para el fragmentador de texto. ", 50)

	fragments := c.Split("doc-1", text)

	assert.NotEmpty(t, fragments)
	for _, f := range fragments {
		assert.NotEmpty(t, strings.TrimSpace(f.Text))
	}
}

func TestSplit_OrdinalsAreDenseZeroBased(t *testing.T) {
	c := New(DefaultConfig())
	text := strings.Repeat("a", 5000)

	fragments := c.Split("doc-1", text)

	for i, f := range fragments {
		assert.Equal(t, i, f.Ordinal)
		assert.Equal(t, "doc-1", f.DocID)
	}
}

func TestSplit_WindowsRespectMaxLength(t *testing.T) {
	c := New(Config{WindowSize: 100, Overlap: 10})
	text := strings.Repeat("x", 2000)

	fragments := c.Split("doc-1", text)

	maxLen := int(float64(100) * 1.25)
	for _, f := range fragments {
		assert.LessOrEqual(t, len(f.Text), maxLen+1)
	}
}

func TestSplit_EmptyText(t *testing.T) {
	c := New(DefaultConfig())
	assert.Empty(t, c.Split("doc-1", ""))
}

func TestSplit_PrefersParagraphBoundary(t *testing.T) {
	c := New(Config{WindowSize: 20, Overlap: 5})
	text := "primer parrafo corto.\n\nsegundo parrafo que continua despues del salto doble."

	fragments := c.Split("doc-1", text)

	assert.GreaterOrEqual(t, len(fragments), 2)
}
