package markdown_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kisah-comments/internal/pkg/markdown"
)

func TestRenderer(t *testing.T) {
	r, err := markdown.NewRenderer(16)
	require.NoError(t, err)

	t.Run("Emphasis", func(t *testing.T) {
		assert.Contains(t, r.Render("**bold** move"), "<strong>bold</strong>")
	})

	t.Run("Scripts are stripped", func(t *testing.T) {
		out := r.Render("hi <script>alert(1)</script>")
		assert.NotContains(t, out, "<script>")
		assert.Contains(t, out, "hi")
	})

	t.Run("External links open safely", func(t *testing.T) {
		out := r.Render("[site](https://example.com)")
		assert.Contains(t, out, `href="https://example.com"`)
		assert.Contains(t, out, `target="_blank"`)
		assert.Contains(t, out, "noreferrer")
	})

	t.Run("Repeated input is stable", func(t *testing.T) {
		first := r.Render("line one\nline two")
		assert.Equal(t, first, r.Render("line one\nline two"))
		assert.Contains(t, first, "<br")
	})
}
