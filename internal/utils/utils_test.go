package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	SetBcryptCost(4)
	defer SetBcryptCost(DefaultBcryptCost)

	hash, err := HashPassword("voter123")
	require.NoError(t, err)
	assert.NotEqual(t, "voter123", hash)
	assert.True(t, CheckPasswordHash("voter123", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestCacheEvictsOldest(t *testing.T) {
	c := NewCache[int](2)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok)
	v, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 2, c.Len())

	c.Delete("c")
	_, ok = c.Get("c")
	assert.False(t, ok)
}

func TestRenderMarkdownSanitizes(t *testing.T) {
	out := RenderMarkdown("**Program** <script>alert(1)</script>\n\n![logo](https://example.com/a.png)")
	assert.Contains(t, out, "<strong>Program</strong>")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, `loading="lazy"`)
	assert.Contains(t, out, `referrerpolicy="no-referrer"`)
}

func TestRenderMarkdownEmpty(t *testing.T) {
	assert.Equal(t, "", RenderMarkdown(""))
}

func TestEnhanceHTMLContentLinks(t *testing.T) {
	out := EnhanceHTMLContent(`<a href="https://example.com" target="_blank" rel="nofollow">x</a>`)
	assert.True(t, strings.Contains(out, "noopener"), out)
}

func TestConv(t *testing.T) {
	assert.Equal(t, 12, StringToInt("12"))
	assert.Equal(t, 0, StringToInt("x"))
	assert.True(t, StringToBool("true"))
	assert.False(t, StringToBool("TRUE"))
}
