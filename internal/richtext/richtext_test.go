package richtext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKeepsFormatting(t *testing.T) {
	out := Sanitize(`<p>Join <strong>us</strong> <a href="https://gallery.example">here</a></p>`)
	assert.Contains(t, out, "<strong>us</strong>")
	assert.Contains(t, out, `href="https://gallery.example"`)
}

func TestSanitizeDropsScripts(t *testing.T) {
	out := Sanitize(`<p onclick="steal()">Hi</p><script>alert(1)</script>`)
	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "onclick")
	assert.Contains(t, out, "Hi")

	assert.Empty(t, Sanitize(`<script>alert(1)</script>`))
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Join us & friends", PlainText("<p>Join   <em>us</em></p>\n<p>&amp; friends</p>"))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "Join us", Excerpt("<p>Join us</p>", 100))

	long := "<p>" + strings.Repeat("a", 150) + "</p>"
	got := Excerpt(long, 100)
	assert.Equal(t, strings.Repeat("a", 100)+"...", got)

	assert.Equal(t, "héllo...", Excerpt("héllo wörld", 5))
	assert.Equal(t, "short", Excerpt("short", 0))
}
