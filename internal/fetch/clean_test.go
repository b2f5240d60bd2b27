package fetch

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCleanHTML_StripsScriptAndStyle(t *testing.T) {
	html := `<html><head>
		<style>body { color: red; }</style>
		<script type="text/javascript">var tracking = "evil";</script>
	</head><body><h1>Acme Corp</h1><p>We build rockets.</p></body></html>`

	got := CleanHTML(html)
	assert.Equal(t, "Acme Corp We build rockets.", got)
	assert.NotContains(t, got, "tracking")
	assert.NotContains(t, got, "color: red")
}

func TestCleanHTML_MultilineScript(t *testing.T) {
	html := "<script>\nline1\nline2\n</script><p>kept</p>"
	assert.Equal(t, "kept", CleanHTML(html))
}

func TestCleanHTML_DecodesEntities(t *testing.T) {
	got := CleanHTML(`<p>Smith &amp; Co &mdash; &quot;quality&quot;&nbsp;first</p>`)
	assert.Equal(t, `Smith & Co &mdash; "quality" first`, got)
}

func TestCleanHTML_CollapsesWhitespace(t *testing.T) {
	got := CleanHTML("<div>  a \n\t b\n\nc  </div>")
	assert.Equal(t, "a b c", got)
}

func TestCleanHTML_PlainText(t *testing.T) {
	assert.Equal(t, "no markup here", CleanHTML("no markup here"))
}

func TestCleanHTML_Empty(t *testing.T) {
	assert.Equal(t, "", CleanHTML(""))
	assert.Equal(t, "", CleanHTML("<script>only();</script>"))
}

func TestTruncate_RuneBoundary(t *testing.T) {
	s := strings.Repeat("é", 100) // 200 bytes

	got := Truncate(s, 101) // lands mid-rune
	assert.Len(t, got, 100)
	assert.True(t, utf8.ValidString(got))

	got = Truncate(s, 100)
	assert.Len(t, got, 100)
	assert.True(t, utf8.ValidString(got))
}

func TestTruncate_ShortInputUnchanged(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 100))
	assert.Equal(t, "日本語", Truncate("日本語", 9))
}
