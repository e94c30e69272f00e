package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdownTable(t *testing.T) {
	tb := NewTable(Markdown, "Endpoint", "Auth")
	tb.Row("`GET /items`", "OPERATOR")
	tb.Row("`GET /a|b`", "public")
	out := tb.String()

	assert.Equal(t, 2, tb.Len())
	assert.Contains(t, out, "| Endpoint | Auth |")
	assert.Contains(t, out, "---")
	assert.Contains(t, out, "| `GET /items` | OPERATOR |")
	assert.Contains(t, out, "| `GET /a\\|b` | public |")
	assert.False(t, strings.HasSuffix(out, "\n"))
}

func TestTerminalTable(t *testing.T) {
	tb := NewTable(Terminal, "Probe", "Findings").AlignRight(2)
	tb.Row("ra-endpoint-census", 12)
	out := tb.String()

	assert.Contains(t, out, "ra-endpoint-census")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "─")
	assert.NotContains(t, out, "| Probe")
}
