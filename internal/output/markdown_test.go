package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownWriter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&MarkdownWriter{}).Write(&buf, emptyReport()))

	out := buf.String()
	assert.Contains(t, out, "## Review Tour")
	assert.Contains(t, out, "| 0 | 0 | 0 |")
	assert.Contains(t, out, "No changes to review.")
}

func TestMarkdownWriter_Tour(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&MarkdownWriter{}).Write(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "| 4 | 1 | 1 |")
	assert.Contains(t, out, "- **Price and its uses**\n  - 1. `z/price.go:3-5`\n  - 2. `a/cart.go:4`\n- 3. `m/old.go: deleted after line 7`\n")
	assert.Contains(t, out, "<summary>:warning: Not kept together (1)</summary>")
	assert.Contains(t, out, "```go\nfunc Price() int {\n\treturn 42\n}\n```")
	assert.Contains(t, out, "*Tour computed in 12ms*")
}

func TestInferLang(t *testing.T) {
	assert.Equal(t, "go", inferLang("a/b.go"))
	assert.Equal(t, "tsx", inferLang("ui/App.tsx"))
	assert.Equal(t, "json", inferLang("pkg.json"))
	assert.Equal(t, "", inferLang("Makefile"))
}
