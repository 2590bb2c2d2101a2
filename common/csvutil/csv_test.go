package csvutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_HeaderAndRows(t *testing.T) {
	var buf strings.Builder
	w, err := NewWriter(&buf, []string{"id", "token", "url"})
	require.NoError(t, err)

	require.NoError(t, w.WriteRow("1", "abc", "https://linket.to/l/abc"))
	require.NoError(t, w.WriteRow("2", "def", "https://linket.to/l/def"))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,token,url", lines[0])
	assert.Equal(t, "1,abc,https://linket.to/l/abc", lines[1])
}

func TestWriter_EscapesCommaQuoteNewline(t *testing.T) {
	var buf strings.Builder
	w, err := NewWriter(&buf, []string{"label"})
	require.NoError(t, err)

	require.NoError(t, w.WriteRow(`batch, "spring" run`))
	require.NoError(t, w.WriteRow("line1\nline2"))
	require.NoError(t, w.Flush())

	out := buf.String()
	// Embedded quotes are doubled, the whole field quoted.
	assert.Contains(t, out, `"batch, ""spring"" run"`)
	assert.Contains(t, out, "\"line1\nline2\"")
}

func TestWriter_RejectsFieldCountMismatch(t *testing.T) {
	var buf strings.Builder
	w, err := NewWriter(&buf, []string{"a", "b"})
	require.NoError(t, err)

	err = w.WriteRow("only-one")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fields")
}
