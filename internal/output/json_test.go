package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobiasbaum/reviewtool-sub002/internal/tour"
)

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONWriter{}).Write(&buf, sampleReport()))

	var decoded tour.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Len(t, decoded.Stops, 4)
	require.Len(t, decoded.Tour, 3)
	assert.Equal(t, "Price and its uses", decoded.Tour[0].Title)
	assert.Equal(t, 1, decoded.Summary.Stats.Direct)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	stats := raw["summary"].(map[string]any)["stats"].(map[string]any)
	assert.Contains(t, stats, "satisfiedDirectly")
	assert.Contains(t, stats, "fastMode")
}

func TestJSONWriter_KeepsSnippetText(t *testing.T) {
	r := sampleReport()
	r.Stops[0].Snippet = []string{"if a < b && c > d {"}

	var buf bytes.Buffer
	require.NoError(t, (&JSONWriter{}).Write(&buf, r))
	assert.Contains(t, buf.String(), `"if a < b && c > d {"`)
	assert.NotContains(t, buf.String(), `\u003c`)
	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))
	assert.Contains(t, buf.String(), "\n  \"tool\"")
}

func TestJSONWriter_NilListsAreArrays(t *testing.T) {
	r := emptyReport()
	r.Stops, r.Tour = nil, nil

	var buf bytes.Buffer
	require.NoError(t, (&JSONWriter{}).Write(&buf, r))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.Equal(t, []any{}, raw["stops"])
	assert.Equal(t, []any{}, raw["tour"])
	assert.Nil(t, r.Stops, "report must not change")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestJSONWriter_WriteError(t *testing.T) {
	err := (&JSONWriter{}).Write(failingWriter{}, sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run-1")
	assert.Contains(t, err.Error(), "disk full")
}
