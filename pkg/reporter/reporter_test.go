package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/eb-version-tagger/pkg/beanstalk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	assert.IsType(t, &JSONReporter{}, New("json", &buf))
	assert.IsType(t, &JSONReporter{}, New("JSON", &buf))
	assert.IsType(t, &TableReporter{}, New("table", &buf))
	assert.IsType(t, &TableReporter{}, New("", &buf))
}

func TestJSONReporter_Tags(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New("json", &buf).Tags("v42", beanstalk.TagSet{"env": "prod", "build": "123"}))

	var got struct {
		Label string            `json:"label"`
		Count int               `json:"count"`
		Tags  map[string]string `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "v42", got.Label)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, map[string]string{"env": "prod", "build": "123"}, got.Tags)
}

func TestJSONReporter_NilTags(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New("json", &buf).Tags("v42", nil))
	assert.Contains(t, buf.String(), `"tags": {}`)
}

func TestJSONReporter_Label(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New("json", &buf).Label("app-v2"))
	assert.JSONEq(t, `{"label":"app-v2"}`, buf.String())
}

func TestTableReporter_Tags(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New("table", &buf).Tags("v42", beanstalk.TagSet{"env": "prod", "build": "123"}))

	out := buf.String()
	assert.Contains(t, out, "VERSION  v42")
	buildIdx := strings.Index(out, "build")
	envIdx := strings.Index(out, "env")
	require.True(t, buildIdx > 0 && envIdx > 0)
	assert.Less(t, buildIdx, envIdx, "rows are sorted by key")
}

func TestTableReporter_Empty(t *testing.T) {
	var buf bytes.Buffer
	r := New("table", &buf)

	require.NoError(t, r.Tags("v42", nil))
	require.NoError(t, r.Label(""))
	assert.Equal(t, "No tags on version v42.\nNo version label found.\n", buf.String())
}
