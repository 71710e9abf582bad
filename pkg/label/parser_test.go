package label

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedLine(label, suffix string) string {
	return fmt.Sprintf("[2023-02-15T10:04:11.512Z] INFO  [2841]  - [Application update %s@%s] : Completed activity. Result:\n", label, suffix)
}

func TestParseActivityLog_LastMatchWins(t *testing.T) {
	log := strings.Join([]string{
		"[2023-01-01T00:00:00.000Z] INFO  [1]  - [Initialization] : Starting activity...\n",
		completedLine("app-v1", "20230101"),
		"[2023-02-15T10:03:00.000Z] INFO  [2841]  - [Application update app-v2@20230215/AppDeployStage0] : Starting activity...\n",
		completedLine("app-v2", "20230215"),
		"[2023-02-15T10:05:00.000Z] INFO  [2900]  - [Configuration update] : Completed activity.\n",
	}, "")

	got, err := ParseActivityLog(strings.NewReader(log))
	require.NoError(t, err)
	assert.Equal(t, "app-v2", got)
}

func TestParseActivityLog_NoMatch(t *testing.T) {
	got, err := ParseActivityLog(strings.NewReader("nothing to see\n[Application update broken] : Completed activity.\n"))
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestParseActivityLog_Empty(t *testing.T) {
	got, err := ParseActivityLog(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestParseActivityLog_FinalLineWithoutNewline(t *testing.T) {
	log := completedLine("app-v1", "1") + strings.TrimSuffix(completedLine("app-v3", "7/AppDeployStage1"), "\n")

	got, err := ParseActivityLog(strings.NewReader(log))
	require.NoError(t, err)
	assert.Equal(t, "app-v3", got)
}

func TestParseActivityLog_BinaryGarbage(t *testing.T) {
	log := "\x00\xff\xfe garbage\n" + strings.Repeat("x", 256*1024) + "\n" + completedLine("app-v9", "2")

	got, err := ParseActivityLog(strings.NewReader(log))
	require.NoError(t, err)
	assert.Equal(t, "app-v9", got)
}

func TestMatchCompletedUpdate(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		want  string
		match bool
	}{
		{"canonical", completedLine("app-v42", "3"), "app-v42", true},
		{"lowercase marker", "[application update v7@1] : completed activity.", "v7", true},
		{"label containing at sign", "[Application update team@app-v1@5/Stage] : Completed activity.", "team@app-v1", true},
		{"starting, not completed", "[Application update v7@1] : Starting activity...", "", false},
		{"missing suffix", "[Application update v7] : Completed activity.", "", false},
		{"empty label", "[Application update @1] : Completed activity.", "", false},
		{"unrelated", "[Configuration update] : Completed activity.", "", false},
		{"two records on one line", "[Application update a@1] : Completed activity. [Application update b@2] : Completed activity.", "b", true},
		{"completed record after a starting one", "[Application update a@1] : Starting activity... [Application update b@2/Stage] : Completed activity.", "b", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchCompletedUpdate(tt.line)
			assert.Equal(t, tt.match, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func genVersionLabel() gopter.Gen {
	return gen.RegexMatch(`[a-z][a-z0-9._-]{0,20}`)
}

func TestParseActivityLog_LastOfManyProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("the label from the last completion line is returned", prop.ForAll(
		func(labels []string) bool {
			var b strings.Builder
			for i, l := range labels {
				b.WriteString("[2023-01-01T00:00:00.000Z] INFO  [1]  - [Application update " + l + "@0] : Starting activity...\n")
				b.WriteString(completedLine(l, fmt.Sprintf("%d/AppDeployStage1", i)))
				b.WriteString("[2023-01-01T00:00:01.000Z] INFO  [1]  - [Command processor] : Completed activity.\n")
			}
			got, err := ParseActivityLog(strings.NewReader(b.String()))
			return err == nil && got == labels[len(labels)-1]
		},
		gen.IntRange(1, 8).FlatMap(func(v interface{}) gopter.Gen {
			return gen.SliceOfN(v.(int), genVersionLabel())
		}, nil),
	))

	properties.TestingRun(t)
}
