package reporter

import (
	"io"
	"sort"
	"strings"

	"github.com/eb-version-tagger/pkg/beanstalk"
)

type Reporter interface {
	Label(label string) error
	Tags(label string, tags beanstalk.TagSet) error
}

func New(format string, w io.Writer) Reporter {
	switch strings.ToLower(format) {
	case "json":
		return &JSONReporter{w: w}
	default:
		return &TableReporter{w: w}
	}
}

func sortedKeys(tags beanstalk.TagSet) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
