package reporter

import (
	"encoding/json"
	"io"

	"github.com/eb-version-tagger/pkg/beanstalk"
)

type JSONReporter struct {
	w io.Writer
}

func (r *JSONReporter) Label(label string) error {
	return r.encode(struct {
		Label string `json:"label"`
	}{Label: label})
}

func (r *JSONReporter) Tags(label string, tags beanstalk.TagSet) error {
	if tags == nil {
		tags = beanstalk.TagSet{}
	}

	type output struct {
		Label string           `json:"label"`
		Count int              `json:"count"`
		Tags  beanstalk.TagSet `json:"tags"`
	}

	return r.encode(output{
		Label: label,
		Count: len(tags),
		Tags:  tags,
	})
}

func (r *JSONReporter) encode(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
