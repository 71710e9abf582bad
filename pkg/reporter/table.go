package reporter

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/eb-version-tagger/pkg/beanstalk"
)

type TableReporter struct {
	w io.Writer
}

func (r *TableReporter) Label(label string) error {
	if label == "" {
		_, err := fmt.Fprintln(r.w, "No version label found.")
		return err
	}
	_, err := fmt.Fprintln(r.w, label)
	return err
}

func (r *TableReporter) Tags(label string, tags beanstalk.TagSet) error {
	if len(tags) == 0 {
		_, err := fmt.Fprintf(r.w, "No tags on version %s.\n", label)
		return err
	}

	w := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "VERSION\t%s\n\n", label)
	fmt.Fprintln(w, "KEY\tVALUE")
	fmt.Fprintln(w, "---\t-----")

	for _, k := range sortedKeys(tags) {
		fmt.Fprintf(w, "%s\t%s\n", k, tags[k])
	}
	return w.Flush()
}
