package label

import (
	"bufio"
	"errors"
	"io"
	"regexp"
	"strings"
)

// completedUpdate matches the deployment agent's completion record, e.g.
//
//	[2023-02-15T10:04:11.512Z] INFO [2841] - [Application update app-v2@3/AppDeployStage1] : Completed activity.
//
// The label is everything between the marker and the last '@' inside the brackets.
var completedUpdate = regexp.MustCompile(`(?i)\[Application update ([^\]]+)@[^\]]*\] : Completed activity\.`)

// ParseActivityLog returns the version label of the last completed application
// update in r, or "" when no line matches. Only read errors are returned.
func ParseActivityLog(r io.Reader) (string, error) {
	var label string

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if l, ok := MatchCompletedUpdate(line); ok {
			label = l
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return label, nil
}

// MatchCompletedUpdate extracts the version label from a single log line.
// When the line holds several completion records the last one wins.
func MatchCompletedUpdate(line string) (string, bool) {
	var label string
	for _, m := range completedUpdate.FindAllStringSubmatch(line, -1) {
		if l := strings.TrimSpace(m[1]); l != "" {
			label = l
		}
	}
	return label, label != ""
}
