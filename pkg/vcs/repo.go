package vcs

import "context"

const (
	TagRepo    = "git:repo"
	TagCommit  = "git:commit"
	TagRelease = "git:release"
)

// BuildInfo identifies the source a deployed version was built from.
type BuildInfo struct {
	Repo    string
	Commit  string
	Release string
}

// Tags renders the build info as version tags. Empty fields are omitted.
func (b BuildInfo) Tags() map[string]string {
	tags := make(map[string]string, 3)
	if b.Repo != "" {
		tags[TagRepo] = b.Repo
	}
	if b.Commit != "" {
		tags[TagCommit] = b.Commit
	}
	if b.Release != "" {
		tags[TagRelease] = b.Release
	}
	return tags
}

type RepoClient interface {
	// ResolveRef returns the commit SHA a branch, tag or SHA prefix points to.
	ResolveRef(ctx context.Context, owner, repo, ref string) (string, error)

	// GetLatestRelease returns the latest release tag name, or empty string if none.
	GetLatestRelease(ctx context.Context, owner, repo string) (string, error)
}
