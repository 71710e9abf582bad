package vcs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v60/github"
)

type GitHubClient struct {
	client *github.Client
}

func NewGitHubClient(client *github.Client) *GitHubClient {
	return &GitHubClient{client: client}
}

// NewGitHubClientFromToken builds an API client; token may be empty for public repos.
func NewGitHubClientFromToken(token string) *GitHubClient {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return NewGitHubClient(client)
}

func (g *GitHubClient) ResolveRef(ctx context.Context, owner, repo, ref string) (string, error) {
	sha, _, err := g.client.Repositories.GetCommitSHA1(ctx, owner, repo, ref, "")
	if err != nil {
		return "", fmt.Errorf("resolve %s in %s/%s: %w", ref, owner, repo, err)
	}
	return strings.TrimSpace(sha), nil
}

func (g *GitHubClient) GetLatestRelease(ctx context.Context, owner, repo string) (string, error) {
	release, _, err := g.client.Repositories.GetLatestRelease(ctx, owner, repo)
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("get latest release for %s/%s: %w", owner, repo, err)
	}
	return release.GetTagName(), nil
}

// BuildInfoFor resolves ref and the repository's latest release. repoURL is
// anything ParseGitHubRepo accepts.
func BuildInfoFor(ctx context.Context, client RepoClient, repoURL, ref string) (BuildInfo, error) {
	owner, repo, err := ParseGitHubRepo(repoURL)
	if err != nil {
		return BuildInfo{}, err
	}
	if ref == "" {
		ref = "HEAD"
	}

	sha, err := client.ResolveRef(ctx, owner, repo, ref)
	if err != nil {
		return BuildInfo{}, err
	}
	release, err := client.GetLatestRelease(ctx, owner, repo)
	if err != nil {
		return BuildInfo{}, err
	}
	return BuildInfo{
		Repo:    owner + "/" + repo,
		Commit:  sha,
		Release: release,
	}, nil
}

func isNotFound(err error) bool {
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}

func ParseGitHubRepo(repoURL string) (owner, repo string, err error) {
	repoURL = strings.TrimPrefix(repoURL, "https://")
	repoURL = strings.TrimPrefix(repoURL, "http://")
	repoURL = strings.TrimPrefix(repoURL, "git@github.com:")
	repoURL = strings.TrimPrefix(repoURL, "github.com/")
	repoURL = strings.TrimSuffix(repoURL, "/")
	repoURL = strings.TrimSuffix(repoURL, ".git")

	parts := strings.SplitN(repoURL, "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("cannot parse GitHub repo from %q", repoURL)
	}
	return parts[0], parts[1], nil
}
