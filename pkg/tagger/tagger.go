// Package tagger ties the label resolver, build metadata and the Elastic
// Beanstalk tag client together.
package tagger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/eb-version-tagger/pkg/beanstalk"
	"github.com/eb-version-tagger/pkg/config"
	"github.com/eb-version-tagger/pkg/vcs"
)

// ErrNoLabel is returned when no label was given and none could be resolved.
var ErrNoLabel = errors.New("no version label: none given and none found in label cache or activity log")

type LabelResolver interface {
	Resolve() (string, error)
}

type TagClient interface {
	AddTags(ctx context.Context, application, label string, tags beanstalk.TagSet) error
	RemoveTags(ctx context.Context, application, label string, keys ...string) error
	ListTags(ctx context.Context, application, label string) (beanstalk.TagSet, error)
}

type Tagger struct {
	resolver   LabelResolver
	client     TagClient
	repoClient vcs.RepoClient
	config     *config.Config
	logger     zerolog.Logger
}

// New builds a Tagger. repoClient may be nil when no GitHub repo is configured.
func New(resolver LabelResolver, client TagClient, repoClient vcs.RepoClient, cfg *config.Config, logger zerolog.Logger) *Tagger {
	return &Tagger{
		resolver:   resolver,
		client:     client,
		repoClient: repoClient,
		config:     cfg,
		logger:     logger,
	}
}

// CurrentLabel returns the deployed version label, or ErrNoLabel.
func (t *Tagger) CurrentLabel() (string, error) {
	label, err := t.resolver.Resolve()
	if err != nil {
		return "", fmt.Errorf("resolve version label: %w", err)
	}
	if label == "" {
		return "", ErrNoLabel
	}
	return label, nil
}

func (t *Tagger) labelOrCurrent(label string) (string, error) {
	if label != "" {
		return label, nil
	}
	return t.CurrentLabel()
}

// Tag adds configured static tags, build tags and the given tags to the
// version. Explicit tags win over build tags, which win over static tags.
// It returns the label used and the tags sent.
func (t *Tagger) Tag(ctx context.Context, label string, tags beanstalk.TagSet) (string, beanstalk.TagSet, error) {
	label, err := t.labelOrCurrent(label)
	if err != nil {
		return "", nil, err
	}

	merged := beanstalk.TagSet{}
	for k, v := range t.config.Tags {
		merged[k] = v
	}

	if t.config.GitHub.Repo != "" && t.repoClient != nil {
		info, err := vcs.BuildInfoFor(ctx, t.repoClient, t.config.GitHub.Repo, t.config.GitHub.Ref)
		if err != nil {
			return "", nil, fmt.Errorf("build info: %w", err)
		}
		for k, v := range info.Tags() {
			merged[k] = v
		}
	}

	for k, v := range tags {
		merged[k] = v
	}

	if t.config.DryRun {
		t.logger.Info().Str("label", label).Interface("tags", merged).Msg("dry-run: not tagging application version")
		return label, merged, nil
	}

	if err := t.client.AddTags(ctx, t.config.Application, label, merged); err != nil {
		return "", nil, fmt.Errorf("tag version %s: %w", label, err)
	}
	return label, merged, nil
}

// Tags lists the tags on the version.
func (t *Tagger) Tags(ctx context.Context, label string) (string, beanstalk.TagSet, error) {
	label, err := t.labelOrCurrent(label)
	if err != nil {
		return "", nil, err
	}
	tags, err := t.client.ListTags(ctx, t.config.Application, label)
	if err != nil {
		return "", nil, fmt.Errorf("list tags for version %s: %w", label, err)
	}
	return label, tags, nil
}

// Untag removes keys from the version.
func (t *Tagger) Untag(ctx context.Context, label string, keys []string) (string, error) {
	label, err := t.labelOrCurrent(label)
	if err != nil {
		return "", err
	}

	if t.config.DryRun {
		t.logger.Info().Str("label", label).Strs("keys", keys).Msg("dry-run: not removing tags")
		return label, nil
	}

	if err := t.client.RemoveTags(ctx, t.config.Application, label, keys...); err != nil {
		return "", fmt.Errorf("untag version %s: %w", label, err)
	}
	return label, nil
}

// ParseTagArgs turns key=value arguments into a TagSet. Values may contain '='.
func ParseTagArgs(args []string) (beanstalk.TagSet, error) {
	tags := make(beanstalk.TagSet, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid tag %q: expected key=value", arg)
		}
		k = strings.TrimSpace(k)
		if k == "" {
			return nil, fmt.Errorf("invalid tag %q: empty key", arg)
		}
		tags[k] = v
	}
	return tags, nil
}
