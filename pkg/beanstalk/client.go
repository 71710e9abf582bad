// Package beanstalk reads and writes tags on Elastic Beanstalk application
// versions, addressed by application name and version label.
package beanstalk

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/elasticbeanstalk"
	"github.com/aws/aws-sdk-go-v2/service/elasticbeanstalk/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
)

const apiVersion = "2010-12-01"

// API is the subset of the Elastic Beanstalk control plane used by Client.
type API interface {
	DescribeApplicationVersions(ctx context.Context, params *elasticbeanstalk.DescribeApplicationVersionsInput, optFns ...func(*elasticbeanstalk.Options)) (*elasticbeanstalk.DescribeApplicationVersionsOutput, error)
	UpdateTagsForResource(ctx context.Context, params *elasticbeanstalk.UpdateTagsForResourceInput, optFns ...func(*elasticbeanstalk.Options)) (*elasticbeanstalk.UpdateTagsForResourceOutput, error)
	ListTagsForResource(ctx context.Context, params *elasticbeanstalk.ListTagsForResourceInput, optFns ...func(*elasticbeanstalk.Options)) (*elasticbeanstalk.ListTagsForResourceOutput, error)
}

// Version is an application version as reported by the control plane.
type Version struct {
	ApplicationName string
	Label           string
	ARN             string
	Description     string
	Status          string
	Created         time.Time
}

// TagSet maps tag keys to values.
type TagSet map[string]string

var ErrNotFound = errors.New("application version not found")

type NotFoundError struct {
	Application string
	Label       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: application %q, label %q", ErrNotFound, e.Application, e.Label)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// RemoteAPIError wraps any failure returned by the control plane.
type RemoteAPIError struct {
	Operation string
	Err       error
}

func (e *RemoteAPIError) Error() string { return fmt.Sprintf("%s: %v", e.Operation, e.Err) }

func (e *RemoteAPIError) Unwrap() error { return e.Err }

// Code returns the service error code, or "" for transport failures.
func (e *RemoteAPIError) Code() string {
	var apiErr smithy.APIError
	if errors.As(e.Err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

type Client struct {
	api    API
	logger zerolog.Logger
}

func New(api API, logger zerolog.Logger) *Client {
	return &Client{api: api, logger: logger}
}

// Load builds a Client from the default AWS credential chain. An empty region
// leaves region resolution to the SDK (AWS_REGION, shared config).
func Load(ctx context.Context, region string, logger zerolog.Logger) (*Client, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	logger.Debug().Str("region", cfg.Region).Str("api_version", apiVersion).Msg("elastic beanstalk client configured")
	return New(elasticbeanstalk.NewFromConfig(cfg), logger), nil
}

// Versions returns every application version matching labels, in the order
// the control plane reports them.
func (c *Client) Versions(ctx context.Context, application string, labels ...string) ([]Version, error) {
	out, err := c.api.DescribeApplicationVersions(ctx, &elasticbeanstalk.DescribeApplicationVersionsInput{
		ApplicationName: aws.String(application),
		VersionLabels:   labels,
	})
	if err != nil {
		return nil, c.remoteErr("DescribeApplicationVersions", application, labels, err)
	}

	versions := make([]Version, 0, len(out.ApplicationVersions))
	for _, v := range out.ApplicationVersions {
		versions = append(versions, versionFrom(v))
	}
	return versions, nil
}

// FindVersion resolves a single label. When the control plane returns more
// than one record a warning is logged and the first one is used.
func (c *Client) FindVersion(ctx context.Context, application, label string) (Version, error) {
	versions, err := c.Versions(ctx, application, label)
	if err != nil {
		return Version{}, err
	}
	if len(versions) == 0 {
		return Version{}, &NotFoundError{Application: application, Label: label}
	}
	if len(versions) > 1 {
		c.logger.Warn().
			Str("application", application).
			Str("label", label).
			Int("matches", len(versions)).
			Str("arn", versions[0].ARN).
			Msg("more than one application version found for label; using the first")
	}
	return versions[0], nil
}

// AddTags adds or overwrites tags on the version. Tags not named are untouched.
// The version is looked up even when tags is empty so unknown labels fail.
func (c *Client) AddTags(ctx context.Context, application, label string, tags TagSet) error {
	v, err := c.FindVersion(ctx, application, label)
	if err != nil {
		return err
	}
	// UpdateTagsForResource rejects requests with nothing to change.
	if len(tags) == 0 {
		return nil
	}

	_, err = c.api.UpdateTagsForResource(ctx, &elasticbeanstalk.UpdateTagsForResourceInput{
		ResourceArn: aws.String(v.ARN),
		TagsToAdd:   toAWSTags(tags),
	})
	if err != nil {
		return c.remoteErr("UpdateTagsForResource", application, []string{label}, err)
	}
	c.logger.Info().Str("arn", v.ARN).Int("count", len(tags)).Msg("tagged application version")
	return nil
}

// RemoveTags deletes the given keys from the version.
func (c *Client) RemoveTags(ctx context.Context, application, label string, keys ...string) error {
	v, err := c.FindVersion(ctx, application, label)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	_, err = c.api.UpdateTagsForResource(ctx, &elasticbeanstalk.UpdateTagsForResourceInput{
		ResourceArn:  aws.String(v.ARN),
		TagsToRemove: keys,
	})
	if err != nil {
		return c.remoteErr("UpdateTagsForResource", application, []string{label}, err)
	}
	c.logger.Info().Str("arn", v.ARN).Strs("keys", keys).Msg("removed tags from application version")
	return nil
}

func (c *Client) ListTags(ctx context.Context, application, label string) (TagSet, error) {
	v, err := c.FindVersion(ctx, application, label)
	if err != nil {
		return nil, err
	}

	out, err := c.api.ListTagsForResource(ctx, &elasticbeanstalk.ListTagsForResourceInput{
		ResourceArn: aws.String(v.ARN),
	})
	if err != nil {
		return nil, c.remoteErr("ListTagsForResource", application, []string{label}, err)
	}
	return fromAWSTags(out.ResourceTags), nil
}

func (c *Client) remoteErr(op, application string, labels []string, err error) error {
	rerr := &RemoteAPIError{Operation: op, Err: err}
	c.logger.Error().
		Err(err).
		Str("operation", op).
		Str("application", application).
		Strs("labels", labels).
		Str("code", rerr.Code()).
		Msg("elastic beanstalk request failed")
	return rerr
}

func versionFrom(v types.ApplicationVersionDescription) Version {
	return Version{
		ApplicationName: aws.ToString(v.ApplicationName),
		Label:           aws.ToString(v.VersionLabel),
		ARN:             aws.ToString(v.ApplicationVersionArn),
		Description:     aws.ToString(v.Description),
		Status:          string(v.Status),
		Created:         aws.ToTime(v.DateCreated),
	}
}

// toAWSTags orders tags by key so requests are deterministic.
func toAWSTags(tags TagSet) []types.Tag {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]types.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}
	return out
}

func fromAWSTags(tags []types.Tag) TagSet {
	out := make(TagSet, len(tags))
	for _, t := range tags {
		out[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return out
}
