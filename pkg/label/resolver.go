// Package label determines the version label of the application currently
// deployed on an Elastic Beanstalk instance.
//
// The activity log only records the completion line until the instance is
// restarted, so the first label found there is persisted to a cache file and
// served from it afterwards. The cache is never invalidated automatically.
package label

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog"
)

const (
	DefaultActivityLog = "/var/log/eb-activity.log"
	DefaultCacheFile   = "/var/app/eb-version-tagger/version_label"
)

// IOError reports a failed filesystem operation on the cache or activity log.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err) }

func (e *IOError) Unwrap() error { return e.Err }

type Resolver struct {
	activityLog string
	cache       *Cache
	fs          FileSystem
	logger      zerolog.Logger
}

type Option func(*Resolver)

// WithFileSystem swaps the filesystem used for both the cache and the log.
func WithFileSystem(fsys FileSystem) Option {
	return func(r *Resolver) { r.fs = fsys }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// NewResolver builds a Resolver. Empty paths fall back to the defaults.
func NewResolver(cacheFile, activityLog string, opts ...Option) *Resolver {
	if cacheFile == "" {
		cacheFile = DefaultCacheFile
	}
	if activityLog == "" {
		activityLog = DefaultActivityLog
	}
	r := &Resolver{
		activityLog: activityLog,
		fs:          OSFileSystem{},
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.cache = NewCache(cacheFile, r.fs)
	return r
}

// Resolve returns the current version label, or "" when none can be determined.
// A missing activity log is not an error.
func (r *Resolver) Resolve() (string, error) {
	cached, ok, err := r.cache.Load()
	if err != nil {
		return "", err
	}
	if ok {
		r.logger.Debug().Str("label", cached).Str("cache", r.cache.Path).Msg("using cached version label")
		return cached, nil
	}

	if _, err := r.fs.Stat(r.activityLog); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Debug().Str("activity_log", r.activityLog).Msg("activity log not found")
			return "", nil
		}
		return "", &IOError{Op: "stat activity log", Path: r.activityLog, Err: err}
	}

	label, err := r.scanActivityLog()
	if err != nil {
		return "", err
	}
	if label == "" {
		r.logger.Warn().Str("activity_log", r.activityLog).Msg("no completed application update in activity log")
		return "", nil
	}

	if err := r.cache.Store(label); err != nil {
		return "", err
	}
	r.logger.Info().Str("label", label).Str("cache", r.cache.Path).Msg("cached version label")
	return label, nil
}

func (r *Resolver) scanActivityLog() (string, error) {
	f, err := r.fs.Open(r.activityLog)
	if err != nil {
		return "", &IOError{Op: "open activity log", Path: r.activityLog, Err: err}
	}
	defer f.Close()

	label, err := ParseActivityLog(f)
	if err != nil {
		return "", &IOError{Op: "read activity log", Path: r.activityLog, Err: err}
	}
	return label, nil
}
