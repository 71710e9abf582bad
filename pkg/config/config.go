package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const DefaultPath = ".eb-version-tagger.yml"

type Config struct {
	Region      string            `yaml:"region"`
	Application string            `yaml:"application"`
	LabelCache  string            `yaml:"label_cache"`
	ActivityLog string            `yaml:"activity_log"`
	Output      string            `yaml:"output"`
	Tags        map[string]string `yaml:"tags"`
	GitHub      GitHub            `yaml:"github"`
	DryRun      bool              `yaml:"-"`
	Verbose     bool              `yaml:"-"`
}

type GitHub struct {
	Repo  string `yaml:"repo"`
	Ref   string `yaml:"ref"`
	Token string `yaml:"-"`
}

func Default() *Config {
	return &Config{
		Region:      os.Getenv("AWS_REGION"),
		Application: os.Getenv("EB_APPLICATION_NAME"),
		LabelCache:  "/var/app/eb-version-tagger/version_label",
		ActivityLog: "/var/log/eb-activity.log",
		Output:      "table",
		GitHub: GitHub{
			Token: os.Getenv("GITHUB_TOKEN"),
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MergeFlags overlays flags the user set explicitly on top of cfg.
func MergeFlags(cfg *Config, flags *pflag.FlagSet) *Config {
	if v, err := flags.GetString("region"); err == nil && v != "" {
		cfg.Region = v
	}
	if v, err := flags.GetString("application"); err == nil && v != "" {
		cfg.Application = v
	}
	if v, err := flags.GetString("label-cache"); err == nil && v != "" {
		cfg.LabelCache = v
	}
	if v, err := flags.GetString("activity-log"); err == nil && v != "" {
		cfg.ActivityLog = v
	}
	if v, err := flags.GetString("output"); err == nil && v != "" && flags.Changed("output") {
		cfg.Output = v
	}
	if v, err := flags.GetString("github-repo"); err == nil && v != "" {
		cfg.GitHub.Repo = v
	}
	if v, err := flags.GetString("github-ref"); err == nil && v != "" {
		cfg.GitHub.Ref = v
	}
	if v, err := flags.GetString("github-token"); err == nil && v != "" {
		cfg.GitHub.Token = v
	}
	if v, err := flags.GetBool("dry-run"); err == nil {
		cfg.DryRun = v
	}
	if v, err := flags.GetBool("verbose"); err == nil {
		cfg.Verbose = v
	}
	return cfg
}

// Validate checks the settings needed to talk to Elastic Beanstalk.
func (c *Config) Validate() error {
	if c.Application == "" {
		return fmt.Errorf("application name is required (--application, EB_APPLICATION_NAME or config file)")
	}
	return c.ValidateOutput()
}

// ValidateOutput checks the output format alone; every command needs it.
func (c *Config) ValidateOutput() error {
	switch strings.ToLower(c.Output) {
	case "table", "json":
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want table or json)", c.Output)
	}
}
