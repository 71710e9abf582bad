package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/eb-version-tagger/pkg/beanstalk"
	"github.com/eb-version-tagger/pkg/config"
	"github.com/eb-version-tagger/pkg/label"
	"github.com/eb-version-tagger/pkg/reporter"
	"github.com/eb-version-tagger/pkg/tagger"
	"github.com/eb-version-tagger/pkg/vcs"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(2)
	}
}

// app carries the settings shared by every subcommand.
type app struct {
	cfg *config.Config
	out io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:           "eb-version-tagger",
		Short:         "Tag Elastic Beanstalk application versions with deployment metadata",
		Long:          `Determines the application version currently deployed on this instance and reads or writes tags on it.`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", config.DefaultPath, "Path to config file")
	flags.String("env-file", "", "Load environment variables (AWS_*, GITHUB_TOKEN) from this file")
	flags.String("region", "", "AWS region (defaults to AWS_REGION / shared config)")
	flags.String("application", "", "Elastic Beanstalk application name (defaults to EB_APPLICATION_NAME)")
	flags.String("label-cache", "", "Path of the cached version label")
	flags.String("activity-log", "", "Path of the Elastic Beanstalk activity log")
	flags.String("output", "table", "Output format: json | table")
	flags.String("github-repo", "", "GitHub repo (owner/repo) to derive build tags from")
	flags.String("github-ref", "", "Git ref to resolve for the commit tag (default HEAD)")
	flags.String("github-token", "", "GitHub token for API access (defaults to GITHUB_TOKEN)")
	flags.Bool("dry-run", false, "Print the tags that would be written without calling AWS")
	flags.BoolP("verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(newLabelCmd(a), newTagCmd(a))
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()

	if envFile, _ := flags.GetString("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	cfgPath, _ := flags.GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || flags.Changed("config") {
			log.Warn().Err(err).Str("path", cfgPath).Msg("could not load config file; using defaults")
		}
		cfg = config.Default()
	}
	a.cfg = config.MergeFlags(cfg, flags)
	if err := a.cfg.ValidateOutput(); err != nil {
		return err
	}

	if a.cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	return nil
}

func (a *app) resolver() *label.Resolver {
	return label.NewResolver(a.cfg.LabelCache, a.cfg.ActivityLog, label.WithLogger(log.Logger))
}

func (a *app) reporter() reporter.Reporter {
	return reporter.New(a.cfg.Output, a.out)
}

func (a *app) tagger(cmd *cobra.Command) (*tagger.Tagger, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := beanstalk.Load(cmd.Context(), a.cfg.Region, log.Logger)
	if err != nil {
		return nil, err
	}

	var repoClient vcs.RepoClient
	if a.cfg.GitHub.Repo != "" {
		repoClient = vcs.NewGitHubClientFromToken(a.cfg.GitHub.Token)
	}
	return tagger.New(a.resolver(), client, repoClient, a.cfg, log.Logger), nil
}

func newLabelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "label",
		Short: "Print the version label currently deployed on this instance",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			l, err := a.resolver().Resolve()
			if err != nil {
				return err
			}
			return a.reporter().Label(l)
		},
	}
}

func newTagCmd(a *app) *cobra.Command {
	tagCmd := &cobra.Command{
		Use:   "tag",
		Short: "Read or write tags on an application version",
	}
	tagCmd.PersistentFlags().String("label", "", "Version label (defaults to the currently deployed one)")

	addCmd := &cobra.Command{
		Use:   "add key=value...",
		Short: "Add or overwrite tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := tagger.ParseTagArgs(args)
			if err != nil {
				return err
			}
			t, err := a.tagger(cmd)
			if err != nil {
				return err
			}
			versionLabel, _ := cmd.Flags().GetString("label")
			l, sent, err := t.Tag(cmd.Context(), versionLabel, tags)
			if err != nil {
				return err
			}
			return a.reporter().Tags(l, sent)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := a.tagger(cmd)
			if err != nil {
				return err
			}
			versionLabel, _ := cmd.Flags().GetString("label")
			l, tags, err := t.Tags(cmd.Context(), versionLabel)
			if err != nil {
				return err
			}
			return a.reporter().Tags(l, tags)
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove key...",
		Short: "Remove tags by key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.tagger(cmd)
			if err != nil {
				return err
			}
			versionLabel, _ := cmd.Flags().GetString("label")
			l, err := t.Untag(cmd.Context(), versionLabel, args)
			if err != nil {
				return err
			}
			log.Info().Str("label", l).Strs("keys", args).Msg("removed tags")
			return nil
		},
	}

	tagCmd.AddCommand(addCmd, listCmd, removeCmd)
	return tagCmd
}
