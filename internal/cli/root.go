// Package cli provides the command-line interface for gitflip.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/xabinapal/gitflip/internal/config"
	"github.com/xabinapal/gitflip/internal/gitexec"
	"github.com/xabinapal/gitflip/internal/gitident"
	"github.com/xabinapal/gitflip/internal/notify"
	"github.com/xabinapal/gitflip/internal/profile"
	"github.com/xabinapal/gitflip/internal/secrets"
	"github.com/xabinapal/gitflip/internal/sshconfig"
	"github.com/xabinapal/gitflip/internal/switcher"
)

// CLI holds the application state for the CLI.
type CLI struct {
	Config  *config.Config
	Paths   config.Paths
	Secrets secrets.Store
	Git     *gitexec.Git

	// Set by initialize.
	Store     *profile.Store
	Tokens    *secrets.Tokens
	SSH       *sshconfig.Editor
	Service   *switcher.Service
	Workspace string

	notifier notify.Notifier
	stdin    io.Reader
	log      pslog.Logger
	rootCmd  *cobra.Command

	// Flags
	verboseFlag bool
	outputFlag  string
	repoFlag    string
}

// Option configures a CLI.
type Option func(*CLI)

// WithSecrets replaces the OS keyring.
func WithSecrets(store secrets.Store) Option {
	return func(c *CLI) { c.Secrets = store }
}

// WithGit replaces the git runner.
func WithGit(git *gitexec.Git) Option {
	return func(c *CLI) { c.Git = git }
}

// WithNotifier replaces the desktop notifier built from the settings.
func WithNotifier(n notify.Notifier) Option {
	return func(c *CLI) { c.notifier = n }
}

// WithStdin sets where secrets and credential requests are read from.
func WithStdin(r io.Reader) Option {
	return func(c *CLI) { c.stdin = r }
}

// New creates a new CLI instance.
func New(opts ...Option) *CLI {
	cli := &CLI{
		Secrets: secrets.DefaultStore(),
		Git:     gitexec.New(),
		stdin:   os.Stdin,
	}
	for _, opt := range opts {
		opt(cli)
	}

	cli.rootCmd = &cobra.Command{
		Use:   "gitflip [command]",
		Short: "gitflip - git identity profile switcher",
		Long: `gitflip keeps several git identities (name, email, ssh key or HTTPS token)
as named profiles and switches between them with one command.

A switch writes user.name and user.email to the repository or global git
config, points the origin remote at the profile's ssh host alias or HTTPS
host, and caches HTTPS tokens in git's credential store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.initialize(cmd)
		},
	}

	// Global flags
	cli.rootCmd.PersistentFlags().BoolVarP(&cli.verboseFlag, "verbose", "v", false, "Enable debug logging")
	cli.rootCmd.PersistentFlags().StringVarP(&cli.outputFlag, "output", "o", "text", "Output format (text, json)")
	cli.rootCmd.PersistentFlags().StringVarP(&cli.repoFlag, "repo", "C", "", "Run as if gitflip was started in this directory")

	cli.addCommands()

	return cli
}

// addCommands adds all subcommands to the root command.
func (cli *CLI) addCommands() {
	cli.rootCmd.AddCommand(
		cli.newVersionCmd(),
		cli.newProfileCmd(),
		cli.newSwitchCmd(),
		cli.newStatusCmd(),
		cli.newSSHCmd(),
		cli.newTokenCmd(),
		cli.newConfigCmd(),
		cli.newDoctorCmd(),
		cli.newCredentialCmd(),
		cli.newCompletionCmd(),
	)
}

// skipInit lists commands that run without settings or profiles.
var skipInit = map[string]bool{
	"version":    true,
	"completion": true,
	"help":       true,
}

// initialize loads settings and profiles and wires the services.
func (cli *CLI) initialize(cmd *cobra.Command) error {
	if skipInit[cmd.Name()] {
		return nil
	}

	cli.Paths = config.GetPaths()
	cfg, err := config.LoadFrom(cli.Paths.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cli.Config = cfg

	cli.log = cli.logger(cmd)
	cmd.SetContext(pslog.ContextWithLogger(cmd.Context(), cli.log))
	cli.Git = cli.Git.With(gitexec.WithLogger(cli.log))

	if err := cli.Paths.EnsureDirs(); err != nil {
		return fmt.Errorf("failed to create data directories: %w", err)
	}
	bus := profile.NewBus(cli.log)
	bus.Subscribe(func(e profile.Event) {
		cli.log.Debug("profile store changed", "event", string(e.Type), "profile", e.ProfileID)
	})
	store, err := profile.NewStore(profile.NewFileBackend(cli.Paths.StateFile),
		profile.WithLogger(cli.log), profile.WithBus(bus))
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	cli.Store = store
	cli.Tokens = secrets.NewTokens(cli.Secrets)
	cli.SSH = sshconfig.NewEditor(cfg.SSH.Dir, cfg.SSH.Hostname, cli.log)

	dir := cli.repoFlag
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return fmt.Errorf("failed to determine working directory: %w", err)
		}
	}
	cli.Workspace, err = gitident.Detect(cmd.Context(), cli.Git, dir)
	if err != nil {
		// git missing or broken: keep going without a repository so that
		// profile management and doctor still work
		cli.log.Debug("repository detection failed", "dir", dir, "error", err)
		cli.Workspace = ""
	}

	if cli.notifier == nil {
		cli.notifier = notify.New(cfg.Notifications)
	}
	cli.Service = switcher.New(switcher.Options{
		Store:            store,
		Tokens:           cli.Tokens,
		Git:              cli.Git,
		Workspace:        cli.Workspace,
		SSH:              cli.SSH,
		CredentialHost:   cfg.Credential.Host,
		AutoSwitchRemote: cfg.AutoSwitchRemote,
		Notifier:         cli.notifier,
		Logger:           cli.log,
	})
	return nil
}

// logger returns the context logger, replaced by one at the configured
// level when --verbose or a non-default log.level asks for it.
func (cli *CLI) logger(cmd *cobra.Command) pslog.Logger {
	level := strings.ToLower(cli.Config.Log.Level)
	if cli.verboseFlag {
		level = "debug"
	}
	if level == "" || level == config.DefaultLogLevel {
		return pslog.Ctx(cmd.Context())
	}

	opts := pslog.Options{Mode: pslog.ModeConsole, MinLevel: pslog.InfoLevel}
	switch level {
	case "trace":
		opts.MinLevel = pslog.TraceLevel
	case "debug":
		opts.MinLevel = pslog.DebugLevel
	case "warn":
		opts.MinLevel = pslog.WarnLevel
	case "error":
		opts.MinLevel = pslog.ErrorLevel
	}
	return pslog.NewWithOptions(cmd.ErrOrStderr(), opts)
}

// output returns the writer for the --output format of cmd.
func (cli *CLI) output(cmd *cobra.Command) (*OutputWriter, error) {
	format, err := ParseOutputFormat(cli.outputFlag)
	if err != nil {
		return nil, err
	}
	return NewOutputWriter(format, cmd.OutOrStdout()), nil
}

// Root returns the root command.
func (cli *CLI) Root() *cobra.Command {
	return cli.rootCmd
}

// Execute runs the CLI with args.
func (cli *CLI) Execute(ctx context.Context, args []string) error {
	cli.rootCmd.SetArgs(args)
	return cli.rootCmd.ExecuteContext(ctx)
}
