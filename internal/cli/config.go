package cli

import (
	"fmt"
	"os"
	"os/exec"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xabinapal/gitflip/internal/config"
)

// configPathOutput represents config path output for JSON.
type configPathOutput struct {
	ConfigFile   string `json:"config_file"`
	ConfigDir    string `json:"config_dir"`
	DataDir      string `json:"data_dir"`
	StateFile    string `json:"state_file"`
	SSHConfig    string `json:"ssh_config"`
	ConfigExists bool   `json:"config_exists"`
}

// settingOutput is one settings key and value.
type settingOutput struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// newConfigCmd creates the config command group.
func (cli *CLI) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage gitflip settings",
		Long: `Manage gitflip settings.

Settings live in config.yaml in the config directory and can be overridden
with GITFLIP_* environment variables, e.g. GITFLIP_DEFAULT_SCOPE=global or
GITFLIP_SSH_HOSTNAME=github.example.com.

Use 'gitflip config path' to see file locations.
Use 'gitflip config show' to list the effective settings.
Use 'gitflip config set <key> <value>' to change one.`,
	}

	cmd.AddCommand(
		cli.newConfigPathCmd(),
		cli.newConfigShowCmd(),
		cli.newConfigSetCmd(),
		cli.newConfigEditCmd(),
	)

	return cmd
}

// newConfigPathCmd creates the config path command.
func (cli *CLI) newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			writer, err := cli.output(cmd)
			if err != nil {
				return err
			}

			_, configErr := os.Stat(cli.Paths.ConfigFile)
			output := configPathOutput{
				ConfigFile:   cli.Paths.ConfigFile,
				ConfigDir:    cli.Paths.ConfigDir,
				DataDir:      cli.Paths.DataDir,
				StateFile:    cli.Paths.StateFile,
				SSHConfig:    cli.SSH.ConfigPath(),
				ConfigExists: configErr == nil,
			}

			return writer.Write(output, func() {
				w := writer.Writer()
				fmt.Fprintln(w, "Configuration paths:")
				fmt.Fprintf(w, "  Config file:  %s\n", output.ConfigFile)
				fmt.Fprintf(w, "  Config dir:   %s\n", output.ConfigDir)
				fmt.Fprintf(w, "  Data dir:     %s\n", output.DataDir)
				fmt.Fprintf(w, "  Profiles:     %s\n", output.StateFile)
				fmt.Fprintf(w, "  SSH config:   %s\n", output.SSHConfig)

				fmt.Fprintln(w, "\nStatus:")
				if output.ConfigExists {
					fmt.Fprintln(w, "  Config file exists")
				} else {
					fmt.Fprintln(w, "  Config file does not exist (defaults in use)")
				}
			})
		},
	}
}

// newConfigShowCmd creates the config show command.
func (cli *CLI) newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [key]",
		Short: "Show effective settings",
		Args:  cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return config.Keys(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			writer, err := cli.output(cmd)
			if err != nil {
				return err
			}

			keys := config.Keys()
			if len(args) > 0 {
				keys = args
			}
			settings := make([]settingOutput, 0, len(keys))
			for _, key := range keys {
				value, err := cli.Config.Get(key)
				if err != nil {
					return err
				}
				settings = append(settings, settingOutput{Key: key, Value: value})
			}

			return writer.Write(settings, func() {
				if len(args) > 0 {
					fmt.Fprintln(writer.Writer(), settings[0].Value)
					return
				}
				w := tabwriter.NewWriter(writer.Writer(), 0, 0, 2, ' ', 0)
				for _, s := range settings {
					fmt.Fprintf(w, "%s\t%s\n", s.Key, s.Value)
				}
				// #nosec G104 - Flush error on stdout; if write fails, user will see incomplete output
				_ = w.Flush()
			})
		},
	}
}

// newConfigSetCmd creates the config set command.
func (cli *CLI) newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting",
		Args:  cobra.ExactArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return config.Keys(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.Config.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := cli.Config.Save(); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}
			value, _ := cli.Config.Get(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], value)
			return nil
		},
	}
}

// newConfigEditCmd creates the config edit command.
func (cli *CLI) newConfigEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open the settings file in an editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			editor := os.Getenv("EDITOR")
			if editor == "" {
				editor = os.Getenv("VISUAL")
			}
			if editor == "" {
				// Try common editors
				for _, e := range []string{"vim", "vi", "nano", "notepad"} {
					if _, err := exec.LookPath(e); err == nil {
						editor = e
						break
					}
				}
			}
			if editor == "" {
				return fmt.Errorf("no editor found: set $EDITOR environment variable")
			}

			configPath := cli.Config.FilePath()
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				if err := cli.Config.Save(); err != nil {
					return fmt.Errorf("failed to create config file: %w", err)
				}
			}

			// #nosec G204 - editor is from $EDITOR env var (user-controlled but expected), configPath is from config file path (controlled)
			editorCmd := exec.CommandContext(cmd.Context(), editor, configPath)
			editorCmd.Stdin = os.Stdin
			editorCmd.Stdout = cmd.OutOrStdout()
			editorCmd.Stderr = cmd.ErrOrStderr()

			return editorCmd.Run()
		},
	}
}
