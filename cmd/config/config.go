// Package config provides CLI commands for configuration management.
package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetsplit/internal/config"
)

// NewCommand returns the config command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sheetsplit configuration",
		Long:  "View and modify sheetsplit settings stored in ~/.sheetsplit/config.yaml.",
	}

	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newSetCommand())
	cmd.AddCommand(newGetCommand())
	cmd.AddCommand(newResetCommand())
	cmd.AddCommand(newPathCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newEnvCommand())

	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			if jsonFlag {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(config.ToMap())
			}

			fmt.Fprint(cmd.OutOrStdout(), config.ShowConfig())
			return nil
		},
	}
}

func newSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Set a configuration value",
		Args:      cobra.ExactArgs(2),
		ValidArgs: config.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Set(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
			return nil
		},
	}
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "get <key>",
		Short:     "Get a configuration value",
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			val := config.Get(args[0])
			if val == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: (not set)\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], val)
			}
			return nil
		},
	}
}

func newResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset configuration to defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ResetConfig(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration reset to defaults")
			return nil
		},
	}
}

func newPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.ConfigPath())
		},
	}
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()

			issues := config.Validate()

			if jsonFlag {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(issues)
			}

			errors := 0
			warnings := 0
			for _, issue := range issues {
				switch issue.Severity {
				case "error":
					errors++
				case "warning":
					warnings++
				}
			}

			if errors == 0 && warnings == 0 {
				color.New(color.FgGreen).Fprintln(out, "Configuration is valid")
				return nil
			}

			fmt.Fprintf(out, "Config validation: %d errors, %d warnings\n\n", errors, warnings)

			for _, issue := range issues {
				switch issue.Severity {
				case "error":
					color.New(color.FgRed).Fprintf(out, "  %s: %s\n", issue.Key, issue.Message)
				case "warning":
					color.New(color.FgYellow).Fprintf(out, "  %s: %s\n", issue.Key, issue.Message)
				case "info":
					color.New(color.FgGreen).Fprintf(out, "  %s: %s\n", issue.Key, issue.Message)
				}
				if issue.Fix != "" {
					fmt.Fprintf(out, "   Fix: %s\n", issue.Fix)
				}
			}
			if errors > 0 {
				return fmt.Errorf("configuration has %d error(s)", errors)
			}
			return nil
		},
	}
}

func newEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Export configuration as environment variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()

			values := config.ToMap()
			env := make(map[string]string, len(values))
			for _, k := range config.Keys() {
				env[envName(k)] = values[k]
			}

			if jsonFlag {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(env)
			}

			for _, k := range config.Keys() {
				fmt.Fprintf(out, "export %s=%q\n", envName(k), values[k])
			}
			fmt.Fprintln(out, "# Add these to your ~/.zshrc or ~/.bashrc")
			return nil
		},
	}
}

func envName(key string) string {
	return config.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
