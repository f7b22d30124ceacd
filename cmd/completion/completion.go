// Package completion provides shell completion generation commands.
package completion

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCommand returns the completion command.
func NewCommand(rootCmd *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completions",
		Long: `Generate shell completion scripts for sheetsplit.

Install instructions:
  Bash:       sheetsplit completion bash > /etc/bash_completion.d/sheetsplit
              echo 'source <(sheetsplit completion bash)' >> ~/.bashrc
  Zsh:        sheetsplit completion zsh > ~/.zsh/completions/_sheetsplit
  Fish:       sheetsplit completion fish > ~/.config/fish/completions/sheetsplit.fish
  PowerShell: sheetsplit completion powershell >> $PROFILE`,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				fmt.Fprintln(out, "# sheetsplit bash completion")
				fmt.Fprintln(out, "# Install: sheetsplit completion bash > /etc/bash_completion.d/sheetsplit")
				fmt.Fprintln(out)
				return rootCmd.GenBashCompletion(out)
			case "zsh":
				fmt.Fprintln(out, "# sheetsplit zsh completion")
				fmt.Fprintln(out, "# Install: sheetsplit completion zsh > ~/.zsh/completions/_sheetsplit")
				fmt.Fprintln(out)
				return rootCmd.GenZshCompletion(out)
			case "fish":
				fmt.Fprintln(out, "# sheetsplit fish completion")
				fmt.Fprintln(out, "# Install: sheetsplit completion fish > ~/.config/fish/completions/sheetsplit.fish")
				fmt.Fprintln(out)
				return rootCmd.GenFishCompletion(out, true)
			case "powershell":
				fmt.Fprintln(out, "# sheetsplit PowerShell completion")
				fmt.Fprintln(out, "# Install: sheetsplit completion powershell >> $PROFILE")
				fmt.Fprintln(out)
				return rootCmd.GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish, powershell)", args[0])
			}
		},
	}
	return cmd
}
