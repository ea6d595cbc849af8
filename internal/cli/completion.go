package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/setlistgen/pkg/setlist"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for setlistgen.

Bash:
  $ source <(setlistgen completion bash)

Zsh:
  $ setlistgen completion zsh > "${fpath[1]}/_setlistgen"

Fish:
  $ setlistgen completion fish > ~/.config/fish/completions/setlistgen.fish

PowerShell:
  PS> setlistgen completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

// completeFormats completes --format values.
func completeFormats(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, len(setlist.Formats))
	for i, f := range setlist.Formats {
		names[i] = string(f)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
