package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// completionCommand prints shell completion scripts.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for inkframe.

To load completions:

Bash:
  $ source <(inkframe completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ inkframe completion bash > /etc/bash_completion.d/inkframe
  # macOS:
  $ inkframe completion bash > $(brew --prefix)/etc/bash_completion.d/inkframe

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ inkframe completion zsh > "${fpath[1]}/_inkframe"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ inkframe completion fish | source

  # To load completions for each session, execute once:
  $ inkframe completion fish > ~/.config/fish/completions/inkframe.fish

PowerShell:
  PS> inkframe completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> inkframe completion powershell > inkframe.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(stdout)
			}
			return nil
		},
	}

	return cmd
}

// registerTemplateCompletion completes a flag with template ids.
func (c *CLI) registerTemplateCompletion(cmd *cobra.Command, flag string) {
	_ = cmd.RegisterFlagCompletionFunc(flag, c.completeTemplateIDs)
}

// registerTemplateArgCompletion completes the first positional argument
// with template ids.
func (c *CLI) registerTemplateArgCompletion(cmd *cobra.Command) {
	cmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return c.completeTemplateIDs(cmd, args, toComplete)
	}
}

func (c *CLI) completeTemplateIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	reg, err := c.registry()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var ids []string
	for _, t := range reg.All() {
		if strings.HasPrefix(t.ID, toComplete) {
			ids = append(ids, t.ID+"\t"+t.Name)
		}
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
