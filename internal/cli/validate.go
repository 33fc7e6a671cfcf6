package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"starbot/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration file and list the configured accounts",
	RunE:  validateAction,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateAction(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(cmd.Context(), nil); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: ok (interval %s, post delay %s, %d workers, port %d)\n",
		configPath, cfg.Interval(), cfg.PostDelay(), cfg.Bot.Workers, cfg.Server.Port)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tSOURCE\tDESTINATION")
	for _, acct := range cfg.AccountRecords() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", acct.Name, acct.Source.Kind, acct.Destination.Kind)
	}
	return tw.Flush()
}
