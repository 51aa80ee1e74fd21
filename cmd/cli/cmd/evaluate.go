package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run an admission pass immediately",
	Long: `Trigger one admission pass without waiting for the next scheduled tick.

The pass promotes eligible backlog orders into preparation up to the free
capacity, exactly as a periodic tick would. The endpoint is rate limited;
a 429 response means a recent trigger already covered the backlog.`,
	Run: func(cmd *cobra.Command, args []string) {
		client := NewSchedulerClient(viper.GetString("url"))

		result, err := client.Evaluate()
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Request failed with status code: %d\n", apiErr.StatusCode)
			} else {
				cmd.Printf("Failed to send request: %v\n", err)
			}
			return
		}

		cmd.Printf("Admission pass complete\n")
		cmd.Printf("%sFree slots:%s  %d\n", colorDim, colorReset, result.FreeSlots)
		cmd.Printf("%sConsidered:%s  %d\n", colorDim, colorReset, result.Considered)
		cmd.Printf("%sPromoted:%s    %s%d%s\n", colorDim, colorReset, colorGreen, result.Promoted, colorReset)
		cmd.Printf("%sSkipped:%s     %d\n", colorDim, colorReset, result.Skipped)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}
