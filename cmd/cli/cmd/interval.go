package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var intervalCmd = &cobra.Command{
	Use:   "interval [seconds]",
	Short: "Change the scheduler tick cadence",
	Long:  `Update how often the scheduler runs its admission pass. The new interval takes effect immediately and is persisted across restarts.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		seconds, err := strconv.Atoi(args[0])
		if err != nil || seconds < 1 {
			cmd.Printf("Invalid interval %q: must be a positive number of seconds\n", args[0])
			return
		}

		client := NewSchedulerClient(viper.GetString("url"))
		if err := client.UpdateInterval(seconds); err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Request failed with status code: %d\n", apiErr.StatusCode)
			} else {
				cmd.Printf("Failed to send request: %v\n", err)
			}
			return
		}

		cmd.Printf("Tick interval updated to %ds\n", seconds)
	},
}

func init() {
	rootCmd.AddCommand(intervalCmd)
}
