package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var delayCmd = &cobra.Command{
	Use:   "delay",
	Short: "Estimate the queueing delay for a new ASAP order",
	Long:  `Predict how long a new ASAP order would wait before preparation starts, based on current kitchen load and recent completion history.`,
	Run: func(cmd *cobra.Command, args []string) {
		client := NewSchedulerClient(viper.GetString("url"))

		result, err := client.Delay()
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Request failed with status code: %d\n", apiErr.StatusCode)
			} else {
				cmd.Printf("Failed to send request: %v\n", err)
			}
			return
		}

		if result.DelaySeconds == 0 {
			cmd.Println("No delay expected: the kitchen has free capacity.")
			return
		}

		delay := time.Duration(result.DelaySeconds) * time.Second
		cmd.Printf("Estimated delay before preparation starts: %s%s%s\n", colorYellow, delay, colorReset)
	},
}

func init() {
	rootCmd.AddCommand(delayCmd)
}
