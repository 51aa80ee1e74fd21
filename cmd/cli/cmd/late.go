package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var lateCmd = &cobra.Command{
	Use:   "late",
	Short: "List orders past their expected finish",
	Long:  `List in-preparation orders whose expected finish time has already passed, with how many minutes late each one is.`,
	Run: func(cmd *cobra.Command, args []string) {
		client := NewSchedulerClient(viper.GetString("url"))

		result, err := client.LateOrders()
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Request failed with status code: %d\n", apiErr.StatusCode)
			} else {
				cmd.Printf("Failed to send request: %v\n", err)
			}
			return
		}

		if result.Count == 0 {
			cmd.Println("No late orders. Kitchen is on schedule.")
			return
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ORDER ID\tNUMBER\tEXPECTED FINISH\tLATE BY")
		for _, o := range result.Orders {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s%dm%s\n",
				o.OrderID, o.Number,
				o.ExpectedFinishAt.Format(time.RFC3339),
				colorRed, o.LateMinutes, colorReset)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(lateCmd)
}
