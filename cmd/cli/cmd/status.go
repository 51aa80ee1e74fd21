package cmd

import (
	"fmt"
	"time"

	"kitchenline/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Get the scheduler's run state",
	Long:  `Retrieve the periodic driver's state (OK, WARNING, STOPPED), its tick interval, tick count and last-tick time. WARNING means the loop is running but has not ticked within twice its interval.`,
	Run: func(cmd *cobra.Command, args []string) {
		client := NewSchedulerClient(viper.GetString("url"))

		status, err := client.Status()
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Request failed with status code: %d\n", apiErr.StatusCode)
			} else {
				cmd.Printf("Failed to send request: %v\n", err)
			}
			return
		}

		printStatus(cmd, *status)
	},
}

func printStatus(cmd *cobra.Command, status api.SchedulerStatusResponse) {
	icon := stateIcon(status.State)
	cmd.Printf("%s %sScheduler Status%s\n", icon, colorBold, colorReset)
	cmd.Println("──────────────────────────────")

	cmd.Printf("%sState:%s       %s\n", colorDim, colorReset, colorizeState(status.State))
	cmd.Printf("%sInterval:%s    %ds\n", colorDim, colorReset, status.IntervalSeconds)
	cmd.Printf("%sTicks:%s       %d\n", colorDim, colorReset, status.TickCount)
	cmd.Printf("%sStarted:%s     %s\n", colorDim, colorReset, formatTimeWithRelative(status.StartedAt))
	cmd.Printf("%sLast tick:%s   %s\n", colorDim, colorReset, formatTimeWithRelative(status.LastTickAt))
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func stateIcon(state string) string {
	switch state {
	case api.SchedulerStateOK:
		return colorGreen + "✓" + colorReset
	case api.SchedulerStateWarning:
		return colorYellow + "⚠" + colorReset
	case api.SchedulerStateStopped:
		return colorRed + "✗" + colorReset
	default:
		return "•"
	}
}

func colorizeState(state string) string {
	icon := stateIcon(state)
	switch state {
	case api.SchedulerStateOK:
		return icon + " " + colorGreen + state + colorReset
	case api.SchedulerStateWarning:
		return icon + " " + colorYellow + state + colorReset
	case api.SchedulerStateStopped:
		return icon + " " + colorRed + state + colorReset
	default:
		return state
	}
}

func formatTimeWithRelative(t *time.Time) string {
	if t == nil {
		return "-"
	}
	relative := relativeTime(*t)
	return fmt.Sprintf("%s %s(%s ago)%s", t.Format("Mon, 02 Jan 2006 15:04:05 MST"), colorDim, relative, colorReset)
}

func relativeTime(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return fmt.Sprintf("%ds", int(duration.Seconds()))
	} else if duration < time.Hour {
		return fmt.Sprintf("%dm", int(duration.Minutes()))
	} else if duration < 24*time.Hour {
		return fmt.Sprintf("%dh", int(duration.Hours()))
	} else {
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
