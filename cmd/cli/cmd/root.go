package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "kitchenctl",
	Short: "Kitchenctl is a command line tool for operating the kitchenline scheduler",
	Long: `kitchenctl is the command-line interface for the kitchenline kitchen
order scheduler.

The scheduler runs as part of the restaurant POS backend: it admits received
orders into active preparation under a configurable capacity ceiling,
respecting priority and scheduled delivery times, and reports orders that run
past their expected finish.

Common workflows:

  Check scheduler health and tick state:
    kitchenctl status

  Trigger an immediate admission pass (e.g. after seeding test orders):
    kitchenctl evaluate

  Change the tick cadence at runtime:
    kitchenctl interval 60

  List overdue preparations:
    kitchenctl late

  Estimate the queueing delay for a new ASAP order:
    kitchenctl delay

Configuration:
  Set the API endpoint via a flag, an environment variable or a config file:
    KITCHEN_URL    API endpoint (default: http://localhost:7070)`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".kitchenctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".kitchenctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "KITCHEN_VARNAME"
	viper.SetEnvPrefix("KITCHEN")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.kitchenctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:7070", "Kitchenline scheduler URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
}
