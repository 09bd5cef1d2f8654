package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/finsent/internal/app"
	"github.com/bobmcallan/finsent/internal/common"
)

var (
	configPath string
	logLevel   string
	dataPath   string

	a *app.App
)

var rootCmd = &cobra.Command{
	Use:           "finsent",
	Short:         "Batch jobs for a finance headline sentiment dataset",
	Long:          `finsent builds the ticker lookup, prunes the datasets to valid tickers, labels headlines and charts monthly price against sentiment.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		var err error
		a, err = app.NewApp(configPath, func(c *common.Config) {
			if logLevel != "" {
				c.Logging.Level = logLevel
			}
			if dataPath != "" {
				c.DataRoot = dataPath
			}
		})
		if err != nil {
			return err
		}

		common.PrintBanner(os.Stderr, a.Config, a.Logger, cmd.Name(), a.RunID)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the TOML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "Directory every relative data path is resolved under")

	rootCmd.AddCommand(lookupCmd, cleanseCmd, monthlyCmd, classifyCmd, pricesCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		stop()
		os.Exit(1)
	}
}

// firstNonEmpty returns the flag value when set, else the configured one
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
