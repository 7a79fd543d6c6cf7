package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

var (
	cfgFile string
	ledger  *services.LedgerService
	closers []func() error

	rootCmd = &cobra.Command{
		Use:   "fintrack",
		Short: "Personal finance tracker",
		Long: `fintrack keeps a single ledger of credits and debits, reports balance and
monthly spending against a limit, and refuses debits that would overdraw the
balance or break the limit.

UPI payment codes can be parsed from text or scanned from an image and
recorded as debits.`,
		SilenceUsage:       true,
		PersistentPreRunE:  initLedger,
		PersistentPostRunE: closeLedger,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json, toml or .env); environment variables override it")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	_ = viper.BindPFlag("cli.log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("cli.log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(breakdownCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(editCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(limitCmd())
	rootCmd.AddCommand(settingsCmd())
	rootCmd.AddCommand(resetCmd())
	rootCmd.AddCommand(payCmd())
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(samplesCmd())
}

func main() {
	ctx, stop := cli.SignalContext(context.Background(), log.Default(log.ComponentApp))
	err := rootCmd.ExecuteContext(ctx)
	// PersistentPostRunE is skipped when a command fails.
	_ = closeLedger(nil, nil)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		os.Exit(1)
	}
}

// initLedger loads configuration and opens the ledger for every command.
// Logs go to stderr so they never mix with command output.
func initLedger(cmd *cobra.Command, _ []string) error {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(viper.GetString("cli.log_level")),
		Format:    viper.GetString("cli.log_format"),
		Component: log.ComponentApp,
		Output:    os.Stderr,
	})
	log.SetDefault(logger)

	if err := cli.LoadEnvFile(); err != nil {
		logger.Warn("Ignoring .env file", log.FieldError, err)
	}
	cfg, err := cli.LoadAndValidateConfig(cfgFile)
	if err != nil {
		return err
	}
	if cfg.DataBackend == string(backend.MemoryBackend) {
		logger.Warn("Memory backend selected, changes are lost when the command exits")
	}

	var publisher services.EventPublisher
	if cfg.EventsEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, ledger events will not be published", log.FieldError, err)
		} else {
			publisher = client
			closers = append(closers, client.Close)
		}
	}

	svc, res, err := cli.OpenLedger(cmd.Context(), cfg, publisher, logger)
	if err != nil {
		return err
	}
	ledger = svc
	closers = append(closers, res.Cleanup)
	return nil
}

func closeLedger(_ *cobra.Command, _ []string) error {
	var firstErr error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	closers = nil
	return firstErr
}
