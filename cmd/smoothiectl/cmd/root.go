package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"smoothies/internal/config"
	"smoothies/internal/logging"
	"smoothies/internal/nutrition"
	"smoothies/internal/order"
	"smoothies/internal/store"
	"smoothies/internal/workflow"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	cfg config.AppConfig
	db  *gorm.DB
	svc *workflow.Service
)

var rootCmd = &cobra.Command{
	Use:   "smoothiectl",
	Short: "smoothiectl orders smoothies and inspects the fruit catalog from the terminal.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logging.Setup(cfg.LogLevel)

		db, err = store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		svc = newService(db, cfg)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if db == nil {
			return nil
		}
		return store.Close(db)
	},
	SilenceUsage: true,
}

func newService(db *gorm.DB, cfg config.AppConfig) *workflow.Service {
	capMode := order.CapAdvisory
	if cfg.EnforceIngredientCap {
		capMode = order.CapEnforced
	}
	return workflow.NewService(db,
		nutrition.NewClient(nutrition.Options{
			BaseURL:     cfg.NutritionBaseURL,
			Timeout:     cfg.NutritionTimeout,
			Concurrency: cfg.NutritionConcurrency,
		}),
		order.NewWriter(db, order.PrefilledNames(cfg.PrefilledCustomers...), nil),
		workflow.Options{CapMode: capMode},
	)
}

func out(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
