package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/suteetoe/backoffice/pkg/config"
	"github.com/suteetoe/backoffice/pkg/database"
	"github.com/suteetoe/backoffice/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const serviceName = "backoffice"

var rootCmd = &cobra.Command{
	Use:   serviceName,
	Short: "Multi-tenant e-commerce back-office",
	Long: `Back-office API for businesses managing their products, clients and orders.
Every business is a tenant and only ever sees its own data.`,
	SilenceUsage: true,
}

// bootstrap loads configuration, initializes the global logger and opens
// the database
func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load(serviceName)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.InitLogger(cfg); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	db, err := database.Open(&cfg.DB, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
