package cli

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// OpenLedger opens the configured storage backend and builds the ledger
// service over it. publisher may be nil. The caller owns res.Cleanup.
func OpenLedger(ctx context.Context, cfg *config.Config, publisher services.EventPublisher, logger *log.Logger) (*services.LedgerService, *backend.BackendResult, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).CreateBackend(ctx, bc)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s backend: %w", bc.Type, err)
	}

	svc := services.NewLedgerService(res.Store, publisher, services.Options{
		WarningRatio: decimal.NewFromFloat(cfg.WarningThreshold),
		GateEdits:    cfg.GateEdits,
		Logger:       logger.WithComponent(log.ComponentLedger),
	})
	return svc, res, nil
}
