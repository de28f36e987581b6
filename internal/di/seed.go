package di

import (
	"context"
	"fmt"

	internalrepo "SalesPulse/internal/repository"
	"SalesPulse/pkg/config"
	applogger "SalesPulse/pkg/logger"
)

// SeedClickHouse copies the CSV history and risk table into ClickHouse.
// Re-running is safe: both tables collapse duplicate dates on merge.
func SeedClickHouse(ctx context.Context, cfg *config.Config, l *applogger.Logger) error {
	if cfg.Storage.Backend != "clickhouse" {
		return fmt.Errorf("seed requires storage.backend=clickhouse")
	}
	ch, err := ProvideClickHouseClient(cfg)
	if err != nil {
		return err
	}
	defer ch.Close()

	series, err := internalrepo.NewCSVSeriesStore(cfg.Storage.SeriesCSV).LoadSeries(ctx)
	if err != nil {
		return fmt.Errorf("read %s: %w", cfg.Storage.SeriesCSV, err)
	}
	if err := internalrepo.NewCHSeriesStore(ch, salesTable(cfg), l).InsertSeries(ctx, series.Points()); err != nil {
		return err
	}
	l.Info("sales history seeded", applogger.Int("rows", series.Len()), applogger.String("table", salesTable(cfg)))

	csvRisk, err := internalrepo.LoadCSVRiskTable(cfg.Storage.RiskCSV, cfg.Cutoff())
	if err != nil {
		return err
	}
	rows, err := csvRisk.HistoricalRisk(ctx, nil, nil)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		l.Warn("risk table csv empty or missing", applogger.String("path", cfg.Storage.RiskCSV))
		return nil
	}
	if err := internalrepo.NewCHRiskTable(ch, riskTable(cfg), cfg.Cutoff(), l).InsertRisk(ctx, rows); err != nil {
		return err
	}
	l.Info("risk table seeded", applogger.Int("rows", len(rows)), applogger.String("table", riskTable(cfg)))
	return nil
}
