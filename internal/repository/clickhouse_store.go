package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"SalesPulse/internal/domain/models"
	domrepo "SalesPulse/internal/domain/repository"
	pkgch "SalesPulse/pkg/clickhouse"
	applogger "SalesPulse/pkg/logger"
)

// Schema returns the idempotent DDL for the sales and risk tables.
func Schema(salesTable, riskTable string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            date  Date,
            sales Float64
        ) ENGINE = ReplacingMergeTree ORDER BY date`, salesTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            date           Date,
            forecast_value Float64,
            risk_score     UInt8,
            risk_level     LowCardinality(String),
            risk_factors   String
        ) ENGINE = ReplacingMergeTree ORDER BY date`, riskTable),
	}
}

// CHSeriesStore reads the daily sales history from ClickHouse.
type CHSeriesStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHSeriesStore(ch *pkgch.Client, table string, l *applogger.Logger) *CHSeriesStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHSeriesStore{db: ch.DB(), table: table, l: l}
}

func (s *CHSeriesStore) LoadSeries(ctx context.Context) (*models.SalesSeries, error) {
	start := time.Now()
	q := fmt.Sprintf("SELECT date, sales FROM %s FINAL ORDER BY date ASC", s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		s.l.Error("clickhouse load_series query error", applogger.String("table", s.table), applogger.Error(err))
		return nil, fmt.Errorf("load series: %w", err)
	}
	defer rows.Close()

	out := make([]models.SalesPoint, 0, 1024)
	for rows.Next() {
		var p models.SalesPoint
		if err := rows.Scan(&p.Date, &p.Sales); err != nil {
			return nil, fmt.Errorf("scan sales point: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	s.l.Debug("series loaded",
		applogger.String("table", s.table),
		applogger.Int("rows", len(out)),
		applogger.Duration("took_ms", time.Since(start)),
	)
	return models.NewSalesSeries(out)
}

// InsertSeries writes points in chunks of multi-row VALUES.
func (s *CHSeriesStore) InsertSeries(ctx context.Context, points []models.SalesPoint) error {
	return insertChunked(ctx, s.db, s.table, "(date, sales)", "(?, ?)", len(points), func(i int) []interface{} {
		return []interface{}{points[i].Date, points[i].Sales}
	})
}

// CHRiskTable reads persisted risk rows up to a fixed cutoff.
type CHRiskTable struct {
	db     *sql.DB
	table  string
	cutoff time.Time
	l      *applogger.Logger
}

func NewCHRiskTable(ch *pkgch.Client, table string, cutoff time.Time, l *applogger.Logger) *CHRiskTable {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHRiskTable{db: ch.DB(), table: table, cutoff: cutoff, l: l}
}

func (t *CHRiskTable) Cutoff() time.Time { return t.cutoff }

func (t *CHRiskTable) HistoricalRisk(ctx context.Context, start, end *time.Time) ([]models.RiskRow, error) {
	q, args := riskQuery(t.table, t.cutoff, start, end)
	rows, err := t.db.QueryContext(ctx, q, args...)
	if err != nil {
		t.l.Error("clickhouse historical_risk query error", applogger.String("table", t.table), applogger.Error(err))
		return nil, fmt.Errorf("historical risk: %w", err)
	}
	defer rows.Close()

	var out []models.RiskRow
	for rows.Next() {
		var (
			r     models.RiskRow
			score uint8
			level string
		)
		if err := rows.Scan(&r.Date, &r.ForecastValue, &score, &level, &r.Factors); err != nil {
			return nil, fmt.Errorf("scan risk row: %w", err)
		}
		r.RiskScore = int(score)
		r.RiskLevel = models.RiskLevel(level)
		r.Source = models.RowHistorical
		out = append(out, r)
	}
	return out, rows.Err()
}

// InsertRisk writes rows in chunks.
func (t *CHRiskTable) InsertRisk(ctx context.Context, rows []models.RiskRow) error {
	return insertChunked(ctx, t.db, t.table, "(date, forecast_value, risk_score, risk_level, risk_factors)", "(?, ?, ?, ?, ?)", len(rows), func(i int) []interface{} {
		r := rows[i]
		return []interface{}{r.Date, r.ForecastValue, uint8(r.RiskScore), string(r.RiskLevel), r.Factors}
	})
}

func riskQuery(table string, cutoff time.Time, start, end *time.Time) (string, []interface{}) {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT date, forecast_value, risk_score, risk_level, risk_factors FROM %s FINAL WHERE date <= ?", table)
	args := []interface{}{cutoff}
	if start != nil {
		b.WriteString(" AND date >= ?")
		args = append(args, *start)
	}
	if end != nil {
		b.WriteString(" AND date <= ?")
		args = append(args, *end)
	}
	b.WriteString(" ORDER BY date ASC")
	return b.String(), args
}

const insertChunkSize = 2000

func insertChunked(ctx context.Context, db *sql.DB, table, columns, placeholder string, n int, row func(i int) []interface{}) error {
	for start := 0; start < n; start += insertChunkSize {
		end := start + insertChunkSize
		if end > n {
			end = n
		}
		values := make([]string, 0, end-start)
		var args []interface{}
		for i := start; i < end; i++ {
			values = append(values, placeholder)
			args = append(args, row(i)...)
		}
		q := fmt.Sprintf("INSERT INTO %s %s VALUES %s", table, columns, strings.Join(values, ","))
		if _, err := db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

var (
	_ domrepo.HistoricalSeriesStore = (*CHSeriesStore)(nil)
	_ domrepo.RiskTableStore        = (*CHRiskTable)(nil)
)
