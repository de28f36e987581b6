package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"SalesPulse/internal/domain/models"
	domrepo "SalesPulse/internal/domain/repository"
	xutil "SalesPulse/pkg/util"
)

// CSVSeriesStore reads the sales history from a two-column CSV export
// (date, sales) with a header row.
type CSVSeriesStore struct {
	path string
}

func NewCSVSeriesStore(path string) *CSVSeriesStore {
	return &CSVSeriesStore{path: path}
}

func (s *CSVSeriesStore) LoadSeries(_ context.Context) (*models.SalesSeries, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open series: %w", err)
	}
	defer f.Close()

	points, err := ParseSeriesCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return models.NewSalesSeries(points)
}

// ParseSeriesCSV reads date and sales from the first two columns.
func ParseSeriesCSV(r io.Reader) ([]models.SalesPoint, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, models.ErrEmptySeries
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var out []models.SalesPoint
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: want 2 columns, got %d", line, len(rec))
		}
		date, ok := parseCSVDate(rec[0])
		if !ok {
			return nil, fmt.Errorf("line %d: bad date %q", line, rec[0])
		}
		sales, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad sales %q", line, rec[1])
		}
		out = append(out, models.SalesPoint{Date: date, Sales: sales})
	}
	return out, nil
}

// CSVRiskTable serves the risk table from a CSV file loaded once.
type CSVRiskTable struct {
	rows   []models.RiskRow
	cutoff time.Time
}

// LoadCSVRiskTable reads path. A missing file yields an empty table.
func LoadCSVRiskTable(path string, cutoff time.Time) (*CSVRiskTable, error) {
	t := &CSVRiskTable{cutoff: xutil.Day(cutoff)}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open risk table: %w", err)
	}
	defer f.Close()

	rows, err := ParseRiskCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.rows = rows
	return t, nil
}

// NewMemoryRiskTable serves rows from memory.
func NewMemoryRiskTable(rows []models.RiskRow, cutoff time.Time) *CSVRiskTable {
	return &CSVRiskTable{rows: rows, cutoff: xutil.Day(cutoff)}
}

func (t *CSVRiskTable) Cutoff() time.Time { return t.cutoff }

func (t *CSVRiskTable) HistoricalRisk(_ context.Context, start, end *time.Time) ([]models.RiskRow, error) {
	out := make([]models.RiskRow, 0, len(t.rows))
	for _, r := range t.rows {
		if r.Date.After(t.cutoff) {
			continue
		}
		if start != nil && r.Date.Before(*start) {
			continue
		}
		if end != nil && r.Date.After(*end) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Accepted header names per risk column.
var riskColumns = map[string][]string{
	"date":           {"date", "order date"},
	"forecast_value": {"forecast_value", "sales"},
	"risk_score":     {"risk_score"},
	"risk_level":     {"risk_level"},
	"risk_factors":   {"risk_factors"},
}

// ParseRiskCSV reads a risk table export, locating columns by header.
func ParseRiskCSV(r io.Reader) ([]models.RiskRow, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(riskColumns))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for col, names := range riskColumns {
			for _, n := range names {
				if h == n {
					idx[col] = i
				}
			}
		}
	}
	for col := range riskColumns {
		if _, ok := idx[col]; !ok && col != "risk_factors" {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var out []models.RiskRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		date, ok := parseCSVDate(rec[idx["date"]])
		if !ok {
			return nil, fmt.Errorf("line %d: bad date %q", line, rec[idx["date"]])
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(rec[idx["forecast_value"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad forecast value: %w", line, err)
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(rec[idx["risk_score"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad risk score: %w", line, err)
		}
		row := models.RiskRow{
			Date:          date,
			ForecastValue: value,
			RiskScore:     int(math.Round(score)),
			RiskLevel:     models.RiskLevel(strings.TrimSpace(rec[idx["risk_level"]])),
			Source:        models.RowHistorical,
		}
		if i, ok := idx["risk_factors"]; ok {
			row.Factors = rec[i]
		}
		out = append(out, row)
	}
	return out, nil
}

// parseCSVDate accepts YYYY-MM-DD with an optional time part.
func parseCSVDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) > len(xutil.DateLayout) {
		s = s[:len(xutil.DateLayout)]
	}
	return xutil.ParseDate(s)
}

var (
	_ domrepo.HistoricalSeriesStore = (*CSVSeriesStore)(nil)
	_ domrepo.RiskTableStore        = (*CSVRiskTable)(nil)
)
