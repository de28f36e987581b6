package analytics

import (
	"context"
	"fmt"
	"time"

	domsvc "SalesPulse/internal/domain/service"
	xutil "SalesPulse/pkg/util"
)

// HTTPAnomalyDetector flags unusual forecast values via /anomaly/detect.
type HTTPAnomalyDetector struct {
	base *HTTPServiceBase
}

func NewHTTPAnomalyDetector(base *HTTPServiceBase) *HTTPAnomalyDetector {
	return &HTTPAnomalyDetector{base: base}
}

type anomalyReq struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type anomalyResp struct {
	IsAnomaly bool    `json:"is_anomaly"`
	Score     float64 `json:"score"`
}

func (d *HTTPAnomalyDetector) IsAnomaly(ctx context.Context, date time.Time, value float64) (bool, error) {
	var ar anomalyResp
	err := d.base.PostJSON(ctx, "/anomaly/detect", anomalyReq{Date: xutil.FormatDate(date), Value: value}, &ar)
	if err != nil {
		return false, fmt.Errorf("anomaly detect: %w", err)
	}
	return ar.IsAnomaly, nil
}

var _ domsvc.AnomalyDetector = (*HTTPAnomalyDetector)(nil)
