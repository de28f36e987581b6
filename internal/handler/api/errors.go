package api

import (
	"errors"
	"net/http"
	"time"

	"SalesPulse/internal/domain/models"
	"SalesPulse/internal/services/dealrisk"
	"SalesPulse/internal/services/forecast"
	"SalesPulse/internal/usecase"
	xhttp "SalesPulse/pkg/http"
	xutil "SalesPulse/pkg/util"
)

// appError maps use case failures onto API errors. Unknown errors are left
// alone and become a generic 500.
func appError(err error) error {
	var fe *forecast.Error
	switch {
	case errors.As(err, &fe):
		return xhttp.NewAppError("ERR_FORECAST_UNAVAILABLE", "date", err.Error(), http.StatusServiceUnavailable).
			WithParam("date", xutil.FormatDate(fe.Date)).
			WithError(err)
	case errors.Is(err, dealrisk.ErrClassifier):
		return xhttp.ServiceUnavailableError("deal classifier unavailable").WithError(err)
	case errors.Is(err, models.ErrEmptySeries):
		return xhttp.UnprocessableError("", err.Error()).WithError(err)
	case errors.Is(err, usecase.ErrNoHistoricalDeals):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, usecase.ErrRunInProgress):
		return xhttp.ConflictError(err.Error()).WithError(err)
	}
	return err
}

func parseDate(field, raw string) (time.Time, error) {
	t, ok := xutil.ParseDate(raw)
	if !ok {
		return time.Time{}, xhttp.NewAppError("ERR_INVALID_DATE", field, field+" must be YYYY-MM-DD", http.StatusBadRequest)
	}
	return t, nil
}
