package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SalesPulse/internal/domain/models"
	domsvc "SalesPulse/internal/domain/service"
)

// Multi delivers each alert to every notifier and joins their errors.
type Multi struct {
	targets []domsvc.Notifier
}

func NewMulti(targets ...domsvc.Notifier) *Multi {
	var ts []domsvc.Notifier
	for _, t := range targets {
		if t != nil {
			ts = append(ts, t)
		}
	}
	return &Multi{targets: ts}
}

func (m *Multi) SendAlert(ctx context.Context, alert models.Alert) error {
	if alert.SentAt.IsZero() {
		alert.SentAt = time.Now().UTC()
	}
	var errs []error
	for i, t := range m.targets {
		if err := t.SendAlert(ctx, alert); err != nil {
			errs = append(errs, fmt.Errorf("notifier %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

var _ domsvc.Notifier = (*Multi)(nil)
