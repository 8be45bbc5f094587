package cron

import (
	"context"
	"fmt"

	"github.com/rentiva/rentiva-backend/pkg/logger"
)

// LinkExpiryJobParams configure the stale payment link sweep.
type LinkExpiryJobParams struct {
	Logger   *logger.Logger
	Payments linkSweeper
}

type linkSweeper interface {
	ExpireStaleLinks(ctx context.Context) (int64, error)
}

// NewLinkExpiryJob builds the job that flips open payment links past their
// TTL to expired. The sweep runs through the payments service so each expiry
// is audited and its hosted checkout page deactivated; the per-row
// conditional update can never clobber a concurrent paid transition.
func NewLinkExpiryJob(params LinkExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments service required")
	}
	return &linkExpiryJob{
		logg:     params.Logger,
		payments: params.Payments,
	}, nil
}

type linkExpiryJob struct {
	logg     *logger.Logger
	payments linkSweeper
}

func (j *linkExpiryJob) Name() string { return "link-expiry" }

func (j *linkExpiryJob) Run(ctx context.Context) error {
	expired, err := j.payments.ExpireStaleLinks(ctx)
	if err != nil {
		return fmt.Errorf("link expiry: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "rows_expired", expired)
	j.logg.Info(logCtx, "link expiry sweep complete")
	return nil
}
