package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"template-repo-service/internal/core/services"
)

// ScheduleReconcile runs the orphan-file sweep on the given cron schedule
// until ctx is canceled.
func ScheduleReconcile(ctx context.Context, rec *services.Reconciler, schedule string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := rec.Sweep(context.Background()); err != nil {
			log.WithError(err).Error("reconciliation sweep failed")
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()

	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	return c, nil
}
