package alerting

import (
	"context"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/metrics"
	"time"

	"go.uber.org/zap"
)

type flagSweeper struct {
	Store   contracts.ResourceStore
	Log     *zap.Logger
	Metrics *metrics.Metrics
	now     func() time.Time
}

// NewFlagSweeper inactivates active flags whose period has ended, which
// frees the (subject, condition) slot for a new flag.
func NewFlagSweeper(store contracts.ResourceStore, logger *zap.Logger, m *metrics.Metrics) contracts.FlagSweeper {
	return &flagSweeper{
		Store:   store,
		Log:     logger,
		Metrics: m,
		now:     time.Now,
	}
}

func (s *flagSweeper) SweepExpiredFlags(ctx context.Context) (int, error) {
	active, err := s.Store.Search(ctx, constvars.ResourceFlag, map[string]string{"status": constvars.FhirFlagStatusActive})
	if err != nil {
		return 0, err
	}

	now := s.now()
	swept := 0
	for _, flag := range active {
		end, ok := models.FlagPeriodEnd(flag)
		if !ok || end.After(now) {
			continue
		}

		inactive := flag.Clone()
		inactive.Set("status", constvars.FhirFlagStatusInactive)
		if _, err := s.Store.Update(ctx, constvars.ResourceFlag, flag.ID, inactive); err != nil {
			if exceptions.IsKind(err, exceptions.KindNotFound) {
				continue
			}
			s.Log.Error("flagSweeper.SweepExpiredFlags failed to inactivate flag",
				zap.String(constvars.LoggingResourceIDKey, flag.ID),
				zap.Error(err),
			)
			continue
		}
		swept++
	}

	s.Metrics.FlagsSwept(swept)
	s.Log.Info("flagSweeper.SweepExpiredFlags completed",
		zap.Int(constvars.LoggingSweptCountKey, swept),
	)
	return swept, nil
}
