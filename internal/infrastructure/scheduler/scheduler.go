package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jhoicas/evidenta-api/internal/domain/repository"
	"github.com/jhoicas/evidenta-api/pkg/logger"
)

// PurgeObserver recibe el resultado de cada limpieza (métricas).
type PurgeObserver interface {
	TokensPurged(n int64)
	CleanupFailed()
}

// Scheduler tareas periódicas sobre cron.
type Scheduler struct {
	cron *cron.Cron
	log  *logger.Logger
	now  func() time.Time
}

// New usa segundos opcionales en las expresiones y recupera panics de los jobs.
func New(log *logger.Logger) *Scheduler {
	named := log.Named("scheduler")
	cl := cronLogger{log: named}
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(cron.NewParser(cron.SecondOptional|cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log: named,
		now: time.Now,
	}
}

// AddTokenCleanup programa la purga de tokens caducados. schedule vacío no programa nada.
func (s *Scheduler) AddTokenCleanup(schedule string, tokens repository.TokenRepository, obs PurgeObserver) error {
	if schedule == "" {
		return nil
	}
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		_, _ = s.CleanupTokens(ctx, tokens, obs)
	})
	return err
}

// CleanupTokens una pasada de la purga.
func (s *Scheduler) CleanupTokens(ctx context.Context, tokens repository.TokenRepository, obs PurgeObserver) (int64, error) {
	n, err := tokens.DeleteExpired(ctx, s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("limpieza de tokens fallida")
		if obs != nil {
			obs.CleanupFailed()
		}
		return 0, err
	}
	if obs != nil {
		obs.TokensPurged(n)
	}
	if n > 0 {
		s.log.Info().Int64("deleted", n).Msg("tokens caducados eliminados")
	}
	return n, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop espera a que terminen los jobs en curso o a que venza ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// cronLogger adapta el logger de la app a cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
