package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"bpi-tracker/internal/domain"
	"bpi-tracker/internal/fetcher"
	"bpi-tracker/internal/retry"
	"bpi-tracker/internal/scheduler"
	"bpi-tracker/internal/storage"
)

// Service drives the sampling loop: fetch, record, persist.
type Service struct {
	scheduler *scheduler.Scheduler
	fetcher   fetcher.PriceFetcher
	policy    retry.Policy
	store     storage.SnapshotStore
	logger    zerolog.Logger
}

// New constructs the collector service. A nil policy means a single attempt
// per cycle; a nil store disables snapshots.
func New(sched *scheduler.Scheduler, f fetcher.PriceFetcher, policy retry.Policy, store storage.SnapshotStore, logger zerolog.Logger) *Service {
	if policy == nil {
		policy = retry.Skip{}
	}
	return &Service{
		scheduler: sched,
		fetcher:   f,
		policy:    policy,
		store:     store,
		logger:    logger.With().Str("component", "collector").Logger(),
	}
}

// Collect runs every configured cycle and returns what was gathered, possibly
// nothing. On cancellation the partial sequence is returned with ctx's error.
func (s *Service) Collect(ctx context.Context) (*domain.Sequence, error) {
	seq := domain.NewSequence()
	if s.scheduler == nil {
		return seq, fmt.Errorf("scheduler not configured")
	}

	err := s.scheduler.Run(ctx, func(ctx context.Context, cycle int) error {
		return s.ProcessCycle(ctx, seq, cycle)
	})

	s.logger.Info().
		Int("attempted", s.scheduler.Cycles()).
		Int("collected", seq.Len()).
		Msg("collection finished")
	return seq, err
}

// ProcessCycle 执行单个 cycle：抓取价格，成功则追加并重写快照。
// Fetch and persist failures are handled here and never returned.
func (s *Service) ProcessCycle(ctx context.Context, seq *domain.Sequence, cycle int) error {
	var sample domain.Sample
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		var fetchErr error
		sample, fetchErr = s.fetcher.FetchPrice(ctx)
		return fetchErr
	})
	if err != nil {
		s.logger.Warn().Err(err).Int("cycle", cycle+1).Msg("Skipped saving price due to fetch error")
		return nil
	}

	seq.Record(sample)

	if s.store == nil {
		return nil
	}
	// 已记录的样本必须落盘, 即使会话已被取消
	if err := s.store.Save(context.WithoutCancel(ctx), seq.All()); err != nil {
		s.logger.Error().Err(err).Int("cycle", cycle+1).Msg("Error saving prices to file")
		return nil
	}

	s.logger.Info().Int("cycle", cycle+1).Int("count", seq.Len()).Msgf("Saved %d prices", seq.Len())
	return nil
}
