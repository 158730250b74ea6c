package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const jobTimeout = 2 * time.Minute

// JobSpecs holds cron expressions for the background jobs. An empty spec
// leaves that job unscheduled.
type JobSpecs struct {
	Proposals string
	Purge     string
	Classify  string
	Digest    string
}

type JobService struct {
	schedule  *ScheduleService
	classify  *ClassificationService
	digest    *DigestService
	proposals ProposalStore
	batchSize int
	cron      *cron.Cron
	log       zerolog.Logger

	Now func() time.Time
}

func NewJobService(schedule *ScheduleService, classify *ClassificationService, digest *DigestService, proposals ProposalStore, batchSize int, loc *time.Location, logger zerolog.Logger) *JobService {
	logger = logger.With().Str("service", "jobs").Logger()
	cl := cronLogger{log: logger}
	return &JobService{
		schedule:  schedule,
		classify:  classify,
		digest:    digest,
		proposals: proposals,
		batchSize: batchSize,
		cron:      cron.New(cron.WithLocation(loc), cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		log:       logger,
		Now:       time.Now,
	}
}

// RegenerateProposals replaces the unconfirmed proposals for the lookahead.
func (s *JobService) RegenerateProposals(ctx context.Context) error {
	batch, err := s.schedule.ProposeSessions(ctx)
	if err != nil {
		return fmt.Errorf("cron job: regenerate proposals: %w", err)
	}
	s.log.Info().Str("batch_id", batch.BatchID.String()).Int("sessions", len(batch.Sessions)).Msg("proposals regenerated")
	return nil
}

// PurgeStaleProposals deletes unconfirmed proposals whose time has passed.
func (s *JobService) PurgeStaleProposals(ctx context.Context) (int64, error) {
	ids, err := s.proposals.StaleIDs(ctx, s.Now())
	if err != nil {
		return 0, fmt.Errorf("cron job: find stale proposals: %w", err)
	}
	if len(ids) == 0 {
		s.log.Debug().Msg("no stale proposals")
		return 0, nil
	}

	n, err := s.proposals.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("cron job: delete stale proposals: %w", err)
	}
	s.log.Info().Int64("deleted", n).Msg("purged stale proposals")
	return n, nil
}

func (s *JobService) AutoClassify(ctx context.Context) error {
	results, err := s.classify.AutoClassify(ctx, s.batchSize)
	if err != nil {
		return fmt.Errorf("cron job: auto classify: %w", err)
	}
	applied := 0
	for _, r := range results {
		if r.Applied {
			applied++
		}
	}
	s.log.Info().Int("seen", len(results)).Int("applied", applied).Msg("auto classification finished")
	return nil
}

func (s *JobService) SendDigest(ctx context.Context) error {
	if err := s.digest.Send(ctx); err != nil {
		return fmt.Errorf("cron job: send digest: %w", err)
	}
	return nil
}

// Schedule registers every job with a non-empty spec.
func (s *JobService) Schedule(specs JobSpecs) error {
	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{"proposals", specs.Proposals, s.RegenerateProposals},
		{"purge", specs.Purge, func(ctx context.Context) error { _, err := s.PurgeStaleProposals(ctx); return err }},
		{"classify", specs.Classify, s.AutoClassify},
		{"digest", specs.Digest, s.SendDigest},
	}
	for _, j := range jobs {
		if j.spec == "" {
			s.log.Info().Str("job", j.name).Msg("job disabled")
			continue
		}
		j := j
		if _, err := s.cron.AddFunc(j.spec, func() { s.run(j.name, j.run) }); err != nil {
			return fmt.Errorf("schedule %s job %q: %w", j.name, j.spec, err)
		}
		s.log.Info().Str("job", j.name).Str("spec", j.spec).Msg("job scheduled")
	}
	return nil
}

func (s *JobService) run(name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := fn(ctx); err != nil {
		s.log.Error().Err(err).Str("job", name).Msg("job failed")
		return
	}
	s.log.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("job finished")
}

func (s *JobService) Start() {
	s.cron.Start()
}

// Stop halts scheduling and returns a context that is done once running
// jobs have finished.
func (s *JobService) Stop() context.Context {
	return s.cron.Stop()
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
