// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	taskqueue "github.com/minseo-lab/guildmain/internal/adapters/mq/queue"
	workerpool "github.com/minseo-lab/guildmain/internal/adapters/mq/worker"
	"github.com/minseo-lab/guildmain/internal/adapters/nexon"
	"github.com/minseo-lab/guildmain/internal/domain/model"
	"github.com/minseo-lab/guildmain/internal/domain/resolve"
	"github.com/minseo-lab/guildmain/internal/domain/retry"
	"github.com/minseo-lab/guildmain/internal/domain/roster"
	"github.com/minseo-lab/guildmain/pkg/logger"
	"github.com/minseo-lab/guildmain/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultQueueSize    = 1024
	defaultWorkerCount  = 1
	defaultPacing       = 20 * time.Millisecond
	defaultMaxBatchWait = 10 * time.Minute
)

// UpstreamAPI is the full upstream surface the service depends on.
// *nexon.Client satisfies it; tests substitute fakes.
type UpstreamAPI interface {
	GuildID(ctx context.Context, guild, world string) (string, error)
	GuildBasic(ctx context.Context, guildID string) (*nexon.GuildBasic, error)
	CharacterOCID(ctx context.Context, name string) (string, error)
	UnionRanking(ctx context.Context, world, ocid string) (*nexon.UnionRanking, error)
	CharacterBasic(ctx context.Context, ocid string) (*nexon.CharacterBasic, error)
}

// guildAPIAdapter adapts UpstreamAPI to roster.API.
type guildAPIAdapter struct {
	api UpstreamAPI
}

func (a *guildAPIAdapter) GuildID(ctx context.Context, guild, world string) (string, error) {
	return a.api.GuildID(ctx, guild, world)
}

func (a *guildAPIAdapter) GuildMembers(ctx context.Context, guildID string) ([]string, error) {
	gb, err := a.api.GuildBasic(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if gb == nil {
		return nil, nil
	}
	return gb.GuildMembers, nil
}

// memberAPIAdapter adapts UpstreamAPI to resolve.API.
type memberAPIAdapter struct {
	api UpstreamAPI
}

func (a *memberAPIAdapter) CharacterOCID(ctx context.Context, name string) (string, error) {
	return a.api.CharacterOCID(ctx, name)
}

func (a *memberAPIAdapter) MainCharacter(ctx context.Context, world, ocid string) (string, error) {
	ur, err := a.api.UnionRanking(ctx, world, ocid)
	if err != nil {
		return "", err
	}
	if ur == nil || len(ur.Ranking) == 0 {
		return "", nil
	}
	return ur.Ranking[0].CharacterName, nil
}

func (a *memberAPIAdapter) CharacterDetails(ctx context.Context, ocid string) (model.CharacterDetails, error) {
	cb, err := a.api.CharacterBasic(ctx, ocid)
	if err != nil {
		return model.CharacterDetails{}, err
	}
	return cb.Details(), nil
}

// batch tracks one in-flight roster resolution.
type batch struct {
	mu        sync.Mutex
	roster    model.RosterSet
	results   []model.MemberResult
	remaining int
	done      chan struct{}
	started   time.Time
}

// Service implements the API dependencies for the guild main-character
// pipeline.
type Service struct {
	mu sync.RWMutex

	// Core components
	upstream  UpstreamAPI
	lookup    *roster.Lookup
	resolver  *resolve.Resolver
	taskQueue taskqueue.Queue
	pool      *workerpool.Pool

	// Configuration
	queueSize    int
	workerCount  int
	pacing       time.Duration
	maxBatchWait time.Duration
	policy       *retry.Policy

	// State
	batches map[string]*batch
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQueueSize bounds the in-memory task queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of resolution workers. The default of
// one keeps upstream calls strictly sequential.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithPacing sets the fixed delay applied after every resolution task.
func WithPacing(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.pacing = d
		}
	}
}

// WithRetryPolicy sets the rate-limit retry strategy.
func WithRetryPolicy(p *retry.Policy) Option {
	return func(s *Service) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithMaxBatchWait caps how long a request waits for its batch.
func WithMaxBatchWait(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.maxBatchWait = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a new Service over the given upstream API.
func New(upstream UpstreamAPI, opts ...Option) *Service {
	s := &Service{
		upstream:     upstream,
		queueSize:    defaultQueueSize,
		workerCount:  defaultWorkerCount,
		pacing:       defaultPacing,
		maxBatchWait: defaultMaxBatchWait,
		batches:      make(map[string]*batch),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.policy == nil {
		s.policy = retry.NewPolicy(retry.WithRetryable(nexon.IsRateLimited))
	}

	s.logger.Info(ctx, "starting guild pipeline service...")

	s.lookup = roster.NewLookup(&guildAPIAdapter{api: s.upstream})
	s.resolver = resolve.New(&memberAPIAdapter{api: s.upstream}, resolve.WithPolicy(s.policy))
	s.taskQueue = taskqueue.NewInMemoryQueue(
		taskqueue.WithCapacity(s.queueSize),
		taskqueue.WithBufferSize(s.queueSize),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.taskQueue, s, s,
		workerpool.WithPacing(s.pacing),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "guild pipeline service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Any("pacing", s.pacing),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping guild pipeline service...")

	if s.taskQueue != nil {
		if q, ok := s.taskQueue.(*taskqueue.InMemoryQueue); ok {
			_ = q.Close()
		}
	}
	if s.pool != nil {
		s.pool.Stop()
	}

	s.started = false
	s.logger.Info(context.Background(), "guild pipeline service stopped")
}

// ResolveTask implements worker.Resolver: it resolves one member using
// the roster snapshot of the owning batch.
func (s *Service) ResolveTask(ctx context.Context, t model.Task) model.MemberResult {
	s.mu.RLock()
	b := s.batches[t.RunID]
	s.mu.RUnlock()

	if b == nil {
		// Batch abandoned; produce the degraded record without
		// touching the upstream.
		return model.SentinelResult(t.Member)
	}
	return s.resolver.Resolve(ctx, t.Member, t.World, b.roster)
}

// Deliver implements worker.Sink: results land at their input index so
// order is preserved regardless of which lookups failed.
func (s *Service) Deliver(ctx context.Context, t model.Task, res model.MemberResult) {
	s.mu.RLock()
	b := s.batches[t.RunID]
	s.mu.RUnlock()

	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if t.Seq < 0 || t.Seq >= len(b.results) {
		return
	}
	b.results[t.Seq] = res
	b.remaining--
	if b.remaining == 0 {
		close(b.done)
	}
}

// MemberStatus resolves a guild's full roster to its member records, in
// roster order. Guild-level lookup failures surface as
// roster.ErrNotFound; per-member failures degrade to sentinels.
func (s *Service) MemberStatus(ctx context.Context, guild, world string) ([]model.MemberResult, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return nil, fmt.Errorf("service not started")
	}

	r, err := s.lookup.Resolve(ctx, model.GuildQuery{Guild: guild, World: world})
	if err != nil {
		return nil, err
	}

	if len(r.Members) == 0 {
		return []model.MemberResult{}, nil
	}

	runID := uuid.NewString()
	b := &batch{
		roster:    r.Set(),
		results:   make([]model.MemberResult, len(r.Members)),
		remaining: len(r.Members),
		done:      make(chan struct{}),
		started:   time.Now(),
	}

	s.mu.Lock()
	s.batches[runID] = b
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.batches, runID)
		s.mu.Unlock()
	}()

	metrics.RecordBatchStarted(len(r.Members))
	s.logger.Info(ctx, "resolution batch started",
		logger.String("runID", runID),
		logger.String("guild", guild),
		logger.String("world", world),
		logger.Int("members", len(r.Members)),
	)

	for i, member := range r.Members {
		t := model.Task{RunID: runID, Seq: i, Member: member, World: world}
		if !s.taskQueue.Enqueue(ctx, t) {
			// Backpressure still yields exactly one record per member.
			s.logger.Warn(ctx, "enqueue failed; degrading member to sentinels",
				logger.String("member", member),
			)
			s.Deliver(ctx, t, model.SentinelResult(member))
		}
	}

	select {
	case <-b.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.maxBatchWait):
		return nil, fmt.Errorf("batch %s timed out after %s", runID, s.maxBatchWait)
	}

	elapsed := time.Since(b.started)
	metrics.RecordBatchCompleted(float64(elapsed.Milliseconds()))
	s.logger.Info(ctx, "resolution batch completed",
		logger.String("runID", runID),
		logger.Int("members", len(r.Members)),
		logger.Any("elapsed", elapsed),
	)

	return b.results, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"pacingMs":    s.pacing.Milliseconds(),
	}

	if s.started {
		stats["queueLength"] = s.taskQueue.Len(context.Background())
		stats["activeBatches"] = len(s.batches)
	}

	return stats
}
