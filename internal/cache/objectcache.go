package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/planwatch/watch-backend/internal/logger"
	"github.com/planwatch/watch-backend/internal/repos"
	"github.com/planwatch/watch-backend/internal/types"
)

// WatchObjectCache memoizes per-plan lookup data that status and summary
// derivation hit on every action: the plan row, its statuses and its
// implementation phases. The cache lives for one request or one batch job;
// it is not a cross-request cache. Request handling installs one on the
// request context via NewContext, so dropping the context drops the cache.
type WatchObjectCache struct {
	planRepo repos.PlanRepo
	log      *logger.Logger

	mu       sync.Mutex
	plans    map[uuid.UUID]*types.Plan
	statuses map[uuid.UUID][]*types.ActionStatus
	phases   map[uuid.UUID][]*types.ActionImplementationPhase
}

type ctxKey struct{}

// NewContext returns a context carrying c.
func NewContext(ctx context.Context, c *WatchObjectCache) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the cache installed on ctx, if any.
func FromContext(ctx context.Context) (*WatchObjectCache, bool) {
	c, ok := ctx.Value(ctxKey{}).(*WatchObjectCache)
	return c, ok
}

func NewWatchObjectCache(planRepo repos.PlanRepo, baseLog *logger.Logger) *WatchObjectCache {
	return &WatchObjectCache{
		planRepo: planRepo,
		log:      baseLog.With("cache", "WatchObjectCache"),
		plans:    map[uuid.UUID]*types.Plan{},
		statuses: map[uuid.UUID][]*types.ActionStatus{},
		phases:   map[uuid.UUID][]*types.ActionImplementationPhase{},
	}
}

func (c *WatchObjectCache) Plan(ctx context.Context, planID uuid.UUID) (*types.Plan, error) {
	c.mu.Lock()
	cached, ok := c.plans[planID]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	plan, err := c.planRepo.GetByID(ctx, nil, planID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.plans[planID] = plan
	c.mu.Unlock()
	return plan, nil
}

func (c *WatchObjectCache) Statuses(ctx context.Context, planID uuid.UUID) ([]*types.ActionStatus, error) {
	c.mu.Lock()
	cached, ok := c.statuses[planID]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	statuses, err := c.planRepo.ListStatuses(ctx, nil, planID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.statuses[planID] = statuses
	c.mu.Unlock()
	return statuses, nil
}

func (c *WatchObjectCache) Phases(ctx context.Context, planID uuid.UUID) ([]*types.ActionImplementationPhase, error) {
	c.mu.Lock()
	cached, ok := c.phases[planID]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	phases, err := c.planRepo.ListPhases(ctx, nil, planID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.phases[planID] = phases
	c.mu.Unlock()
	return phases, nil
}
