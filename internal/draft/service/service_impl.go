package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/smallbiznis/folio/internal/clock"
	"github.com/smallbiznis/folio/internal/config"
	"github.com/smallbiznis/folio/internal/draft/devicestore"
	"github.com/smallbiznis/folio/internal/draft/domain"
	"github.com/smallbiznis/folio/internal/draft/probe"
	"github.com/smallbiznis/folio/internal/draft/remotestore"
	"github.com/smallbiznis/folio/internal/observability/metrics"
	"github.com/smallbiznis/folio/pkg/retry"
	"github.com/smallbiznis/folio/pkg/userctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type tableProbe interface {
	Exists(ctx context.Context) bool
}

type Params struct {
	fx.In

	Local   *devicestore.Store
	Remote  *remotestore.Store
	Probe   *probe.Probe
	Log     *zap.Logger
	Clock   clock.Clock
	Holder  *config.DraftsConfigHolder
	Metrics *metrics.Metrics `optional:"true"`
}

type service struct {
	local   domain.Store
	remote  domain.Store
	probe   tableProbe
	log     *zap.Logger
	clock   clock.Clock
	holder  *config.DraftsConfigHolder
	metrics *metrics.Metrics

	mu       sync.Mutex
	strategy domain.Strategy
	inflight map[string]*listCall
}

// listCall identifies one in-flight List so release can tell whether a
// newer call has already taken its slot.
type listCall struct {
	cancel context.CancelFunc
}

// New builds the draft facade. The routing strategy is decided here,
// once, from the provisioning probe; it changes only through
// RefreshCapability.
func New(p Params) domain.Service {
	return newService(p.Local, p.Remote, p.Probe, p.Log, p.Clock, p.Holder, p.Metrics)
}

func newService(local, remote domain.Store, tp tableProbe, log *zap.Logger, clk clock.Clock, holder *config.DraftsConfigHolder, m *metrics.Metrics) *service {
	s := &service{
		local:    local,
		remote:   remote,
		probe:    tp,
		log:      log.Named("draft.service"),
		clock:    clk,
		holder:   holder,
		metrics:  m,
		strategy: domain.StrategyLocal,
		inflight: make(map[string]*listCall),
	}
	if tp.Exists(context.Background()) {
		s.strategy = domain.StrategyRemote
	}
	s.log.Info("draft routing selected", zap.String("strategy", string(s.strategy)))
	return s
}

func (s *service) Strategy() domain.Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy
}

// RefreshCapability re-probes the remote table. The transition is one
// way: local to remote when the table has appeared. An already-remote
// service never falls back to local here.
func (s *service) RefreshCapability(ctx context.Context) domain.Strategy {
	exists := s.probe.Exists(ctx)
	result := "absent"
	if exists {
		result = "present"
	}
	s.metrics.RecordCapabilityProbe(ctx, result)

	s.mu.Lock()
	defer s.mu.Unlock()
	if exists && s.strategy == domain.StrategyLocal {
		s.strategy = domain.StrategyRemote
		s.log.Info("draft routing switched", zap.String("strategy", string(s.strategy)))
	}
	return s.strategy
}

func (s *service) store() domain.Store {
	if s.Strategy() == domain.StrategyRemote {
		return s.remote
	}
	return s.local
}

// Save writes the draft through the active store. The id is minted here
// before any store is chosen, so a draft keeps its identity across a
// later migration. Writes are never retried.
func (s *service) Save(ctx context.Context, draft domain.Draft) (domain.Draft, error) {
	userID, ok := userctx.UserID(ctx)
	if !ok {
		return domain.Draft{}, domain.ErrAuthRequired
	}
	if draft.UserID != "" && draft.UserID != userID {
		return domain.Draft{}, fmt.Errorf("%w: draft owner mismatch", domain.ErrAuthRequired)
	}
	draft.UserID = userID

	if !draft.Type.Valid() {
		return domain.Draft{}, fmt.Errorf("%w: unknown type %q", domain.ErrInvalidDraft, draft.Type)
	}
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}

	saved, err := s.store().Upsert(ctx, draft)
	if err != nil {
		return domain.Draft{}, err
	}
	s.metrics.RecordSave(ctx, string(s.Strategy()), string(saved.Type))
	return saved, nil
}

func (s *service) Get(ctx context.Context, id string) (domain.Draft, error) {
	userID, ok := userctx.UserID(ctx)
	if !ok {
		return domain.Draft{}, domain.ErrAuthRequired
	}

	var draft domain.Draft
	err := s.retryRead(ctx, func(ctx context.Context) error {
		var err error
		draft, err = s.store().Get(ctx, userID, id)
		return err
	})
	if err != nil {
		return domain.Draft{}, err
	}
	return draft, nil
}

// List returns the user's drafts, newest first. A new List for the same
// user cancels the one still in flight, and the whole call is bounded
// by the configured list timeout.
func (s *service) List(ctx context.Context) ([]domain.Draft, error) {
	userID, ok := userctx.UserID(ctx)
	if !ok {
		return nil, domain.ErrAuthRequired
	}

	cfg := s.holder.Get()
	timeout := cfg.ListTimeout
	if timeout <= 0 {
		timeout = config.DefaultDraftsConfig().ListTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	call := &listCall{cancel: cancel}
	s.supersede(userID, call)
	defer s.release(userID, call)

	var drafts []domain.Draft
	err := s.retryRead(ctx, func(ctx context.Context) error {
		var err error
		drafts, err = s.store().List(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(drafts, func(i, j int) bool {
		return drafts[i].UpdatedAt.After(drafts[j].UpdatedAt)
	})
	return drafts, nil
}

func (s *service) Delete(ctx context.Context, id string) (bool, error) {
	userID, ok := userctx.UserID(ctx)
	if !ok {
		return false, domain.ErrAuthRequired
	}

	existed, err := s.store().Delete(ctx, userID, id)
	if err != nil {
		return false, err
	}
	if existed {
		s.metrics.RecordDelete(ctx, string(s.Strategy()))
	}
	return existed, nil
}

// retryRead retries fn under the configured policy. Only transient
// remote failures are retried; not-found and unprovisioned answers are
// definitive and returned immediately.
func (s *service) retryRead(ctx context.Context, fn func(ctx context.Context) error) error {
	cfg := s.holder.Get()
	policy := retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		Multiplier:  cfg.Retry.Multiplier,
	}

	attempt := 0
	return retry.Do(ctx, policy, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrRemoteFailure) {
			return retry.Stop(err)
		}
		if attempt > 1 {
			s.metrics.RecordReadRetry(ctx, string(s.Strategy()))
		}
		return err
	})
}

// supersede cancels the user's in-flight List, if any, and registers
// call as the current one.
func (s *service) supersede(userID string, call *listCall) {
	s.mu.Lock()
	prev := s.inflight[userID]
	s.inflight[userID] = call
	s.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}
}

// release removes call from the in-flight table unless a newer List
// has already replaced it.
func (s *service) release(userID string, call *listCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[userID] == call {
		delete(s.inflight, userID)
	}
}
