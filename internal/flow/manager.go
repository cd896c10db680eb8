// Package flow implements the case bootstrap sequencer and session manager.
package flow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sesamtech/caseflow/internal/models"
	"github.com/sesamtech/caseflow/internal/store"
	"github.com/sesamtech/caseflow/internal/util"
)

// CaseFetcher retrieves case records by GUID. Implemented by caseapi.Client.
type CaseFetcher interface {
	FetchCase(ctx context.Context, guid string) (*models.CaseEnvelope, error)
}

// StockChecker looks up swap stock for a device. Implemented by soap.Client.
type StockChecker interface {
	CheckStock(ctx context.Context, model, brand string) models.StockResult
}

var (
	// ErrSuperseded is returned by Bootstrap when a later bootstrap started
	// before this one resolved. The superseded result is discarded entirely;
	// it must never overwrite state belonging to the newer GUID.
	ErrSuperseded = errors.New("bootstrap superseded by a newer one")

	// ErrNoSession is returned when no active session exists for the GUID.
	ErrNoSession = errors.New("no active flow session for this case")
)

// DefaultCompletionDelay is how long a completed flow lingers before its
// snapshot is erased and the redirect fires. Long enough for the completion
// screen to be seen.
const DefaultCompletionDelay = 5 * time.Second

// session is the single active flow session: the fetched case record plus
// the current FlowState for its GUID, with a per-session stock result cache.
type session struct {
	guid       string
	caseEnv    *models.CaseEnvelope
	state      models.FlowState
	stockCache map[models.StockQuery]models.StockResult
}

// Opts holds configuration options for the flow manager.
type Opts struct {
	CompletionDelay time.Duration
	Timer           Timer
	RedirectFunc    func(guid, redirectURL string)
}

// Option defines a configuration option for the flow manager.
type Option func(*Opts)

// WithCompletionDelay overrides the delay between completing a flow and
// erasing its snapshot.
func WithCompletionDelay(d time.Duration) Option {
	return func(o *Opts) { o.CompletionDelay = d }
}

// WithTimer overrides the timer implementation, primarily for tests.
func WithTimer(t Timer) Option {
	return func(o *Opts) { o.Timer = t }
}

// WithRedirectFunc sets the hook invoked when a completed flow's delay
// elapses and the user should be sent to the partner redirect URL.
func WithRedirectFunc(fn func(guid, redirectURL string)) Option {
	return func(o *Opts) { o.RedirectFunc = fn }
}

// Manager owns the flow state machine at runtime: it bootstraps sessions,
// dispatches actions, persists snapshots and runs the completion sequence.
//
// All state is guarded by a single mutex; the one genuine race in the system
// is a case fetch resolving after a newer bootstrap has started, handled by
// the generation counter.
type Manager struct {
	mu              sync.Mutex
	cases           CaseFetcher
	snapshots       store.SnapshotStore
	stock           StockChecker
	timer           Timer
	completionDelay time.Duration
	redirectFn      func(guid, redirectURL string)
	generation      uint64
	session         *session
}

// NewManager creates a flow manager over the given case fetcher, snapshot
// store and stock checker.
func NewManager(cases CaseFetcher, snapshots store.SnapshotStore, stock StockChecker, opts ...Option) *Manager {
	cfg := Opts{CompletionDelay: DefaultCompletionDelay}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Timer == nil {
		cfg.Timer = NewSimpleTimer()
	}
	if cfg.RedirectFunc == nil {
		cfg.RedirectFunc = func(guid, redirectURL string) {
			slog.Info("Manager: flow complete, redirecting", "guid", guid, "redirect_url", redirectURL)
		}
	}
	slog.Debug("flow.NewManager: manager created", "completion_delay", cfg.CompletionDelay)
	return &Manager{
		cases:           cases,
		snapshots:       snapshots,
		stock:           stock,
		timer:           cfg.Timer,
		completionDelay: cfg.CompletionDelay,
		redirectFn:      cfg.RedirectFunc,
	}
}

// Bootstrap starts (or restarts) the flow for a GUID: it fetches the case
// record, adopts the persisted snapshot when one exists for the same GUID,
// derives the classifier default otherwise, and publishes the session.
//
// If another Bootstrap is invoked before the case fetch resolves, the older
// invocation returns ErrSuperseded and leaves all published state untouched.
func (m *Manager) Bootstrap(ctx context.Context, guid string) (*models.CaseEnvelope, models.FlowState, error) {
	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	bootID := util.GenerateRandomID("boot_", 8)
	slog.Debug("Manager.Bootstrap: starting", "boot_id", bootID, "guid", guid)

	caseEnv, fetchErr := m.cases.FetchCase(ctx, guid)

	m.mu.Lock()
	defer m.mu.Unlock()

	// Stale check comes first: even a failed fetch from a superseded
	// bootstrap must not surface its outcome.
	if gen != m.generation {
		slog.Debug("Manager.Bootstrap: superseded, discarding result", "boot_id", bootID, "guid", guid)
		return nil, models.FlowState{}, ErrSuperseded
	}
	if fetchErr != nil {
		slog.Warn("Manager.Bootstrap: case fetch failed", "boot_id", bootID, "guid", guid, "error", fetchErr)
		return nil, models.FlowState{}, fetchErr
	}

	state, adopted := m.reconcileSnapshot(ctx, guid, &caseEnv.Data)
	m.session = &session{
		guid:       guid,
		caseEnv:    caseEnv,
		state:      state,
		stockCache: make(map[models.StockQuery]models.StockResult),
	}

	if err := m.snapshots.SaveSnapshot(ctx, state); err != nil {
		slog.Error("Manager.Bootstrap: failed to persist snapshot", "boot_id", bootID, "guid", guid, "error", err)
	}

	slog.Info("Manager.Bootstrap: session published", "boot_id", bootID, "guid", guid, "flow_step", state.FlowStep, "snapshot_adopted", adopted)
	return caseEnv, state, nil
}

// reconcileSnapshot adopts a persisted snapshot verbatim when its stored GUID
// matches the requested one; otherwise it derives the default state for the
// case classifier. Caller holds the lock.
func (m *Manager) reconcileSnapshot(ctx context.Context, guid string, c *models.CaseRecord) (models.FlowState, bool) {
	snapshot, err := m.snapshots.GetSnapshot(ctx, guid)
	if err != nil {
		slog.Error("Manager.reconcileSnapshot: snapshot lookup failed, deriving default", "guid", guid, "error", err)
		return DeriveInitialState(guid, c), false
	}
	if snapshot != nil && snapshot.GUID == guid {
		slog.Debug("Manager.reconcileSnapshot: adopting persisted snapshot", "guid", guid, "flow_step", snapshot.FlowStep)
		return *snapshot, true
	}
	return DeriveInitialState(guid, c), false
}

// Current returns the active session's case record and state for the GUID.
func (m *Manager) Current(guid string) (*models.CaseEnvelope, models.FlowState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil || m.session.guid != guid {
		return nil, models.FlowState{}, ErrNoSession
	}
	return m.session.caseEnv, m.session.state, nil
}

// Dispatch applies one action to the active session's state machine,
// persists the resulting snapshot, and returns the new state. On reaching
// the complete step it returns the partner redirect URL and schedules the
// completion sequence: after the completion delay the snapshot is erased and
// the redirect hook fires.
func (m *Manager) Dispatch(ctx context.Context, guid string, action models.Action) (models.FlowState, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil || m.session.guid != guid {
		return models.FlowState{}, "", ErrNoSession
	}

	next, err := Apply(m.session.state, &m.session.caseEnv.Data, action)
	if err != nil {
		slog.Warn("Manager.Dispatch: action rejected", "guid", guid, "action", action.Type, "error", err)
		return m.session.state, "", err
	}
	m.session.state = next

	if err := m.snapshots.SaveSnapshot(ctx, next); err != nil {
		slog.Error("Manager.Dispatch: failed to persist snapshot", "guid", guid, "error", err)
	}

	slog.Debug("Manager.Dispatch: action applied", "guid", guid, "action", action.Type, "flow_step", next.FlowStep)

	if next.FlowStep == models.StepComplete {
		redirectURL := m.session.caseEnv.Data.RedirectURL()
		m.scheduleCompletion(guid, redirectURL)
		return next, redirectURL, nil
	}
	return next, "", nil
}

// scheduleCompletion arranges the snapshot erase and redirect after the
// completion delay. Caller holds the lock.
func (m *Manager) scheduleCompletion(guid, redirectURL string) {
	id, err := m.timer.ScheduleAfter(m.completionDelay, func() {
		if err := m.snapshots.DeleteSnapshot(context.Background(), guid); err != nil {
			slog.Error("Manager: failed to erase completed snapshot", "guid", guid, "error", err)
		} else {
			slog.Debug("Manager: completed snapshot erased", "guid", guid)
		}
		m.redirectFn(guid, redirectURL)
	})
	if err != nil {
		slog.Error("Manager: failed to schedule completion", "guid", guid, "error", err)
		return
	}
	slog.Debug("Manager: completion scheduled", "guid", guid, "timer_id", id, "delay", m.completionDelay)
}

// CheckStock looks up swap stock for the active session's device, memoizing
// per (model, brand) for the life of the session. Nothing is persisted; a new
// session recomputes on demand.
func (m *Manager) CheckStock(ctx context.Context, guid string) (models.StockResult, error) {
	m.mu.Lock()
	if m.session == nil || m.session.guid != guid {
		m.mu.Unlock()
		return models.EmptyStockResult(), ErrNoSession
	}
	query := models.StockQuery{
		Model: m.session.caseEnv.Data.ProductData.Model,
		Brand: m.session.caseEnv.Data.Manufacturer.Name,
	}
	if cached, ok := m.session.stockCache[query]; ok {
		m.mu.Unlock()
		slog.Debug("Manager.CheckStock: cache hit", "guid", guid, "model", query.Model, "brand", query.Brand)
		return cached, nil
	}
	m.mu.Unlock()

	if m.stock == nil {
		slog.Error("Manager.CheckStock: no stock checker configured", "guid", guid)
		return models.EmptyStockResult(), nil
	}

	// The remote call runs unlocked; the adapter already degrades failures.
	result := m.stock.CheckStock(ctx, query.Model, query.Brand)

	m.mu.Lock()
	if m.session != nil && m.session.guid == guid {
		m.session.stockCache[query] = result
	}
	m.mu.Unlock()

	return result, nil
}
