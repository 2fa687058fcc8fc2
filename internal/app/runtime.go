package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"conclave/internal/agent"
	"conclave/internal/config"
	"conclave/internal/domain"
	"conclave/internal/generate"
	"conclave/internal/store"
)

// Runtime owns the authoritative in-memory state of one session and is its
// single writer: every mutating operation holds mu for its full duration, so
// round N's stream always closes before round N+1's opens. Reads go through
// PublicState under the read lock.
type Runtime struct {
	mu      sync.RWMutex
	session *domain.Session
	agents  map[string]*agent.Agent
	order   []string

	// pendingNight holds collected AI night actions while the session
	// waits for the player's own action.
	pendingNight []domain.NightActionRecord

	// warnedRound marks the round that already received a discussion
	// warning, so it fires at most once per round.
	warnedRound int

	rng    *rand.Rand
	gen    generate.Generator
	store  store.Store
	cfg    config.GameConfig
	logger *slog.Logger
	bg     *backgroundPool

	lastActive atomic.Int64
}

func newRuntime(session *domain.Session, gen generate.Generator, st store.Store, cfg config.GameConfig, logger *slog.Logger) *Runtime {
	r := &Runtime{
		session: session,
		agents:  make(map[string]*agent.Agent),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		gen:     gen,
		store:   st,
		cfg:     cfg,
		logger:  logger.With("session", session.ID),
		bg:      newBackgroundPool(cfg.FanOutLimit, cfg.BackgroundTimeout, logger.With("session", session.ID)),
	}
	for _, p := range session.Participants {
		r.agents[p.ID] = agent.New(p, session.World, gen, session.CanonFacts, r.logger)
		r.order = append(r.order, p.ID)
	}
	r.touch()
	return r
}

func (r *Runtime) touch() {
	r.lastActive.Store(time.Now().UnixNano())
}

// LastActive reports when the session last served an operation
func (r *Runtime) LastActive() time.Time {
	return time.Unix(0, r.lastActive.Load())
}

// SessionID returns the session id
func (r *Runtime) SessionID() string {
	return r.session.ID
}

// PublicState returns the read-only projection for UI polling. The full flag
// includes the complete message log and any pending night-action prompt, for
// reconnection.
func (r *Runtime) PublicState(full bool) domain.PublicState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state := r.session.PublicProjection(full)
	if full && r.session.AwaitingPlayerNightAction {
		if prompt := r.playerNightPrompt(); prompt != nil {
			state.NightActionPrompt = prompt
		}
	}
	return state
}

// aliveAgents returns the agents of alive participants in table order
func (r *Runtime) aliveAgents() []*agent.Agent {
	var out []*agent.Agent
	for _, id := range r.order {
		a := r.agents[id]
		if a.Character().Alive() {
			out = append(out, a)
		}
	}
	return out
}

// voteCandidates builds the candidate list for a voter: every alive
// participant plus the player, minus any excluded ids. Evil allies of a
// living player never see the player as a target.
func (r *Runtime) voteCandidates(exclude map[string]bool) []domain.PublicActor {
	var out []domain.PublicActor
	for _, p := range r.session.AliveParticipants() {
		if exclude[p.ID] {
			continue
		}
		out = append(out, domain.PublicActorView(p))
	}
	if r.session.PlayerAlive() && !exclude[domain.PlayerID] {
		out = append(out, domain.PublicActor{
			ID:         domain.PlayerID,
			Name:       "You",
			PublicRole: "Council Member",
		})
	}
	return out
}

// alliesOfPlayer reports whether the given participant is a declared ally of
// a still-living player.
func (r *Runtime) allyOfPlayer(id string) bool {
	return r.session.PlayerAlive() && r.session.PlayerRole.IsAlly(id)
}

// pushCanonFacts propagates the session's established truths to every agent
func (r *Runtime) pushCanonFacts() {
	for _, a := range r.agents {
		a.UpdateCanonFacts(r.session.CanonFacts)
	}
}

// observeMessage fans a new message out to every alive agent's mood as
// detached background work.
func (r *Runtime) observeMessage(content, speakerID string) {
	for _, a := range r.aliveAgents() {
		a := a
		r.bg.dispatch("observe message", func(ctx context.Context) error {
			a.ObserveMessage(content, speakerID)
			return nil
		})
	}
}

// observeElimination fans an elimination out to every alive agent's mood
func (r *Runtime) observeElimination(faction string) {
	for _, a := range r.aliveAgents() {
		a := a
		r.bg.dispatch("observe elimination", func(ctx context.Context) error {
			a.ObserveElimination(faction)
			return nil
		})
	}
}

// snapshotState is the serialized form of a session's working state
type snapshotState struct {
	Session      *domain.Session              `json:"session"`
	PendingNight []domain.NightActionRecord   `json:"pendingNight,omitempty"`
	WarnedRound  int                          `json:"warnedRound,omitempty"`
}

// snapshot persists the session after background work settles. Persistence
// is best-effort: failures are logged and the round proceeds in memory.
func (r *Runtime) snapshot(ctx context.Context) {
	r.bg.settle(r.cfg.SettleTimeout)

	state, err := json.Marshal(snapshotState{
		Session:      r.session,
		PendingNight: r.pendingNight,
		WarnedRound:  r.warnedRound,
	})
	if err != nil {
		r.logger.Warn("snapshot state marshal failed", "error", err)
		return
	}

	memories := make(map[string]agent.Memory, len(r.agents))
	for id, a := range r.agents {
		memories[id] = a.Snapshot()
	}
	aux, err := json.Marshal(memories)
	if err != nil {
		r.logger.Warn("snapshot aux marshal failed", "error", err)
		return
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := r.store.Save(saveCtx, r.session.ID, state, aux); err != nil {
		r.logger.Warn("snapshot save failed", "error", err)
	}
}

// restoreRuntime reconstructs a runtime from persisted blobs
func restoreRuntime(state, aux []byte, gen generate.Generator, st store.Store, cfg config.GameConfig, logger *slog.Logger) (*Runtime, error) {
	var snap snapshotState
	if err := json.Unmarshal(state, &snap); err != nil {
		return nil, fmt.Errorf("decode session snapshot: %w", err)
	}
	if snap.Session == nil {
		return nil, fmt.Errorf("decode session snapshot: empty session")
	}

	r := newRuntime(snap.Session, gen, st, cfg, logger)
	r.pendingNight = snap.PendingNight
	r.warnedRound = snap.WarnedRound

	var memories map[string]agent.Memory
	if err := json.Unmarshal(aux, &memories); err != nil {
		// Lost agent memory is survivable: agents restart with blank
		// history but correct canon facts.
		logger.Warn("agent memory blob unreadable, restoring without it", "session", snap.Session.ID, "error", err)
		return r, nil
	}
	for id, m := range memories {
		if a, ok := r.agents[id]; ok {
			a.Restore(m)
		}
	}
	return r, nil
}
