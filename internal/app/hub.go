package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"conclave/internal/config"
	"conclave/internal/domain"
	"conclave/internal/generate"
	"conclave/internal/store"
)

// evilPlayerOdds is the chance the player is dealt an evil-faction role
const evilPlayerOdds = 3

// SessionHub is the registry of resident session runtimes. Sessions not in
// memory are recovered from the snapshot store on access; stale resident
// sessions are evicted periodically.
type SessionHub struct {
	mu       sync.RWMutex
	sessions map[string]*Runtime

	gen    generate.Generator
	store  store.Store
	cfg    config.GameConfig
	logger *slog.Logger
	done   chan struct{}
}

// NewSessionHub creates a hub and starts its stale-session cleanup loop
func NewSessionHub(gen generate.Generator, st store.Store, cfg config.GameConfig, logger *slog.Logger) *SessionHub {
	hub := &SessionHub{
		sessions: make(map[string]*Runtime),
		gen:      gen,
		store:    st,
		cfg:      cfg,
		logger:   logger,
		done:     make(chan struct{}),
	}

	go hub.cleanupLoop()

	return hub
}

// CreateSession builds a new lobby session from a scenario, deals the player
// a hidden role, and registers the runtime.
func (h *SessionHub) CreateSession(ctx context.Context, scenarioID string) (*Runtime, error) {
	scenario := domain.ScenarioByID(scenarioID)
	if scenarioID == "" {
		scenarios := domain.Scenarios()
		scenario = &scenarios[0]
	}
	if scenario == nil {
		return nil, fmt.Errorf("unknown scenario %q", scenarioID)
	}

	session := domain.NewSession(uuid.NewString(), scenario.World, scenario.BuildParticipants())
	rt := newRuntime(session, h.gen, h.store, h.cfg, h.logger)

	assignPlayerRole(session, rt.rng)
	session.EstablishWorldFacts()
	rt.pushCanonFacts()

	h.mu.Lock()
	h.sessions[session.ID] = rt
	h.mu.Unlock()

	rt.snapshot(ctx)
	h.logger.Info("session created", "session", session.ID, "scenario", scenario.ID,
		"playerFaction", session.PlayerRole.Faction)

	return rt, nil
}

// Get returns the runtime for a session id, recovering it from the snapshot
// store if it is not resident. Returns ErrSessionNotFound when neither exists.
func (h *SessionHub) Get(ctx context.Context, sessionID string) (*Runtime, error) {
	h.mu.RLock()
	rt, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if ok {
		return rt, nil
	}

	state, aux, err := h.store.Load(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		// A broken store costs recoverability, not correctness: the
		// session is simply not found.
		h.logger.Warn("snapshot load failed", "session", sessionID, "error", err)
		return nil, domain.ErrSessionNotFound
	}

	recovered, err := restoreRuntime(state, aux, h.gen, h.store, h.cfg, h.logger)
	if err != nil {
		h.logger.Warn("snapshot restore failed", "session", sessionID, "error", err)
		return nil, domain.ErrSessionNotFound
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	// Another caller may have recovered it concurrently; keep the first.
	if rt, ok := h.sessions[sessionID]; ok {
		return rt, nil
	}
	h.sessions[sessionID] = recovered
	h.logger.Info("session recovered from snapshot", "session", sessionID,
		"phase", recovered.session.Phase, "round", recovered.session.Round)
	return recovered, nil
}

// Delete evicts a session and removes its snapshot
func (h *SessionHub) Delete(ctx context.Context, sessionID string) {
	h.mu.Lock()
	delete(h.sessions, sessionID)
	h.mu.Unlock()

	if err := h.store.Delete(ctx, sessionID); err != nil {
		h.logger.Warn("snapshot delete failed", "session", sessionID, "error", err)
	}
	h.logger.Info("session deleted", "session", sessionID)
}

// SessionCount returns the number of resident sessions
func (h *SessionHub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close stops the cleanup loop and drops all resident sessions
func (h *SessionHub) Close() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions = make(map[string]*Runtime)
}

func (h *SessionHub) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.evictStale()
		}
	}
}

// evictStale drops resident sessions idle past the configured duration.
// Their snapshots stay in the store, so an evicted session is still
// recoverable until its TTL runs out.
func (h *SessionHub) evictStale() {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	for id, rt := range h.sessions {
		if now.Sub(rt.LastActive()) > h.cfg.SessionStaleDuration {
			delete(h.sessions, id)
			h.logger.Info("stale session evicted", "session", id)
		}
	}
}

// assignPlayerRole deals the human player a hidden role, evil roughly one
// game in three. An evil player learns their allies, and those allies are
// told never to target the player at night.
func assignPlayerRole(s *domain.Session, rng *rand.Rand) {
	evilFactions := s.World.EvilFactions()

	wantEvil := rng.Intn(evilPlayerOdds) == 0
	role := pickRole(s.World, wantEvil, rng)
	if role == nil {
		role = &s.World.Roles[0]
	}

	pr := &domain.PlayerRole{
		HiddenRole:   role.Name,
		Faction:      role.Faction,
		WinCondition: s.World.FactionWinCondition(role.Faction),
	}

	if evilFactions[role.Faction] {
		for _, p := range s.Participants {
			if p.Faction != role.Faction {
				continue
			}
			pr.Allies = append(pr.Allies, p.ID)
			p.HiddenKnowledge = append(p.HiddenKnowledge,
				"The player at the table is secretly your ally. Never vote against them, and never target them at night.")
		}
	}

	s.PlayerRole = pr
}

// pickRole chooses a random role of the wanted alignment from the world's pool
func pickRole(w domain.World, wantEvil bool, rng *rand.Rand) *domain.RoleDef {
	var candidates []*domain.RoleDef
	for i := range w.Roles {
		isEvil := w.Roles[i].Alignment == domain.AlignmentEvil
		if isEvil == wantEvil {
			candidates = append(candidates, &w.Roles[i])
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[rng.Intn(len(candidates))]
}
