package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conclave/internal/config"
	"conclave/internal/domain"
	"conclave/internal/generate"
	"conclave/internal/store"
)

// scriptGen is a scriptable Generator. The zero value produces canned text
// and failing actions, which exercises the agents' fallback paths.
type scriptGen struct {
	actionFn func(system, prompt string) (generate.Action, error)
}

func (g *scriptGen) Text(_ context.Context, _, _ string) (string, error) {
	return "The candles gutter as everyone leans in.", nil
}

func (g *scriptGen) Stream(ctx context.Context, system, prompt string, onDelta func(string)) (string, error) {
	text, err := g.Text(ctx, system, prompt)
	if err != nil {
		return "", err
	}
	for _, word := range strings.Fields(text) {
		onDelta(word + " ")
	}
	return text, nil
}

func (g *scriptGen) Action(_ context.Context, system, prompt string) (generate.Action, error) {
	if g.actionFn == nil {
		return generate.Action{}, errors.New("no action scripted")
	}
	return g.actionFn(system, prompt)
}

func testGameConfig() config.GameConfig {
	return config.GameConfig{
		RoundCap:             6,
		WipePolicy:           "evil_wins",
		EarlyRoundThreshold:  0,
		AgentTimeout:         2 * time.Second,
		BackgroundTimeout:    time.Second,
		SettleTimeout:        2 * time.Second,
		FanOutLimit:          4,
		SoftLimitPerPlayer:   100,
		HardLimitExtra:       100,
		SessionStaleDuration: time.Hour,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHub(t *testing.T, gen generate.Generator, st store.Store) *SessionHub {
	t.Helper()
	if st == nil {
		st = store.NewMemory(0)
	}
	hub := NewSessionHub(gen, st, testGameConfig(), quietLogger())
	t.Cleanup(hub.Close)
	return hub
}

// drain reads a stream to completion and returns every event in order
func drain(t *testing.T, ch <-chan domain.Event) []domain.Event {
	t.Helper()
	var out []domain.Event
	deadline := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-deadline:
			t.Fatalf("event stream did not close; got %d events", len(out))
		}
	}
}

func eventTypes(events []domain.Event) []domain.EventType {
	out := make([]domain.EventType, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

func pinPlayerRole(rt *Runtime, role *domain.PlayerRole) {
	rt.session.PlayerRole = role
}

func villagerRole() *domain.PlayerRole {
	return &domain.PlayerRole{
		HiddenRole:   "Villager",
		Faction:      "Town Council",
		WinCondition: "Eliminate every member of the Wolfsbane Circle",
	}
}

func werewolfRole() *domain.PlayerRole {
	return &domain.PlayerRole{
		HiddenRole:   "Werewolf",
		Faction:      "Wolfsbane Circle",
		WinCondition: "Outnumber the loyal council members",
		Allies:       []string{"oskar", "jorun"},
	}
}

// startGame drives a fresh session into its first discussion round
func startGame(t *testing.T, rt *Runtime) {
	t.Helper()
	ch, err := rt.StartGame(context.Background())
	require.NoError(t, err)
	events := drain(t, ch)
	require.NotEmpty(t, events)
	assert.Equal(t, domain.EventDone, events[len(events)-1].Type)
}

// runVoteRound drives a discussion session through a vote for the given
// target. The scripted generator makes every character fall back to the
// first non-self candidate, so maren always draws the crowd's votes.
func runVoteRound(t *testing.T, rt *Runtime, target string) []domain.Event {
	t.Helper()
	ch, err := rt.SubmitVote(context.Background(), target)
	require.NoError(t, err)
	return drain(t, ch)
}

func TestCreateSessionInitialState(t *testing.T) {
	hub := newTestHub(t, &scriptGen{}, nil)

	rt, err := hub.CreateSession(context.Background(), "council-of-thorns")
	require.NoError(t, err)

	state := rt.PublicState(false)
	assert.Equal(t, domain.PhaseLobby, state.Phase)
	assert.Equal(t, 1, state.Round)
	assert.Len(t, state.Characters, 7)
	require.NotNil(t, rt.session.PlayerRole)
	assert.NotEmpty(t, rt.session.PlayerRole.Faction)
	assert.Equal(t, 1, hub.SessionCount())
}

func TestCreateSessionUnknownScenario(t *testing.T) {
	hub := newTestHub(t, &scriptGen{}, nil)

	_, err := hub.CreateSession(context.Background(), "the-missing-isle")
	assert.Error(t, err)
}

func TestCreateSessionDefaultsToFirstScenario(t *testing.T) {
	hub := newTestHub(t, &scriptGen{}, nil)

	rt, err := hub.CreateSession(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "The Council of Thorns", rt.session.World.Title)
}

func TestGetUnknownSession(t *testing.T) {
	hub := newTestHub(t, &scriptGen{}, nil)

	_, err := hub.Get(context.Background(), "no-such-session")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStartGameOpensDiscussion(t *testing.T) {
	hub := newTestHub(t, &scriptGen{}, nil)
	rt, err := hub.CreateSession(context.Background(), "council-of-thorns")
	require.NoError(t, err)

	ch, err := rt.StartGame(context.Background())
	require.NoError(t, err)
	events := drain(t, ch)

	types := eventTypes(events)
	assert.Contains(t, types, domain.EventNarration)
	assert.Equal(t, domain.EventDone, types[len(types)-1])

	state := rt.PublicState(false)
	assert.Equal(t, domain.PhaseDiscussion, state.Phase)
	assert.Equal(t, 1, state.Round)
	require.NotEmpty(t, state.Messages, "opening narration is part of the transcript")
}

func TestStartGameTwiceFails(t *testing.T) {
	hub := newTestHub(t, &scriptGen{}, nil)
	rt, err := hub.CreateSession(context.Background(), "council-of-thorns")
	require.NoError(t, err)
	startGame(t, rt)

	_, err = rt.StartGame(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestSubmitChatStreamsResponses(t *testing.T) {
	hub := newTestHub(t, &scriptGen{}, nil)
	rt, err := hub.CreateSession(context.Background(), "council-of-thorns")
	require.NoError(t, err)
	pinPlayerRole(rt, villagerRole())
	startGame(t, rt)

	ch, err := rt.SubmitChat(context.Background(), "Someone here is not who they claim to be.")
	require.NoError(t, err)
	events := drain(t, ch)

	types := eventTypes(events)
	assert.Contains(t, types, domain.EventResponders)
	assert.Contains(t, types, domain.EventStreamStart)
	assert.Contains(t, types, domain.EventStreamDelta)
	assert.Contains(t, types, domain.EventStreamEnd)
	assert.Equal(t, domain.EventDone, types[len(types)-1])

	msgs := rt.session.RoundMessages()
	var sawPlayer bool
	for _, m := range msgs {
		if m.SpeakerID == domain.PlayerID {
			sawPlayer = true
		}
	}
	assert.True(t, sawPlayer, "player message lands in the transcript")
	assert.Equal(t, domain.PhaseDiscussion, rt.session.Phase)
}

func TestSubmitChatValidation(t *testing.T) {
	hub := newTestHub(t, &scriptGen{}, nil)
	rt, err := hub.CreateSession(context.Background(), "council-of-thorns")
	require.NoError(t, err)

	_, err = rt.SubmitChat(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrInvalidPhase, "chat before the game starts")

	startGame(t, rt)
	_, err = rt.SubmitChat(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
}

func TestSubmitVoteEliminates(t *testing.T) {
	hub := newTestHub(t, &scriptGen{}, nil)
	rt, err := hub.CreateSession(context.Background(), "council-of-thorns")
	require.NoError(t, err)
	pinPlayerRole(rt, villagerRole())
	startGame(t, rt)

	events := runVoteRound(t, rt, "maren")
	types := eventTypes(events)

	assert.Contains(t, types, domain.EventVotingStarted)
	assert.Contains(t, types, domain.EventVote)
	assert.Contains(t, types, domain.EventTally)
	assert.Contains(t, types, domain.EventElimination)
	assert.Equal(t, domain.EventDone, types[len(types)-1])

	maren := rt.session.Participant("maren")
	require.NotNil(t, maren)
	assert.True(t, maren.Eliminated)
	assert.Equal(t, domain.PhaseReveal, rt.session.Phase)
	assert.Equal(t, 1, rt.session.Round)
}

func TestSubmitVoteValidation(t *testing.T) {
	hub := newTestHub(t, &scriptGen{}, nil)
	rt, err := hub.CreateSession(context.Background(), "council-of-thorns")
	require.NoError(t, err)
	pinPlayerRole(rt, villagerRole())
	startGame(t, rt)

	_, err = rt.SubmitVote(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidTarget, "a living player must name a target")

	_, err = rt.SubmitVote(context.Background(), domain.PlayerID)
	assert.ErrorIs(t, err, domain.ErrInvalidTarget)

	_, err = rt.SubmitVote(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrInvalidTarget)
}

func TestQuietNightAdvancesRound(t *testing.T) {
	hub := newTestHub(t, &scriptGen{}, nil)
	rt, err := hub.CreateSession(context.Background(), "council-of-thorns")
	require.NoError(t, err)
	pinPlayerRole(rt, villagerRole())
	startGame(t, rt)
	runVoteRound(t, rt, "greta")

	ch, err := rt.AdvanceNight(context.Background())
	require.NoError(t, err)
	events := drain(t, ch)
	types := eventTypes(events)

	// Every AI night action falls back to none, so nobody dies.
	assert.Contains(t, types, domain.EventNightStarted)
	assert.Contains(t, types, domain.EventNightResults)
	assert.NotContains(t, types, domain.EventNightActionPrompt)
	assert.Equal(t, domain.EventDone, types[len(types)-1])

	assert.Equal(t, domain.PhaseDiscussion, rt.session.Phase)
	assert.Equal(t, 2, rt.session.Round)
	assert.False(t, rt.session.AwaitingPlayerNightAction)
}

func TestEvilPlayerNightKill(t *testing.T) {
	hub := newTestHub(t, &scriptGen{}, nil)
	rt, err := hub.CreateSession(context.Background(), "council-of-thorns")
	require.NoError(t, err)
	pinPlayerRole(rt, werewolfRole())
	startGame(t, rt)
	runVoteRound(t, rt, "greta")

	ch, err := rt.AdvanceNight(context.Background())
	require.NoError(t, err)
	events := drain(t, ch)
	types := eventTypes(events)

	require.Contains(t, types, domain.EventNightActionPrompt)
	assert.Equal(t, domain.EventDone, types[len(types)-1])
	assert.True(t, rt.session.AwaitingPlayerNightAction)

	var prompt domain.NightActionPromptPayload
	for _, ev := range events {
		if ev.Type == domain.EventNightActionPrompt {
			prompt = ev.Payload.(domain.NightActionPromptPayload)
		}
	}
	assert.Equal(t, domain.ActionKill, prompt.ActionType)
	for _, target := range prompt.EligibleTargets {
		assert.NotContains(t, []string{"oskar", "jorun"}, target.ID, "allies are never kill targets")
	}

	ch, err = rt.SubmitNightAction(context.Background(), domain.ActionKill, "greta")
	require.NoError(t, err)
	events = drain(t, ch)
	types = eventTypes(events)

	assert.Contains(t, types, domain.EventNightResults)
	assert.Equal(t, domain.EventDone, types[len(types)-1])

	greta := rt.session.Participant("greta")
	require.NotNil(t, greta)
	assert.True(t, greta.Eliminated)
	assert.Equal(t, domain.PhaseDiscussion, rt.session.Phase)
	assert.Equal(t, 2, rt.session.Round)
}

func TestSubmitNightActionValidation(t *testing.T) {
	hub := newTestHub(t, &scriptGen{}, nil)
	rt, err := hub.CreateSession(context.Background(), "council-of-thorns")
	require.NoError(t, err)
	pinPlayerRole(rt, werewolfRole())
	startGame(t, rt)

	_, err = rt.SubmitNightAction(context.Background(), domain.ActionKill, "maren")
	assert.ErrorIs(t, err, domain.ErrInvalidPhase, "night actions only exist at night")

	runVoteRound(t, rt, "greta")
	ch, err := rt.AdvanceNight(context.Background())
	require.NoError(t, err)
	drain(t, ch)
	require.True(t, rt.session.AwaitingPlayerNightAction)

	_, err = rt.SubmitNightAction(context.Background(), domain.ActionInvestigate, "maren")
	assert.ErrorIs(t, err, domain.ErrInvalidTarget, "kind must match the role's power")

	_, err = rt.SubmitNightAction(context.Background(), domain.ActionKill, "oskar")
	assert.ErrorIs(t, err, domain.ErrInvalidTarget, "allies are not eligible")

	// Passing the night is always allowed.
	ch, err = rt.SubmitNightAction(context.Background(), domain.ActionNone, "")
	require.NoError(t, err)
	drain(t, ch)
	assert.Equal(t, domain.PhaseDiscussion, rt.session.Phase)
}

func TestSnapshotRecovery(t *testing.T) {
	st := store.NewMemory(0)
	gen := &scriptGen{}
	hub := newTestHub(t, gen, st)

	rt, err := hub.CreateSession(context.Background(), "council-of-thorns")
	require.NoError(t, err)
	pinPlayerRole(rt, villagerRole())
	startGame(t, rt)
	runVoteRound(t, rt, "maren")
	id := rt.SessionID()

	// A fresh hub over the same store stands the session back up.
	hub2 := newTestHub(t, gen, st)
	restored, err := hub2.Get(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, id, restored.SessionID())
	assert.Equal(t, domain.PhaseReveal, restored.session.Phase)
	assert.Equal(t, 1, restored.session.Round)

	maren := restored.session.Participant("maren")
	require.NotNil(t, maren)
	assert.True(t, maren.Eliminated)
	require.NotNil(t, restored.session.PlayerRole)
	assert.Equal(t, "Villager", restored.session.PlayerRole.HiddenRole)
	assert.Len(t, restored.agents, 7)
}

func TestDeleteEvictsAndClearsStore(t *testing.T) {
	st := store.NewMemory(0)
	hub := newTestHub(t, &scriptGen{}, st)

	rt, err := hub.CreateSession(context.Background(), "council-of-thorns")
	require.NoError(t, err)
	id := rt.SessionID()

	hub.Delete(context.Background(), id)
	assert.Equal(t, 0, hub.SessionCount())

	_, err = hub.Get(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestFanOutToleratesFailures(t *testing.T) {
	inputs := []int{1, 2, 3, 4, 5}

	results, errs := fanOut(context.Background(), inputs, 2, time.Second,
		func(_ context.Context, n int) (int, error) {
			if n%2 == 0 {
				return 0, errors.New("branch failed")
			}
			return n * 10, nil
		})

	require.Len(t, results, 5)
	require.Len(t, errs, 5)
	assert.Equal(t, []int{10, 0, 30, 0, 50}, results)
	assert.NoError(t, errs[0])
	assert.Error(t, errs[1])
	assert.Error(t, errs[3])
	assert.NoError(t, errs[4])
}

func TestFanOutBranchTimeout(t *testing.T) {
	results, errs := fanOut(context.Background(), []int{1, 2}, 2, 20*time.Millisecond,
		func(ctx context.Context, n int) (string, error) {
			if n == 2 {
				<-ctx.Done()
				return "", ctx.Err()
			}
			return "fast", nil
		})

	assert.Equal(t, "fast", results[0])
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], context.DeadlineExceeded)
}

func TestEmitterTerminalEventSurvivesFullBuffer(t *testing.T) {
	em := newEmitter("s1", quietLogger())
	s := domain.NewSession("s1", domain.World{}, nil)

	// Nobody is consuming: overfill the buffer so emit starts dropping.
	for i := 0; i < eventBufferSize+50; i++ {
		em.emit(domain.EventNarration, domain.NarrationPayload{Content: "chatter"})
	}

	finished := make(chan struct{})
	go func() {
		em.done(s)
		close(finished)
	}()

	events := drain(t, em.events())
	<-finished

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, domain.EventDone, last.Type)
	for _, ev := range events[:len(events)-1] {
		assert.NotEqual(t, domain.EventDone, ev.Type, "exactly one terminal event")
	}
}

func TestBackgroundPoolSettles(t *testing.T) {
	pool := newBackgroundPool(2, time.Second, quietLogger())

	done := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		pool.dispatch("tick", func(_ context.Context) error {
			done <- struct{}{}
			return nil
		})
	}

	assert.True(t, pool.settle(time.Second))
	assert.Len(t, done, 3)
}

func TestBackgroundPoolSettleTimesOut(t *testing.T) {
	pool := newBackgroundPool(1, time.Second, quietLogger())

	release := make(chan struct{})
	pool.dispatch("slow", func(_ context.Context) error {
		<-release
		return nil
	})

	assert.False(t, pool.settle(20*time.Millisecond))
	close(release)
	assert.True(t, pool.settle(time.Second))
}
