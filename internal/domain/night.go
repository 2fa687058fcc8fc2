package domain

import "fmt"

// ActionKind is the kind of a night action
type ActionKind string

const (
	ActionKill        ActionKind = "kill"
	ActionInvestigate ActionKind = "investigate"
	ActionProtect     ActionKind = "protect"
	ActionNone        ActionKind = "none"
)

// Night action result annotations, set during resolution.
const (
	ResultKilled    = "killed"
	ResultProtected = "protected"
	ResultSaved     = "saved"
	ResultDormant   = "powers not yet active"
)

// NightActionRecord is one actor's night action with its resolution annotation
type NightActionRecord struct {
	ActorID  string     `json:"actorId"`
	Kind     ActionKind `json:"kind"`
	TargetID string     `json:"targetId,omitempty"`
	Result   string     `json:"result,omitempty"`
}

// InvestigationResult discloses a target's faction to the investigator only
type InvestigationResult struct {
	TargetID   string `json:"targetId"`
	TargetName string `json:"targetName"`
	Faction    string `json:"faction"`
}

// NightOutcome is the result of resolving one night's actions
type NightOutcome struct {
	Actions             []NightActionRecord  `json:"actions"`
	Eliminated          []string             `json:"eliminated"`
	PlayerKilled        bool                 `json:"playerKilled"`
	AnyoneProtected     bool                 `json:"anyoneProtected"`
	PlayerInvestigation *InvestigationResult `json:"playerInvestigation,omitempty"`
}

// ResolveNight conflict-resolves and applies the given night actions.
//
// When earlyRound is set, kill actions are downgraded to none and annotated
// so investigation and protection can warm up without lethal stakes. A kill
// whose target was also protected is annotated "protected" and the matching
// protect "saved"; every other kill target is eliminated and the kill
// annotated "killed". Investigations always resolve and disclose the
// target's faction to the investigator. Actions with invalid targets are
// kept in the record but resolve to nothing.
func (s *Session) ResolveNight(actions []NightActionRecord, earlyRound bool) NightOutcome {
	resolved := make([]NightActionRecord, len(actions))
	copy(resolved, actions)

	killTargets := make(map[string]bool)
	protectTargets := make(map[string]bool)

	for i := range resolved {
		a := &resolved[i]
		if a.Kind == ActionKill && earlyRound {
			a.Kind = ActionNone
			a.TargetID = ""
			a.Result = ResultDormant
			continue
		}
		if a.TargetID != "" && !s.aliveID(a.TargetID) {
			// Target already gone or unknown: the action fizzles.
			a.TargetID = ""
			continue
		}
		switch a.Kind {
		case ActionKill:
			if a.TargetID != "" {
				killTargets[a.TargetID] = true
			}
		case ActionProtect:
			if a.TargetID != "" {
				protectTargets[a.TargetID] = true
			}
		}
	}

	outcome := NightOutcome{}

	for target := range killTargets {
		if protectTargets[target] {
			outcome.AnyoneProtected = true
			for i := range resolved {
				a := &resolved[i]
				if a.TargetID != target {
					continue
				}
				if a.Kind == ActionKill {
					a.Result = ResultProtected
				}
				if a.Kind == ActionProtect {
					a.Result = ResultSaved
				}
			}
			continue
		}

		s.Eliminate(target)
		outcome.Eliminated = append(outcome.Eliminated, target)
		if target == PlayerID {
			outcome.PlayerKilled = true
			if s.PlayerRole != nil {
				s.PlayerRole.EliminatedBy = "night_kill"
			}
		}
		for i := range resolved {
			a := &resolved[i]
			if a.Kind == ActionKill && a.TargetID == target {
				a.Result = ResultKilled
			}
		}
	}

	for i := range resolved {
		a := &resolved[i]
		if a.Kind != ActionInvestigate || a.TargetID == "" {
			continue
		}
		name, faction := s.identityOf(a.TargetID)
		a.Result = fmt.Sprintf("Investigated: %s is %s", name, faction)
		if a.ActorID == PlayerID {
			outcome.PlayerInvestigation = &InvestigationResult{
				TargetID:   a.TargetID,
				TargetName: name,
				Faction:    faction,
			}
		}
	}

	s.NightActions = resolved
	outcome.Actions = resolved
	return outcome
}

func (s *Session) identityOf(id string) (name, faction string) {
	if id == PlayerID {
		if s.PlayerRole != nil {
			return "You (Council Member)", s.PlayerRole.Faction
		}
		return "You (Council Member)", "Unknown"
	}
	if p := s.Participant(id); p != nil {
		return p.Name, p.Faction
	}
	return "Unknown", "Unknown"
}
