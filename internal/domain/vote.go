package domain

// VoteRecord is a single elimination vote
type VoteRecord struct {
	VoterID    string `json:"voterId"`
	VoterName  string `json:"voterName"`
	TargetID   string `json:"targetId"`
	TargetName string `json:"targetName"`
}

// VoteOutcome is the result of tallying one round's votes
type VoteOutcome struct {
	Votes          []VoteRecord   `json:"votes"`
	Tally          map[string]int `json:"tally"`
	EliminatedID   string         `json:"eliminatedId,omitempty"`
	EliminatedName string         `json:"eliminatedName,omitempty"`
	IsTie          bool           `json:"isTie"`
}

// validVote reports whether a vote may be counted: the voter and target must
// both be alive and the target must not be the voter.
func (s *Session) validVote(v VoteRecord) bool {
	if v.VoterID == v.TargetID {
		return false
	}
	if !s.aliveID(v.VoterID) || !s.aliveID(v.TargetID) {
		return false
	}
	return true
}

func (s *Session) aliveID(id string) bool {
	if id == PlayerID {
		return s.PlayerAlive()
	}
	p := s.Participant(id)
	return p != nil && p.Alive()
}

// ResolveVotes validates and tallies the given votes. Invalid votes are
// discarded one by one rather than failing the round. The target with the
// strict maximum count is eliminated; a tie for the maximum eliminates
// nobody. The accepted votes are recorded on the session.
func (s *Session) ResolveVotes(votes []VoteRecord) VoteOutcome {
	accepted := make([]VoteRecord, 0, len(votes))
	tally := make(map[string]int)
	for _, v := range votes {
		if !s.validVote(v) {
			continue
		}
		accepted = append(accepted, v)
		tally[v.TargetID]++
	}

	s.Votes = accepted

	outcome := VoteOutcome{Votes: accepted, Tally: tally}

	if len(tally) == 0 {
		outcome.IsTie = true
		s.VoteResults = append(s.VoteResults, outcome)
		return outcome
	}

	maxVotes := 0
	for _, count := range tally {
		if count > maxVotes {
			maxVotes = count
		}
	}

	var top []string
	for id, count := range tally {
		if count == maxVotes {
			top = append(top, id)
		}
	}

	if len(top) > 1 {
		outcome.IsTie = true
		s.VoteResults = append(s.VoteResults, outcome)
		return outcome
	}

	outcome.EliminatedID = top[0]
	outcome.EliminatedName = s.displayName(top[0])
	s.Eliminate(top[0])
	s.VoteResults = append(s.VoteResults, outcome)
	return outcome
}

func (s *Session) displayName(id string) string {
	if id == PlayerID {
		return "You"
	}
	if p := s.Participant(id); p != nil {
		return p.Name
	}
	return "Unknown"
}
