package agent

import (
	"fmt"
	"strings"

	"conclave/internal/domain"
)

func (a *Agent) systemPrompt() string {
	c := a.char
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, a character in the social-deduction game %q.\n", c.Name, a.world.Title)
	fmt.Fprintf(&sb, "Setting: %s\n", a.world.Setting)
	fmt.Fprintf(&sb, "Persona: %s\nSpeaking style: %s\n", c.Persona, c.SpeakingStyle)
	fmt.Fprintf(&sb, "Publicly you are known as: %s\n", c.PublicRole)
	fmt.Fprintf(&sb, "Your secret role is %s of the %s faction. Never reveal it directly.\n", c.HiddenRole, c.Faction)
	fmt.Fprintf(&sb, "Your win condition: %s\n", c.WinCondition)

	for _, k := range c.HiddenKnowledge {
		fmt.Fprintf(&sb, "Secret knowledge: %s\n", k)
	}

	if len(a.canonFacts) > 0 {
		sb.WriteString("\nEstablished facts (never contradict these):\n")
		for _, f := range a.canonFacts {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
	}

	mood := a.emotions.dominant()
	if mood != "neutral" {
		fmt.Fprintf(&sb, "\nYour current mood is dominated by %s. Let it color your tone.\n", mood)
	}

	sb.WriteString("\nStay in character. Speak in first person, 1-3 sentences, no narration or stage directions.")
	return sb.String()
}

func (a *Agent) respondPrompt(playerMessage string, recent []domain.Message, modifier string) string {
	var sb strings.Builder
	sb.WriteString("Recent table discussion:\n")
	sb.WriteString(transcript(recent, 12))
	fmt.Fprintf(&sb, "\nThe player just said: %q\n", playerMessage)
	if modifier != "" {
		fmt.Fprintf(&sb, "Guidance: %s\n", modifier)
	}
	if len(a.roundMemory) > 0 {
		sb.WriteString("What you remember from earlier rounds:\n")
		for _, m := range a.roundMemory {
			fmt.Fprintf(&sb, "- %s\n", m)
		}
	}
	sb.WriteString("Respond in character.")
	return sb.String()
}

func (a *Agent) votePrompt(candidates []domain.PublicActor) string {
	var sb strings.Builder
	sb.WriteString("The council is voting to eliminate one member. Alive candidates:\n")
	sb.WriteString(candidateList(candidates, a.char.ID))
	sb.WriteString("\nRecent discussion you took part in:\n")
	sb.WriteString(historyExcerpt(a.history, 15))
	sb.WriteString("\nChoose who to vote against, true to your role and win condition. ")
	sb.WriteString(`Return JSON: {"actionType": "vote", "targetId": "<id>", "reasoning": "<one sentence>"}`)
	return sb.String()
}

func (a *Agent) nightPrompt(candidates []domain.PublicActor, instruction string) string {
	var sb strings.Builder
	sb.WriteString("Night has fallen. Alive characters:\n")
	sb.WriteString(candidateList(candidates, a.char.ID))
	fmt.Fprintf(&sb, "\n%s\n", instruction)
	sb.WriteString(`Return JSON: {"actionType": "kill"|"investigate"|"protect"|"none", "targetId": "<id or empty>", "reasoning": "<one sentence>"}`)
	return sb.String()
}

func (a *Agent) reactPrompt(recent []domain.Message) string {
	var sb strings.Builder
	sb.WriteString("You were not directly addressed, but the discussion moves you to speak:\n")
	sb.WriteString(transcript(recent, 8))
	sb.WriteString("\nGive one short in-character interjection, or reply with exactly PASS to stay silent.")
	return sb.String()
}

func summarizePrompt(msgs []domain.Message) string {
	var sb strings.Builder
	sb.WriteString("Summarize the key claims, accusations, and alliances from this round in at most two sentences:\n")
	sb.WriteString(transcript(msgs, 20))
	return sb.String()
}

func candidateList(candidates []domain.PublicActor, selfID string) string {
	var sb strings.Builder
	for _, c := range candidates {
		if c.ID == selfID {
			continue
		}
		fmt.Fprintf(&sb, "- %s (id: %s), %s\n", c.Name, c.ID, c.PublicRole)
	}
	return sb.String()
}

func transcript(msgs []domain.Message, limit int) string {
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	var sb strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&sb, "[%s]: %s\n", m.SpeakerName, m.Content)
	}
	if sb.Len() == 0 {
		return "(no discussion yet)\n"
	}
	return sb.String()
}

func historyExcerpt(turns []Turn, limit int) string {
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	var sb strings.Builder
	for _, t := range turns {
		content := t.Content
		if len(content) > 200 {
			content = content[:200]
		}
		fmt.Fprintf(&sb, "[%s]: %s\n", t.Role, content)
	}
	if sb.Len() == 0 {
		return "(no recent discussion)\n"
	}
	return sb.String()
}
