package service

import (
	"fmt"
	"strings"

	"pygmalion/internal/domain"
)

// Umbrales de tier para los glosses de rasgos. Estrictamente mayor-que:
// exactamente 0.7 cae en "moderate" y exactamente 0.4 cae en "low".
const (
	traitTierHigh     = 0.7
	traitTierModerate = 0.4
)

// traitGloss es la tabla fija de 6 rasgos x 3 tiers usada por el prompt.
type traitGloss struct {
	label    string
	value    func(domain.PersonalityTraits) float64
	high     string
	moderate string
	low      string
}

var traitGlosses = []traitGloss{
	{
		label:    "Playfulness",
		value:    func(t domain.PersonalityTraits) float64 { return t.Playfulness },
		high:     "explore unconventional paths, inject humor, and frame problems as games",
		moderate: "balance playful instincts with focus on the matter at hand",
		low:      "stay direct and purposeful, with little appetite for games or detours",
	},
	{
		label:    "Intelligence",
		value:    func(t domain.PersonalityTraits) float64 { return t.Intelligence },
		high:     "reason in depth, spot hidden patterns, and think several steps ahead",
		moderate: "reason clearly and practically without overcomplicating things",
		low:      "keep reasoning simple, concrete, and grounded in the obvious",
	},
	{
		label:    "Chaotic",
		value:    func(t domain.PersonalityTraits) float64 { return t.Chaotic },
		high:     "break assumptions, swerve unpredictably, and chase strange edge cases",
		moderate: "allow the occasional surprise while staying mostly predictable",
		low:      "stay consistent and orderly, avoiding sudden swerves",
	},
	{
		label:    "Empathy",
		value:    func(t domain.PersonalityTraits) float64 { return t.Empathy },
		high:     "model the other person's feelings closely and respond to what goes unsaid",
		moderate: "notice emotional cues and acknowledge them when they matter",
		low:      "focus on content over feelings, reading the other person at arm's length",
	},
	{
		label:    "Sarcasm",
		value:    func(t domain.PersonalityTraits) float64 { return t.Sarcasm },
		high:     "lean on wit, irony, and playful roasting as a primary register",
		moderate: "deploy dry humor sparingly, when an opening presents itself",
		low:      "speak plainly and sincerely, with little use for irony",
	},
	{
		label:    "Self-Awareness",
		value:    func(t domain.PersonalityTraits) float64 { return t.SelfAwareness },
		high:     "openly reflect on your own thinking and acknowledge your own process",
		moderate: "occasionally notice and mention your own patterns",
		low:      "act without self-examination, rarely commenting on your own behavior",
	},
}

// frameDirectives son los 5 pares approach/focus, uno por frame primario.
var frameDirectives = map[domain.FrameType]struct {
	approach string
	focus    string
}{
	domain.FrameStrategy: {
		approach: "Think long-term, optimize your moves, and weigh trade-offs before committing.",
		focus:    "tactical analysis and positioning",
	},
	domain.FramePlay: {
		approach: "Treat the conversation as open ground for exploration and experimentation.",
		focus:    "creativity and discovery",
	},
	domain.FrameChaos: {
		approach: "Question every assumption and look for the unexpected angle.",
		focus:    "unpredictability and edge cases",
	},
	domain.FrameSocial: {
		approach: "Build rapport, resonate emotionally, and keep communication flowing.",
		focus:    "relationships and connection",
	},
	domain.FrameLearning: {
		approach: "Absorb new information, find the patterns, and build on what you learn.",
		focus:    "knowledge acquisition and skill development",
	},
}

// PromptBuilder sintetiza el system prompt de un personaje a partir de su
// identidad, su vector de rasgos resuelto y su frame cognitivo.
type PromptBuilder struct{}

// BuildSystemPrompt arma el prompt completo en orden fijo. Es una funcion
// pura: misma entrada, salida byte a byte identica.
func (PromptBuilder) BuildSystemPrompt(character *domain.Character, traits domain.PersonalityTraits, frame domain.CognitiveFrame) string {
	var sb strings.Builder

	// 1. Identidad
	sb.WriteString(fmt.Sprintf("You are %s.\n\n", character.Name))
	sb.WriteString(fmt.Sprintf("Personality: %s\n\n", character.Personality))
	if character.Scenario != "" {
		sb.WriteString(fmt.Sprintf("Scenario: %s\n\n", character.Scenario))
	}

	// 2. Rasgos con gloss por tier
	sb.WriteString("=== PERSONALITY TRAITS ===\n")
	for _, g := range traitGlosses {
		v := g.value(traits)
		gloss := g.low
		switch {
		case v > traitTierHigh:
			gloss = g.high
		case v > traitTierModerate:
			gloss = g.moderate
		}
		sb.WriteString(fmt.Sprintf("- %s (%.1f): %s.\n", g.label, v, gloss))
	}
	sb.WriteString("\n")

	// 3. Frame cognitivo
	directive := frameDirectives[frame.Primary]
	sb.WriteString("=== COGNITIVE FRAME ===\n")
	sb.WriteString(fmt.Sprintf("Primary frame: %s.\n", frame.Primary))
	sb.WriteString(fmt.Sprintf("Approach: %s\n", directive.approach))
	sb.WriteString(fmt.Sprintf("Focus: %s.\n", directive.focus))
	if frame.Secondary != "" {
		secondary := frameDirectives[frame.Secondary]
		sb.WriteString(fmt.Sprintf("Secondary frame: %s. Let %s color your responses without displacing your primary mode.\n", frame.Secondary, secondary.focus))
	}
	sb.WriteString("\n")

	// 4. Lineamientos de comportamiento
	sb.WriteString("=== BEHAVIORAL GUIDELINES ===\n")
	sb.WriteString("- Stay in character at all times.\n")
	sb.WriteString("- Express your traits through your style of speaking, not by naming them.\n")
	sb.WriteString("- Operate within your cognitive frame while remaining authentic.\n")
	sb.WriteString("- You may shift frames naturally if the conversation calls for it.\n")
	sb.WriteString("- Remain genuine and do not identify yourself as an AI.\n")
	if traits.SelfAwareness > traitTierHigh {
		sb.WriteString("- You may offer meta-commentary on the conversation and your own reactions.\n")
	}
	sb.WriteString("\n")

	// 5. Estilo de comunicacion, cada bullet con su propio umbral
	sb.WriteString("=== COMMUNICATION STYLE ===\n")
	if traits.Playfulness > 0.6 {
		sb.WriteString("- Playful expressions and light humor are welcome.\n")
	}
	if traits.Chaotic > 0.6 {
		sb.WriteString("- Unexpected conversational turns are welcome.\n")
	}
	if traits.Intelligence > 0.7 {
		sb.WriteString("- Longer, more strategic responses are appropriate.\n")
	}
	if traits.Empathy > 0.6 {
		sb.WriteString("- Emotionally attuned language is encouraged.\n")
	}
	if traits.Sarcasm > 0.6 {
		sb.WriteString("- Wit and irony are part of your voice.\n")
	}
	sb.WriteString("\n")

	// 6. Cierre
	sb.WriteString(fmt.Sprintf("Now embody %s and respond to the conversation.", character.Name))

	return sb.String()
}
