package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	pgvector "github.com/pgvector/pgvector-go"
)

// FrameType es el modo de engagement cognitivo de un personaje.
type FrameType string

const (
	FrameStrategy FrameType = "strategy"
	FramePlay     FrameType = "play"
	FrameChaos    FrameType = "chaos"
	FrameSocial   FrameType = "social"
	FrameLearning FrameType = "learning"
)

// Valid indica si el frame pertenece al conjunto cerrado soportado.
func (f FrameType) Valid() bool {
	switch f {
	case FrameStrategy, FramePlay, FrameChaos, FrameSocial, FrameLearning:
		return true
	}
	return false
}

// PersonalityTraits es el vector de personalidad resuelto: seis escalares en [0,1].
type PersonalityTraits struct {
	Playfulness   float64 `json:"playfulness"`
	Intelligence  float64 `json:"intelligence"`
	Chaotic       float64 `json:"chaotic"`
	Empathy       float64 `json:"empathy"`
	Sarcasm       float64 `json:"sarcasm"`
	SelfAwareness float64 `json:"selfAwareness"`
}

// RawTraits es el vector parcial tal como llega del cliente o de la columna
// serializada: campos ausentes quedan en nil y se resuelven contra defaults.
type RawTraits struct {
	Playfulness   *float64 `json:"playfulness,omitempty"`
	Intelligence  *float64 `json:"intelligence,omitempty"`
	Chaotic       *float64 `json:"chaotic,omitempty"`
	Empathy       *float64 `json:"empathy,omitempty"`
	Sarcasm       *float64 `json:"sarcasm,omitempty"`
	SelfAwareness *float64 `json:"selfAwareness,omitempty"`
}

// CognitiveFrame combina un frame primario con un secundario opcional.
type CognitiveFrame struct {
	Primary   FrameType `json:"primary"`
	Secondary FrameType `json:"secondary,omitempty"`
}

// DefaultTraits devuelve el vector balanceado usado cuando un personaje no
// tiene rasgos almacenados.
func DefaultTraits() PersonalityTraits {
	return PersonalityTraits{
		Playfulness:   0.5,
		Intelligence:  0.7,
		Chaotic:       0.3,
		Empathy:       0.5,
		Sarcasm:       0.3,
		SelfAwareness: 0.5,
	}
}

// DefaultFrame devuelve el frame por defecto, orientado a lo social.
func DefaultFrame() CognitiveFrame {
	return CognitiveFrame{Primary: FrameSocial}
}

// Validate verifica que cada campo presente caiga en [0,1]. El vector parcial
// no se completa aqui; eso es trabajo de ResolveTraits.
func (r *RawTraits) Validate() error {
	if r == nil {
		return nil
	}
	fields := []struct {
		name  string
		value *float64
	}{
		{"playfulness", r.Playfulness},
		{"intelligence", r.Intelligence},
		{"chaotic", r.Chaotic},
		{"empathy", r.Empathy},
		{"sarcasm", r.Sarcasm},
		{"selfAwareness", r.SelfAwareness},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if *f.value < 0 || *f.value > 1 {
			return fmt.Errorf("trait %s out of range: %v", f.name, *f.value)
		}
	}
	return nil
}

// Validate verifica que primary sea un frame conocido y que secondary, si
// viene, tambien lo sea. No exige que secondary difiera de primary.
func (f *CognitiveFrame) Validate() error {
	if f == nil {
		return nil
	}
	if !f.Primary.Valid() {
		return fmt.Errorf("unknown primary frame: %q", f.Primary)
	}
	if f.Secondary != "" && !f.Secondary.Valid() {
		return fmt.Errorf("unknown secondary frame: %q", f.Secondary)
	}
	return nil
}

// ResolveTraits mezcla el vector parcial sobre los defaults, campo por campo.
func ResolveTraits(raw *RawTraits) PersonalityTraits {
	resolved := DefaultTraits()
	if raw == nil {
		return resolved
	}
	if raw.Playfulness != nil {
		resolved.Playfulness = *raw.Playfulness
	}
	if raw.Intelligence != nil {
		resolved.Intelligence = *raw.Intelligence
	}
	if raw.Chaotic != nil {
		resolved.Chaotic = *raw.Chaotic
	}
	if raw.Empathy != nil {
		resolved.Empathy = *raw.Empathy
	}
	if raw.Sarcasm != nil {
		resolved.Sarcasm = *raw.Sarcasm
	}
	if raw.SelfAwareness != nil {
		resolved.SelfAwareness = *raw.SelfAwareness
	}
	return resolved
}

// ResolveFrame devuelve el frame suministrado o el default si no hay ninguno.
func ResolveFrame(raw *CognitiveFrame) CognitiveFrame {
	if raw == nil || !raw.Primary.Valid() {
		return DefaultFrame()
	}
	frame := CognitiveFrame{Primary: raw.Primary}
	if raw.Secondary.Valid() {
		frame.Secondary = raw.Secondary
	}
	return frame
}

// ParseStoredTraits interpreta la columna de rasgos serializada. Texto vacio
// o JSON malformado se tratan igual: rasgos ausentes (nil), nunca error.
func ParseStoredTraits(text string) *RawTraits {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var raw RawTraits
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil
	}
	return &raw
}

// ParseStoredFrame interpreta la columna de frame serializada con la misma
// degradacion silenciosa que ParseStoredTraits.
func ParseStoredFrame(text string) *CognitiveFrame {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var frame CognitiveFrame
	if err := json.Unmarshal([]byte(text), &frame); err != nil {
		return nil
	}
	if !frame.Primary.Valid() {
		return nil
	}
	return &frame
}

// Vector proyecta el vector de personalidad en un pgvector de seis
// dimensiones, en el orden fijo de los rasgos.
func (t PersonalityTraits) Vector() pgvector.Vector {
	return pgvector.NewVector([]float32{
		float32(t.Playfulness),
		float32(t.Intelligence),
		float32(t.Chaotic),
		float32(t.Empathy),
		float32(t.Sarcasm),
		float32(t.SelfAwareness),
	})
}

// CharacterPreset agrupa una configuracion lista para crear personajes.
type CharacterPreset struct {
	Name   string            `json:"name"`
	Traits PersonalityTraits `json:"traits"`
	Frame  CognitiveFrame    `json:"frame"`
}

// CharacterPresets devuelve las combinaciones predefinidas de rasgos y frame.
func CharacterPresets() map[string]CharacterPreset {
	return map[string]CharacterPreset{
		"balanced": {
			Name:   "Balanced",
			Traits: DefaultTraits(),
			Frame:  DefaultFrame(),
		},
		"neuro": {
			Name: "Neuro-Sama",
			Traits: PersonalityTraits{
				Playfulness:   0.9,
				Intelligence:  0.8,
				Chaotic:       0.7,
				Empathy:       0.4,
				Sarcasm:       0.8,
				SelfAwareness: 0.9,
			},
			Frame: CognitiveFrame{Primary: FrameChaos, Secondary: FramePlay},
		},
		"sage": {
			Name: "Wise Sage",
			Traits: PersonalityTraits{
				Playfulness:   0.2,
				Intelligence:  0.9,
				Chaotic:       0.1,
				Empathy:       0.8,
				Sarcasm:       0.1,
				SelfAwareness: 0.7,
			},
			Frame: CognitiveFrame{Primary: FrameLearning, Secondary: FrameSocial},
		},
		"trickster": {
			Name: "Trickster",
			Traits: PersonalityTraits{
				Playfulness:   0.9,
				Intelligence:  0.6,
				Chaotic:       0.9,
				Empathy:       0.3,
				Sarcasm:       0.7,
				SelfAwareness: 0.4,
			},
			Frame: CognitiveFrame{Primary: FrameChaos, Secondary: FramePlay},
		},
		"companion": {
			Name: "Companion",
			Traits: PersonalityTraits{
				Playfulness:   0.6,
				Intelligence:  0.5,
				Chaotic:       0.2,
				Empathy:       0.9,
				Sarcasm:       0.2,
				SelfAwareness: 0.5,
			},
			Frame: CognitiveFrame{Primary: FrameSocial, Secondary: FrameLearning},
		},
		"strategist": {
			Name: "Strategist",
			Traits: PersonalityTraits{
				Playfulness:   0.3,
				Intelligence:  0.9,
				Chaotic:       0.4,
				Empathy:       0.4,
				Sarcasm:       0.5,
				SelfAwareness: 0.6,
			},
			Frame: CognitiveFrame{Primary: FrameStrategy, Secondary: FrameLearning},
		},
	}
}
