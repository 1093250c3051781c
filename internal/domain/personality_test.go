package domain

import (
	"math"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func TestResolveTraits_NilUsesDefaults(t *testing.T) {
	got := ResolveTraits(nil)
	want := DefaultTraits()
	if got != want {
		t.Fatalf("ResolveTraits(nil) = %+v, want defaults %+v", got, want)
	}
}

func TestResolveTraits_PartialMergesFieldByField(t *testing.T) {
	raw := &RawTraits{
		Chaotic: fptr(0.9),
		Sarcasm: fptr(0.0),
	}
	got := ResolveTraits(raw)

	if got.Chaotic != 0.9 {
		t.Fatalf("expected chaotic override 0.9, got %v", got.Chaotic)
	}
	if got.Sarcasm != 0.0 {
		t.Fatalf("expected explicit zero to survive the merge, got %v", got.Sarcasm)
	}
	defaults := DefaultTraits()
	if got.Playfulness != defaults.Playfulness || got.Intelligence != defaults.Intelligence ||
		got.Empathy != defaults.Empathy || got.SelfAwareness != defaults.SelfAwareness {
		t.Fatalf("absent fields must come from defaults, got %+v", got)
	}
}

func TestResolveTraits_FullVectorRoundTrip(t *testing.T) {
	raw := &RawTraits{
		Playfulness:   fptr(0.11),
		Intelligence:  fptr(0.22),
		Chaotic:       fptr(0.33),
		Empathy:       fptr(0.44),
		Sarcasm:       fptr(0.55),
		SelfAwareness: fptr(0.66),
	}
	got := ResolveTraits(raw)
	want := PersonalityTraits{0.11, 0.22, 0.33, 0.44, 0.55, 0.66}
	if got != want {
		t.Fatalf("full vector should pass through untouched: got %+v want %+v", got, want)
	}
}

func TestRawTraitsValidate(t *testing.T) {
	tests := []struct {
		name    string
		traits  *RawTraits
		wantErr bool
	}{
		{name: "nil traits", traits: nil, wantErr: false},
		{name: "empty traits", traits: &RawTraits{}, wantErr: false},
		{name: "boundaries inclusive", traits: &RawTraits{Playfulness: fptr(0), Chaotic: fptr(1)}, wantErr: false},
		{name: "negative", traits: &RawTraits{Empathy: fptr(-0.1)}, wantErr: true},
		{name: "above one", traits: &RawTraits{Intelligence: fptr(1.01)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.traits.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCognitiveFrameValidate(t *testing.T) {
	tests := []struct {
		name    string
		frame   *CognitiveFrame
		wantErr bool
	}{
		{name: "nil frame", frame: nil, wantErr: false},
		{name: "primary only", frame: &CognitiveFrame{Primary: FrameStrategy}, wantErr: false},
		{name: "primary and secondary", frame: &CognitiveFrame{Primary: FrameChaos, Secondary: FramePlay}, wantErr: false},
		{name: "secondary equals primary", frame: &CognitiveFrame{Primary: FrameSocial, Secondary: FrameSocial}, wantErr: false},
		{name: "unknown primary", frame: &CognitiveFrame{Primary: "mystic"}, wantErr: true},
		{name: "unknown secondary", frame: &CognitiveFrame{Primary: FramePlay, Secondary: "mystic"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.frame.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveFrame(t *testing.T) {
	if got := ResolveFrame(nil); got != DefaultFrame() {
		t.Fatalf("ResolveFrame(nil) = %+v, want default", got)
	}
	if got := ResolveFrame(&CognitiveFrame{Primary: "???"}); got != DefaultFrame() {
		t.Fatalf("invalid primary should fall back to default, got %+v", got)
	}
	got := ResolveFrame(&CognitiveFrame{Primary: FrameStrategy, Secondary: FrameLearning})
	if got.Primary != FrameStrategy || got.Secondary != FrameLearning {
		t.Fatalf("expected strategy/learning, got %+v", got)
	}
	got = ResolveFrame(&CognitiveFrame{Primary: FramePlay, Secondary: "???"})
	if got.Primary != FramePlay || got.Secondary != "" {
		t.Fatalf("invalid secondary should be dropped, got %+v", got)
	}
}

func TestParseStoredTraits(t *testing.T) {
	if got := ParseStoredTraits(""); got != nil {
		t.Fatalf("empty column should parse to nil, got %+v", got)
	}
	if got := ParseStoredTraits("{not json"); got != nil {
		t.Fatalf("malformed column should parse to nil, got %+v", got)
	}
	got := ParseStoredTraits(`{"chaotic":0.8}`)
	if got == nil || got.Chaotic == nil || *got.Chaotic != 0.8 {
		t.Fatalf("expected chaotic=0.8, got %+v", got)
	}
	if got.Playfulness != nil {
		t.Fatalf("absent fields must stay nil, got %+v", got)
	}
}

func TestParseStoredFrame(t *testing.T) {
	if got := ParseStoredFrame(""); got != nil {
		t.Fatalf("empty column should parse to nil, got %+v", got)
	}
	if got := ParseStoredFrame(`{"primary":"mystic"}`); got != nil {
		t.Fatalf("unknown primary should parse to nil, got %+v", got)
	}
	got := ParseStoredFrame(`{"primary":"chaos","secondary":"play"}`)
	if got == nil || got.Primary != FrameChaos || got.Secondary != FramePlay {
		t.Fatalf("expected chaos/play, got %+v", got)
	}
}

func TestPersonalityTraitsVectorOrder(t *testing.T) {
	traits := PersonalityTraits{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	vec := traits.Vector().Slice()
	want := []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	if len(vec) != len(want) {
		t.Fatalf("expected 6 dimensions, got %d", len(vec))
	}
	for i := range want {
		if math.Abs(float64(vec[i]-want[i])) > 1e-6 {
			t.Fatalf("dimension %d: got %v want %v", i, vec[i], want[i])
		}
	}
}

func TestCharacterPresetsAreValid(t *testing.T) {
	presets := CharacterPresets()
	for _, key := range []string{"balanced", "neuro", "sage", "trickster", "companion", "strategist"} {
		preset, ok := presets[key]
		if !ok {
			t.Fatalf("missing preset %q", key)
		}
		if preset.Name == "" {
			t.Fatalf("preset %q has empty name", key)
		}
		if !preset.Frame.Primary.Valid() {
			t.Fatalf("preset %q has invalid primary frame %q", key, preset.Frame.Primary)
		}
		if preset.Frame.Secondary != "" && !preset.Frame.Secondary.Valid() {
			t.Fatalf("preset %q has invalid secondary frame %q", key, preset.Frame.Secondary)
		}
		for i, v := range []float64{
			preset.Traits.Playfulness, preset.Traits.Intelligence, preset.Traits.Chaotic,
			preset.Traits.Empathy, preset.Traits.Sarcasm, preset.Traits.SelfAwareness,
		} {
			if v < 0 || v > 1 {
				t.Fatalf("preset %q trait %d out of range: %v", key, i, v)
			}
		}
	}
	if presets["balanced"].Traits != DefaultTraits() {
		t.Fatalf("balanced preset should match defaults, got %+v", presets["balanced"].Traits)
	}
}
