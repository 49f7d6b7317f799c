package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

func drawValidState(t *rapid.T) ProgressState {
	state := NewProgressState()
	state.CurrentStep = rapid.IntRange(1, len(Funnel)).Draw(t, "currentStep")
	for _, id := range Funnel {
		state.Completion[id] = rapid.Bool().Draw(t, string(id))
	}
	return state
}

func TestNewProgressState(t *testing.T) {
	state := NewProgressState()

	if state.CurrentStep != 1 {
		t.Errorf("CurrentStep = %d, want 1", state.CurrentStep)
	}
	if state.TotalSteps != 6 {
		t.Errorf("TotalSteps = %d, want 6", state.TotalSteps)
	}
	if len(state.Completion) != len(Funnel) {
		t.Fatalf("Completion has %d entries, want %d", len(state.Completion), len(Funnel))
	}
	for _, id := range Funnel {
		if done, ok := state.Completion[id]; !ok || done {
			t.Errorf("Completion[%q] = %v (present %v), want false", id, done, ok)
		}
	}
	if err := state.Validate(); err != nil {
		t.Errorf("fresh state should validate: %v", err)
	}
}

func TestProgressStateClone_Independent(t *testing.T) {
	state := NewProgressState()
	clone := state.Clone()
	clone.Completion[StepKyc] = true
	clone.CurrentStep = 4

	if state.Completion[StepKyc] {
		t.Error("mutating the clone changed the original completion map")
	}
	if state.CurrentStep != 1 {
		t.Error("mutating the clone changed the original current step")
	}
}

func TestProgressStateEncodeDecode_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		state := drawValidState(t)

		data, err := EncodeProgressState(state)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		decoded, err := DecodeProgressState(data)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if diff := cmp.Diff(state, decoded); diff != "" {
			t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestEncodeProgressState_Format(t *testing.T) {
	data, err := EncodeProgressState(NewProgressState())
	if err != nil {
		t.Fatal(err)
	}
	for _, fragment := range []string{`"currentStep":1`, `"totalSteps":6`, `"completion":{`, `"eSign":false`, `"phoneVerification":false`} {
		if !strings.Contains(string(data), fragment) {
			t.Errorf("encoded state %s does not contain %s", data, fragment)
		}
	}
}

func TestValidate_Corrupt(t *testing.T) {
	tests := map[string]func(*ProgressState){
		"step count mismatch": func(p *ProgressState) { p.TotalSteps = 4 },
		"step zero":           func(p *ProgressState) { p.CurrentStep = 0 },
		"step past end":       func(p *ProgressState) { p.CurrentStep = 7 },
		"missing eSign":       func(p *ProgressState) { delete(p.Completion, StepESign) },
		"unknown key":         func(p *ProgressState) { p.Completion["otp"] = true },
		"nil completion":      func(p *ProgressState) { p.Completion = nil },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			state := NewProgressState()
			mutate(&state)
			if err := state.Validate(); !errors.Is(err, ErrCorruptState) {
				t.Fatalf("Validate() = %v, want ErrCorruptState", err)
			}
		})
	}
}

func TestDecodeProgressState_Corrupt(t *testing.T) {
	blobs := []string{
		``,
		`not json`,
		`{"currentStep":"two","totalSteps":6,"completion":{}}`,
		`{"currentStep":1,"totalSteps":6,"completion":{"phoneVerification":false,"fetchMutualFunds":false,"kyc":false,"pledgeMutualFunds":false,"bankAccount":false}}`,
		`{"currentStep":1,"totalSteps":4,"completion":{"phoneVerification":false,"fetchMutualFunds":false,"kyc":false,"pledgeMutualFunds":false,"bankAccount":false,"eSign":false}}`,
	}
	for _, blob := range blobs {
		if _, err := DecodeProgressState([]byte(blob)); !errors.Is(err, ErrCorruptState) {
			t.Errorf("DecodeProgressState(%q) = %v, want ErrCorruptState", blob, err)
		}
	}
}

func TestCompletedCount(t *testing.T) {
	state := NewProgressState()
	state.Completion[StepPhoneVerification] = true
	state.Completion[StepKyc] = true
	if got := state.CompletedCount(); got != 2 {
		t.Errorf("CompletedCount() = %d, want 2", got)
	}
}
