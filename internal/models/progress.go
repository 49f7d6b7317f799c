package models

import (
	"encoding/json"
	"fmt"
)

// ProgressState is the persisted shape of a user's funnel position.
// CurrentStep tracks the displayed screen, Completion tracks confirmed stages;
// the two move independently.
type ProgressState struct {
	CurrentStep int             `json:"currentStep"`
	TotalSteps  int             `json:"totalSteps"`
	Completion  map[StepID]bool `json:"completion"`
}

func NewProgressState() ProgressState {
	completion := make(map[StepID]bool, len(Funnel))
	for _, id := range Funnel {
		completion[id] = false
	}
	return ProgressState{
		CurrentStep: 1,
		TotalSteps:  len(Funnel),
		Completion:  completion,
	}
}

func (p ProgressState) Clone() ProgressState {
	completion := make(map[StepID]bool, len(p.Completion))
	for id, done := range p.Completion {
		completion[id] = done
	}
	return ProgressState{
		CurrentStep: p.CurrentStep,
		TotalSteps:  p.TotalSteps,
		Completion:  completion,
	}
}

// Validate reports ErrCorruptState when p could not have been produced by the
// funnel: a foreign step count, an out of range step, or a completion map that
// does not hold exactly one entry per stage.
func (p ProgressState) Validate() error {
	if p.TotalSteps != len(Funnel) {
		return fmt.Errorf("%w: total steps %d, expected %d", ErrCorruptState, p.TotalSteps, len(Funnel))
	}
	if p.CurrentStep < 1 || p.CurrentStep > p.TotalSteps {
		return fmt.Errorf("%w: current step %d out of range 1..%d", ErrCorruptState, p.CurrentStep, p.TotalSteps)
	}
	for id := range p.Completion {
		if !id.IsValid() {
			return fmt.Errorf("%w: unknown step id %q", ErrCorruptState, id)
		}
	}
	for _, id := range Funnel {
		if _, ok := p.Completion[id]; !ok {
			return fmt.Errorf("%w: missing step id %q", ErrCorruptState, id)
		}
	}
	return nil
}

func (p ProgressState) CompletedCount() int {
	n := 0
	for _, done := range p.Completion {
		if done {
			n++
		}
	}
	return n
}

func (p ProgressState) Equal(other ProgressState) bool {
	if p.CurrentStep != other.CurrentStep || p.TotalSteps != other.TotalSteps {
		return false
	}
	if len(p.Completion) != len(other.Completion) {
		return false
	}
	for id, done := range p.Completion {
		if v, ok := other.Completion[id]; !ok || v != done {
			return false
		}
	}
	return true
}

func EncodeProgressState(p ProgressState) ([]byte, error) {
	return json.Marshal(p)
}

// DecodeProgressState parses a persisted blob and validates it. Any failure is
// reported as ErrCorruptState.
func DecodeProgressState(data []byte) (ProgressState, error) {
	var p ProgressState
	if err := json.Unmarshal(data, &p); err != nil {
		return ProgressState{}, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if err := p.Validate(); err != nil {
		return ProgressState{}, err
	}
	return p, nil
}
