package workflow

import (
	"fmt"
	"testing"
)

func TestOrdinal(t *testing.T) {
	tests := []struct {
		step Step
		want int
	}{
		{StepResearch, 0},
		{StepSelection, 1},
		{StepRefinement, 2},
		{StepScript, 3},
		{StepVideo, 4},
		{StepQuestions, 5},
		{StepCompleted, 5},
		{Step("publishing"), 0},
		{Step(""), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.step), func(t *testing.T) {
			if got := Ordinal(tt.step); got != tt.want {
				t.Errorf("Ordinal(%q) = %d, want %d", tt.step, got, tt.want)
			}
		})
	}
}

func TestOrdinal_WithinStepCount(t *testing.T) {
	for _, s := range Steps() {
		if o := Ordinal(s); o < 0 || o >= StepCount {
			t.Errorf("Ordinal(%q) = %d, outside [0,%d)", s, o, StepCount)
		}
	}
	if len(StepLabels()) != StepCount {
		t.Errorf("len(StepLabels()) = %d, want %d", len(StepLabels()), StepCount)
	}
}

func TestShouldStopSessionPolling(t *testing.T) {
	statuses := []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}
	stopSteps := map[Step]bool{
		StepSelection: true,
		StepScript:    true,
		StepVideo:     true,
		StepQuestions: true,
		StepCompleted: true,
	}

	for _, status := range statuses {
		for _, step := range Steps() {
			t.Run(fmt.Sprintf("%s/%s", step, status), func(t *testing.T) {
				settled := status == StatusCompleted || status == StatusFailed
				want := settled && stopSteps[step]
				if got := ShouldStopSessionPolling(status, step); got != want {
					t.Errorf("ShouldStopSessionPolling(%s, %s) = %v, want %v", status, step, got, want)
				}
			})
		}
	}
}

func TestShouldStopSessionPolling_UnknownValues(t *testing.T) {
	if ShouldStopSessionPolling(Status("queued"), StepSelection) {
		t.Error("unknown status should keep polling")
	}
	if ShouldStopSessionPolling(StatusCompleted, Step("publishing")) {
		t.Error("unknown step should keep polling")
	}
}

func TestModeOf(t *testing.T) {
	tests := []struct {
		step   Step
		status Status
		want   Mode
	}{
		{StepResearch, StatusProcessing, ModeProcessing},
		{StepResearch, StatusPending, ModeProcessing},
		{StepResearch, StatusFailed, ModeFailed},
		{StepResearch, StatusCompleted, ModeProcessing},
		{StepSelection, StatusCompleted, ModeInteractive},
		{StepRefinement, StatusProcessing, ModeProcessing},
		{StepRefinement, StatusFailed, ModeFailed},
		{StepScript, StatusCompleted, ModeInteractive},
		{StepScript, StatusProcessing, ModeProcessing},
		{StepVideo, StatusCompleted, ModeInteractive},
		{StepQuestions, StatusCompleted, ModeInteractive},
		{StepQuestions, StatusFailed, ModeFailed},
		{StepCompleted, StatusCompleted, ModeTerminal},
		{StepCompleted, StatusFailed, ModeTerminal},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.step, tt.status), func(t *testing.T) {
			if got := ModeOf(tt.step, tt.status); got != tt.want {
				t.Errorf("ModeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestModeOfSession_Nil(t *testing.T) {
	if got := ModeOfSession(nil); got != ModeForm {
		t.Errorf("ModeOfSession(nil) = %q, want form", got)
	}
}

func TestSubStatusSettled(t *testing.T) {
	for status, want := range map[string]bool{
		"":           false,
		"pending":    false,
		"processing": false,
		"completed":  true,
		"failed":     true,
	} {
		if got := SubStatusSettled(status); got != want {
			t.Errorf("SubStatusSettled(%q) = %v, want %v", status, got, want)
		}
	}
}

func TestProcessingText(t *testing.T) {
	if got := ProcessingTitle(StepScript); got != "Step 4: Generating Scripts" {
		t.Errorf("ProcessingTitle(script) = %q", got)
	}
	if got := ProcessingMessage(Step("other")); got != "Please wait..." {
		t.Errorf("ProcessingMessage(other) = %q", got)
	}
}
