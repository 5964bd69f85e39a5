package ui

import "testing"

func TestPhaseIconBusy(t *testing.T) {
	for _, p := range []string{"validating", "sending"} {
		if icon, _ := PhaseIcon(p); icon != IconBusy {
			t.Errorf("%s: got %q want busy icon", p, icon)
		}
	}
}

func TestPhaseIconFailuresDistinct(t *testing.T) {
	_, rejected := PhaseIcon("rejected")
	_, failed := PhaseIcon("failed")
	if rejected == failed {
		t.Error("rejected and failed should use different colors")
	}
}

func TestPhaseIconUnknownIsIdle(t *testing.T) {
	icon, color := PhaseIcon("unknown-xyz")
	if icon != IconIdle || color != ColorTextMuted {
		t.Errorf("got %q %v", icon, color)
	}
}
