package interaction

import (
	"encoding/json"
	"testing"
)

func TestMode_Text(t *testing.T) {
	for _, m := range []Mode{Formed, Chaos} {
		t.Run(m.String(), func(t *testing.T) {
			data, err := json.Marshal(m)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}

			var got Mode
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal %s: %v", data, err)
			}
			if got != m {
				t.Errorf("round trip = %v, want %v", got, m)
			}
		})
	}

	if _, err := ParseMode("sideways"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestMode_Toggle(t *testing.T) {
	if Formed.Toggle() != Chaos || Chaos.Toggle() != Formed {
		t.Error("Toggle should flip between Formed and Chaos")
	}
}

func TestModeMachine_Transition(t *testing.T) {
	m := NewModeMachine(Formed)

	if _, changed := m.Transition(Formed, sessionStart); changed {
		t.Error("self-transition should not report a change")
	}

	change, changed := m.Transition(Chaos, sessionStart)
	if !changed || change.From != Formed || change.To != Chaos {
		t.Errorf("unexpected change %+v (changed=%v)", change, changed)
	}
	if m.Mode() != Chaos {
		t.Errorf("expected Chaos, got %v", m.Mode())
	}

	if _, changed := m.Transition(Chaos, sessionStart); changed {
		t.Error("repeated transition should not report a change")
	}
}
