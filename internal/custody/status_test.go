package custody

import (
	"strings"
	"testing"
)

func TestStatusAnnouncesEveryChange(t *testing.T) {
	var updates []string
	st := NewStatus("@alice sent 1 $KGX to @bob").SetAnnounce(func(text string) {
		updates = append(updates, text)
	})

	step := st.AddStep("")
	step.SetTxID("abc123")
	step.Confirmed()

	if len(updates) != 3 {
		t.Fatalf("announced %d times, want 3", len(updates))
	}
	if !strings.Contains(updates[0], "⏳ pending") {
		t.Errorf("first update not pending: %q", updates[0])
	}
	if !strings.Contains(updates[2], "✅ confirmed") {
		t.Errorf("last update not confirmed: %q", updates[2])
	}
	for _, u := range updates {
		if !strings.HasPrefix(u, "@alice sent 1 $KGX to @bob") {
			t.Errorf("base message missing: %q", u)
		}
	}
}

func TestStatusExplorerLink(t *testing.T) {
	st := NewStatus("base").SetExplorerURL("https://explorer.klingnet.io/")
	st.AddStep("").SetTxID("deadbeef")

	out := st.String()
	if !strings.Contains(out, `<a href="https://explorer.klingnet.io/transactions/deadbeef">tx</a>`) {
		t.Errorf("missing explorer link: %q", out)
	}
}

func TestStatusNoLinkWithoutExplorer(t *testing.T) {
	st := NewStatus("base")
	st.AddStep("").SetTxID("deadbeef")
	if strings.Contains(st.String(), "<a href") {
		t.Errorf("unexpected link: %q", st.String())
	}
}

func TestStatusSteps(t *testing.T) {
	st := NewStatus("base")
	st.AddStep("Transfer").Confirmed()
	st.AddStep("Consolidation").Failed()

	steps := st.Steps()
	if len(steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(steps))
	}
	if steps[0].Label() != "Transfer" || steps[0].State() != StepConfirmed {
		t.Errorf("step 0 = %s %v", steps[0].Label(), steps[0].State())
	}
	if steps[1].Label() != "Consolidation" || steps[1].State() != StepFailed {
		t.Errorf("step 1 = %s %v", steps[1].Label(), steps[1].State())
	}

	out := st.String()
	if !strings.Contains(out, "<b>Transfer</b>") || !strings.Contains(out, "<b>Consolidation</b>") {
		t.Errorf("labels missing from render: %q", out)
	}
}

func TestStatusNilAnnounceSafe(t *testing.T) {
	st := NewStatus("base")
	st.AddStep("").Confirmed()
}
