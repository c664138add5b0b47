package staticdata

import "testing"

func TestParamGetSet(t *testing.T) {
	p := NewParam("42")
	if p.Get() != "42" || p.String() != "42" {
		t.Fatalf("unexpected initial value: %q", p.Get())
	}
	p.Set("43")
	if p.Get() != "43" {
		t.Fatalf("expected updated value, got %q", p.Get())
	}
}

func TestParamSetNotifiesWatchers(t *testing.T) {
	p := NewParam("a")

	ch := p.watch()
	p.Set("b")
	select {
	case <-ch:
	default:
		t.Fatalf("expected watch channel closed on change")
	}

	// Watchers re-arm by grabbing a fresh channel.
	next := p.watch()
	select {
	case <-next:
		t.Fatalf("expected fresh channel open until next change")
	default:
	}
}

func TestParamSetSameValueIsNoOp(t *testing.T) {
	p := NewParam("a")
	ch := p.watch()
	p.Set("a")
	select {
	case <-ch:
		t.Fatalf("expected no notification for unchanged value")
	default:
	}
}
