package realtime

import (
	"testing"
	"time"

	"github.com/waconsole/waconsole/internal/bus"
)

func TestMachineInitialState(t *testing.T) {
	m := NewMachine(nil)
	if got := m.Current(); got != Disconnected {
		t.Errorf("initial state = %s, want %s", got, Disconnected)
	}
}

func TestMachineTransitions(t *testing.T) {
	tests := []struct {
		name    string
		path    []State
		attempt State
		wantErr bool
	}{
		{"disconnected to connecting", nil, Connecting, false},
		{"disconnected to connected skips connecting", nil, Connected, true},
		{"connecting to connected", []State{Connecting}, Connected, false},
		{"connecting to disconnected aborts", []State{Connecting}, Disconnected, false},
		{"connecting to connecting rejected", []State{Connecting}, Connecting, true},
		{"connected to disconnected", []State{Connecting, Connected}, Disconnected, false},
		{"connected to connecting rejected", []State{Connecting, Connected}, Connecting, true},
		{"disconnected to disconnected rejected", nil, Disconnected, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(nil)
			for _, s := range tt.path {
				if err := m.Transition(s); err != nil {
					t.Fatalf("setup transition to %s: %v", s, err)
				}
			}
			err := m.Transition(tt.attempt)
			if (err != nil) != tt.wantErr {
				t.Errorf("Transition(%s) error = %v, wantErr %v", tt.attempt, err, tt.wantErr)
			}
		})
	}
}

func TestMachineRejectedTransitionKeepsState(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Transition(Connected); err == nil {
		t.Fatal("expected error")
	}
	if got := m.Current(); got != Disconnected {
		t.Errorf("state after rejected transition = %s, want %s", got, Disconnected)
	}
}

func TestMachinePublishesStateChanges(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe(KindStateChanged, 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(Connecting); err != nil {
		t.Fatal(err)
	}

	select {
	case evt := <-ch:
		change, ok := evt.Payload.(StateChange)
		if !ok {
			t.Fatalf("payload type %T, want StateChange", evt.Payload)
		}
		if change.From != Disconnected || change.To != Connecting {
			t.Errorf("got %s -> %s, want %s -> %s", change.From, change.To, Disconnected, Connecting)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for state change event")
	}
}

func TestMachineRejectedTransitionPublishesNothing(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe(KindStateChanged, 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(Connected); err == nil {
		t.Fatal("expected error")
	}

	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
		// Expected.
	}
}
