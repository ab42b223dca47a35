package events_test

import (
	"testing"

	"github.com/ardanlabs/powchain/foundation/events"
)

func TestEvents(t *testing.T) {
	evts := events.New()

	id1, ch1 := evts.Acquire()
	_, ch2 := evts.Acquire()

	if evts.Count() != 2 {
		t.Fatalf("Should have two receivers, got %d", evts.Count())
	}

	evts.Send("viewer: block")

	for i, ch := range []<-chan string{ch1, ch2} {
		if got := <-ch; got != "viewer: block" {
			t.Fatalf("Should receive the event on receiver %d, got %q", i, got)
		}
	}

	if err := evts.Release(id1); err != nil {
		t.Fatalf("Should be able to release: %s", err)
	}
	if _, open := <-ch1; open {
		t.Fatalf("Should close the released channel")
	}
	if err := evts.Release(id1); err == nil {
		t.Fatalf("Should not be able to release twice")
	}

	for i := 0; i < 150; i++ {
		evts.Send("fill")
	}
	if evts.Dropped() != 50 {
		t.Fatalf("Should drop events for a full receiver, got %d", evts.Dropped())
	}

	evts.Shutdown()
	if evts.Count() != 0 {
		t.Fatalf("Should have no receivers after shutdown")
	}
}
