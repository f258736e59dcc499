package eventbus

import (
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	b := New()
	sub1 := b.Subscribe()
	sub2 := b.Subscribe()

	b.Publish("hello")

	for i, sub := range []<-chan Event{sub1, sub2} {
		select {
		case e := <-sub:
			if e != "hello" {
				t.Fatalf("subscriber %d: unexpected event %v", i, e)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: no event delivered", i)
		}
	}
}

func TestBus_SlowSubscriberDropsEvents(t *testing.T) {
	b := New()
	sub := b.Subscribe()

	// Fill the buffer and keep publishing: extra events are dropped, the
	// publisher never blocks.
	for i := 0; i < 40; i++ {
		b.Publish(i)
	}
	b.Close()

	var got int
	for range sub {
		got++
	}
	if got != 16 {
		t.Fatalf("expected the 16 buffered events, got %d", got)
	}
}

func TestBus_Close(t *testing.T) {
	b := New()
	sub := b.Subscribe()
	b.Close()

	if _, ok := <-sub; ok {
		t.Fatalf("expected closed subscriber channel")
	}

	// Publishing or closing again must be a no-op.
	b.Publish("late")
	b.Close()

	if _, ok := <-b.Subscribe(); ok {
		t.Fatalf("subscription after close must be closed immediately")
	}
}
