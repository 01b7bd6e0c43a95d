package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRealtimeServiceBroadcastReachesSubscribers(t *testing.T) {
	svc := NewRealtimeService(nil, "", nil, testLogger())

	events, cleanup := svc.Subscribe(5)
	defer cleanup()

	other, otherCleanup := svc.Subscribe(9)
	defer otherCleanup()

	svc.Broadcast(context.Background(), SubmissionEvent{
		Event:         EventSubmitted,
		DeliverableID: 5,
		GroupID:       2,
		OccurredAt:    time.Now(),
	})

	select {
	case event := <-events:
		require.Equal(t, EventSubmitted, event.Event)
		require.Equal(t, uint(2), event.GroupID)
	case <-time.After(time.Second):
		t.Fatal("expected event for deliverable 5")
	}

	select {
	case <-other:
		t.Fatal("deliverable 9 subscriber must not receive deliverable 5 events")
	default:
	}
}

func TestRealtimeServiceUnsubscribeClosesChannel(t *testing.T) {
	svc := NewRealtimeService(nil, "", nil, testLogger())

	events, cleanup := svc.Subscribe(5)
	cleanup()

	_, open := <-events
	require.False(t, open)

	// Broadcasting after unsubscribe must not panic or block.
	svc.Broadcast(context.Background(), SubmissionEvent{Event: EventWithdrawn, DeliverableID: 5})
}

func TestRealtimeServiceSlowSubscriberDoesNotBlock(t *testing.T) {
	svc := NewRealtimeService(nil, "", nil, testLogger())

	_, cleanup := svc.Subscribe(5)
	defer cleanup()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < submissionStreamBufferSize*2; i++ {
			svc.Broadcast(context.Background(), SubmissionEvent{Event: EventSubmitted, DeliverableID: 5})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}
}
