package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func publishActivity(t *testing.T, pub *SSEPublisher, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		entry := ActivityEntry{Op: "addNode", Revision: i}
		if err := PublishActivity(pub, entry); err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}
}

func TestActivityReplayKeepsLastEntries(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()
	pub.ConfigureSessionTopics(3)

	publishActivity(t, pub, 5)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicActivity)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Should receive the last 3 entries (revisions 3, 4, 5)
	for want := 3; want <= 5; want++ {
		select {
		case event := <-sub.Events():
			var entry ActivityEntry
			if err := json.Unmarshal(event.Data, &entry); err != nil {
				t.Fatalf("Bad payload: %v", err)
			}
			if event.Version != want || entry.Revision != want {
				t.Errorf("Expected version %d, got %d (revision %d)", want, event.Version, entry.Revision)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for event %d", want)
		}
	}
}

func TestProjectTopicReplaysLatestSummary(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()
	pub.ConfigureSessionTopics(10)

	for i := 1; i <= 3; i++ {
		summary := ProjectSummary{Name: "Risk", Revision: i, Nodes: i}
		if err := PublishSummary(pub, EventChanged, summary); err != nil {
			t.Fatalf("Failed to publish summary %d: %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicProject)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	select {
	case event := <-sub.Events():
		var summary ProjectSummary
		if err := json.Unmarshal(event.Data, &summary); err != nil {
			t.Fatalf("Bad payload: %v", err)
		}
		if summary.Revision != 3 || event.Type != EventChanged {
			t.Errorf("Expected latest summary, got %+v (%s)", summary, event.Type)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}

	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected extra event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnbufferedTopicOnlyDeliversNewEvents(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	if err := pub.Publish("unconfigured", "event", 1); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sub, err := pub.Subscribe(ctx, "unconfigured")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected replayed event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
	}

	if err := pub.Publish("unconfigured", "event", 2); err != nil {
		t.Fatal(err)
	}

	select {
	case event := <-sub.Events():
		if event.Version != 2 {
			t.Errorf("Expected version 2, got %d", event.Version)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for new event")
	}
}

func TestClosedPublisherRejects(t *testing.T) {
	pub := NewSSEPublisher()
	pub.Close()

	if err := PublishSummary(pub, EventChanged, ProjectSummary{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from publish, got %v", err)
	}
	if _, err := pub.Subscribe(context.Background(), TopicProject); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from subscribe, got %v", err)
	}
}

func TestReplayPrecedesLiveEvents(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()
	pub.SetRetention(TopicActivity, Retention{Keep: 2, ReplayAll: true})
	publishActivity(t, pub, 2)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sub, err := pub.Subscribe(ctx, TopicActivity)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	if err := PublishActivity(pub, ActivityEntry{Op: "connect", Revision: 3}); err != nil {
		t.Fatal(err)
	}

	for want := 1; want <= 3; want++ {
		select {
		case event := <-sub.Events():
			if event.Version != want || event.Type != EventApplied {
				t.Errorf("Expected %s version %d, got %s version %d", EventApplied, want, event.Type, event.Version)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for event %d", want)
		}
	}
}

func TestCancelledSubscriptionStopsReceiving(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := pub.Subscribe(ctx, TopicProject)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	cancel()

	deadline := time.Now().Add(time.Second)
	for {
		pub.mu.Lock()
		n := len(pub.topics[TopicProject].subscribers)
		pub.mu.Unlock()
		if n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Expected cancelled subscription to be removed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := PublishSummary(pub, EventChanged, ProjectSummary{Revision: 1}); err != nil {
		t.Fatal(err)
	}
	select {
	case event := <-sub.Events():
		t.Errorf("Received event after cancel: version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	event := Event{Topic: TopicProject, Type: EventSaved, Data: json.RawMessage(`{"revision":7}`), Version: 4}

	if err := WriteSSE(&buf, event); err != nil {
		t.Fatalf("WriteSSE failed: %v", err)
	}

	got := buf.String()
	if !strings.HasPrefix(got, "event: saved\nid: 4\ndata: {") || !strings.HasSuffix(got, "}\n\n") {
		t.Errorf("Unexpected SSE framing %q", got)
	}
	if !strings.Contains(got, `"data":{"revision":7}`) {
		t.Errorf("Expected payload in frame, got %q", got)
	}
}
