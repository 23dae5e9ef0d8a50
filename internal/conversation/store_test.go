package conversation

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGetOrCreate_NewConversation(t *testing.T) {
	s := NewStore()

	id, created := s.GetOrCreate("")
	if !created {
		t.Error("GetOrCreate(\"\") did not report creation")
	}
	if !strings.HasPrefix(id, "conv_") || len(id) != len("conv_")+12 {
		t.Errorf("generated id = %q, want conv_<12 hex>", id)
	}

	if history := s.History(id); len(history) != 0 {
		t.Errorf("new conversation has %d messages", len(history))
	}
}

func TestGetOrCreate_ExistingConversation(t *testing.T) {
	s := NewStore()

	id, _ := s.GetOrCreate("")
	again, created := s.GetOrCreate(id)
	if created {
		t.Error("GetOrCreate reported creation for existing conversation")
	}
	if again != id {
		t.Errorf("GetOrCreate returned %q, want %q", again, id)
	}
}

func TestGetOrCreate_ClientSuppliedID(t *testing.T) {
	s := NewStore()

	id, created := s.GetOrCreate("conv_client0001")
	if !created || id != "conv_client0001" {
		t.Errorf("GetOrCreate = (%q, %v), want client id registered", id, created)
	}
}

func TestAppend(t *testing.T) {
	s := NewStore()
	id, _ := s.GetOrCreate("")

	msg, err := s.Append(id, RoleUser, "hello")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("message id = %q, want msg_ prefix", msg.ID)
	}
	if msg.CreatedAt.IsZero() {
		t.Error("message has zero timestamp")
	}

	if _, err := s.Append(id, RoleAssistant, "hi there"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	history := s.History(id)
	if len(history) != 2 {
		t.Fatalf("history has %d messages, want 2", len(history))
	}
	if history[0].Role != RoleUser || history[0].Content != "hello" {
		t.Errorf("first message = %+v", history[0])
	}
	if history[1].Role != RoleAssistant {
		t.Errorf("second message = %+v", history[1])
	}
}

func TestAppend_UnknownConversation(t *testing.T) {
	s := NewStore()

	if _, err := s.Append("conv_missing0000", RoleUser, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Append = %v, want ErrNotFound", err)
	}
}

func TestHistory_UnknownConversation(t *testing.T) {
	s := NewStore()

	if history := s.History("conv_missing0000"); len(history) != 0 {
		t.Errorf("History for unknown id = %v, want empty", history)
	}
}

func TestHistory_ReturnsCopy(t *testing.T) {
	s := NewStore()
	id, _ := s.GetOrCreate("")
	s.Append(id, RoleUser, "original")

	history := s.History(id)
	history[0].Content = "mutated"

	if fresh := s.History(id); fresh[0].Content != "original" {
		t.Error("History exposed internal state to mutation")
	}
}

func TestClear_Idempotent(t *testing.T) {
	s := NewStore()
	id, _ := s.GetOrCreate("")
	s.Append(id, RoleUser, "hello")

	s.Clear(id)
	if history := s.History(id); len(history) != 0 {
		t.Errorf("history after Clear has %d messages", len(history))
	}
	if _, err := s.Append(id, RoleUser, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Append after Clear = %v, want ErrNotFound", err)
	}

	// Clearing again, or clearing an id that never existed, is a no-op.
	s.Clear(id)
	s.Clear("conv_never0000")
}

func TestLen(t *testing.T) {
	s := NewStore()
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}

	ids := make([]string, 5)
	for i := range ids {
		ids[i], _ = s.GetOrCreate("")
	}
	if s.Len() != 5 {
		t.Errorf("Len() = %d, want 5", s.Len())
	}

	s.Clear(ids[0])
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore()

	const workers = 16
	const perWorker = 50

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, _ := s.GetOrCreate(fmt.Sprintf("conv_worker%05d", w))
			for i := range perWorker {
				if _, err := s.Append(id, RoleUser, fmt.Sprintf("msg %d", i)); err != nil {
					t.Errorf("Append: %v", err)
					return
				}
				s.History(id)
			}
		}()
	}
	wg.Wait()

	if s.Len() != workers {
		t.Errorf("Len() = %d, want %d", s.Len(), workers)
	}
	for w := range workers {
		history := s.History(fmt.Sprintf("conv_worker%05d", w))
		if len(history) != perWorker {
			t.Errorf("worker %d history has %d messages, want %d", w, len(history), perWorker)
		}
	}
}

func TestIDGeneration_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id := NewConversationID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
