// Package conversation keeps per-conversation chat history in memory.
//
// History is deliberately volatile: a process restart clears all
// conversations. Durable state lives in the document index only.
package conversation

import (
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound reports an unknown conversation ID.
var ErrNotFound = errors.New("conversation not found")

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a conversation.
type Message struct {
	ID        string    `json:"message_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

const shardCount = 16

type shard struct {
	mu    sync.RWMutex
	convs map[string][]Message
}

// Store holds conversation histories. Safe for concurrent use; access is
// sharded by conversation ID so unrelated conversations never contend.
type Store struct {
	shards [shardCount]*shard
}

// NewStore returns an empty Store.
func NewStore() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i] = &shard{convs: make(map[string][]Message)}
	}
	return s
}

func (s *Store) shardFor(id string) *shard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return s.shards[h.Sum32()%shardCount]
}

// GetOrCreate returns the conversation ID to use for a request. An empty
// id creates a fresh conversation; an unknown id is registered as-is so a
// client can keep its own id scheme. The second return value reports
// whether a new conversation was created.
func (s *Store) GetOrCreate(id string) (string, bool) {
	if id == "" {
		id = NewConversationID()
	}

	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.convs[id]; ok {
		return id, false
	}
	sh.convs[id] = nil
	return id, true
}

// Append adds a message to an existing conversation and returns it with
// its assigned ID and timestamp.
func (s *Store) Append(id string, role Role, content string) (Message, error) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	history, ok := sh.convs[id]
	if !ok {
		return Message{}, ErrNotFound
	}

	msg := Message{
		ID:        NewMessageID(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	sh.convs[id] = append(history, msg)
	return msg, nil
}

// History returns a copy of the conversation's messages in order. An
// unknown id yields an empty history, not an error.
func (s *Store) History(id string) []Message {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	history := sh.convs[id]
	out := make([]Message, len(history))
	copy(out, history)
	return out
}

// Clear removes a conversation and its history. Clearing an unknown id is
// a no-op, so Clear is idempotent.
func (s *Store) Clear(id string) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	delete(sh.convs, id)
}

// Len returns the number of live conversations.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.convs)
		sh.mu.RUnlock()
	}
	return n
}

// NewConversationID returns an ID of the form conv_<12 hex chars>.
func NewConversationID() string {
	return "conv_" + shortUUID()
}

// NewMessageID returns an ID of the form msg_<12 hex chars>.
func NewMessageID() string {
	return "msg_" + shortUUID()
}

func shortUUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
