// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/analyst-tui/internal/model"
)

// =============================================================================
// PERSISTENCE PORT
// =============================================================================

// Persister stores the whole conversation collection as one document.
// Load returns (nil, nil) when nothing has been stored yet.
type Persister interface {
	Load() ([]model.Conversation, error)
	Save(conversations []model.Conversation) error
}

// MemoryPersister keeps the collection in memory. It is used by tests and by
// commands that must not touch the user's history.
type MemoryPersister struct {
	mu    sync.Mutex
	data  []model.Conversation
	saves int
}

// Load returns a copy of the last saved collection.
func (m *MemoryPersister) Load() ([]model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAll(m.data), nil
}

// Save replaces the stored collection.
func (m *MemoryPersister) Save(conversations []model.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = cloneAll(conversations)
	m.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (m *MemoryPersister) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// =============================================================================
// OPTIONS
// =============================================================================

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the conversation ID source.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithOnChange registers a callback fired after every mutation, outside the
// store lock.
func WithOnChange(fn func()) Option {
	return func(s *Store) { s.onChange = fn }
}

// WithPersistEmpty makes the store write the collection even when it is
// empty. By default deleting the last conversation leaves the previous
// document in place.
func WithPersistEmpty(enabled bool) Option {
	return func(s *Store) { s.persistEmpty = enabled }
}

// NewID returns a time-ordered UUIDv7, falling back to a random UUID if the
// clock source fails.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// =============================================================================
// STORE
// =============================================================================

// Store holds every conversation and the current selection.
type Store struct {
	mu        sync.Mutex
	byID      map[string]*model.Conversation
	order     []string // newest first
	currentID string   // "" = no selection

	persister    Persister
	persistEmpty bool
	now          func() time.Time
	newID        func() string
	onChange     func()
}

// New creates a store and loads the persisted collection. A load failure is
// logged and leaves the store empty. The first conversation becomes current.
func New(persister Persister, opts ...Option) *Store {
	s := &Store{
		byID:      make(map[string]*model.Conversation),
		persister: persister,
		now:       time.Now,
		newID:     NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load()
	return s
}

func (s *Store) load() {
	if s.persister == nil {
		return
	}
	convs, err := s.persister.Load()
	if err != nil {
		log.Printf("HISTORY_LOAD_FAILED | err=%v", err)
		return
	}
	for i := range convs {
		conv := convs[i].Clone()
		if conv.ID == "" {
			continue
		}
		if _, dup := s.byID[conv.ID]; dup {
			log.Printf("HISTORY_DUPLICATE_ID | id=%s", conv.ID)
			continue
		}
		s.byID[conv.ID] = &conv
		s.order = append(s.order, conv.ID)
	}
	if len(s.order) > 0 {
		s.currentID = s.order[0]
	}
	log.Printf("HISTORY_LOADED | conversations=%d", len(s.order))
}

// =============================================================================
// MUTATIONS
// =============================================================================

// CreateNewConversation prepends a greeted "New Chat" conversation, makes it
// current, and returns its ID.
func (s *Store) CreateNewConversation() string {
	s.mu.Lock()
	conv := model.NewConversation(s.newID(), s.now())
	s.byID[conv.ID] = &conv
	s.order = append([]string{conv.ID}, s.order...)
	s.currentID = conv.ID
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
	return conv.ID
}

// DeleteConversation removes a conversation. Deleting the current one moves
// the selection to the newest remaining conversation, or clears it. Unknown
// IDs are ignored.
func (s *Store) DeleteConversation(id string) {
	s.mu.Lock()
	if _, ok := s.byID[id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	if s.currentID == id {
		s.currentID = ""
		if len(s.order) > 0 {
			s.currentID = s.order[0]
		}
	}
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
}

// UpdateConversation replaces the messages of a conversation, refreshes its
// timestamp, and derives its title if it is still the placeholder. Unknown
// IDs are ignored.
func (s *Store) UpdateConversation(id string, messages []model.Message) {
	s.UpdateConversationFunc(id, func([]model.Message) []model.Message {
		return messages
	})
}

// UpdateConversationFunc replaces the messages of a conversation with the
// result of fn, which receives a copy of the messages present when the
// update is applied. It reports false if the conversation does not exist.
// fn runs under the store lock and must not call back into the store.
func (s *Store) UpdateConversationFunc(id string, fn func(current []model.Message) []model.Message) bool {
	s.mu.Lock()
	conv, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	conv.SetMessages(fn(conv.CloneMessages()), s.now())
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
	return true
}

// AppendMessage adds one message to the end of a conversation.
func (s *Store) AppendMessage(id string, msg model.Message) bool {
	return s.UpdateConversationFunc(id, func(current []model.Message) []model.Message {
		return append(current, msg)
	})
}

// SetCurrentConversationID moves the selection. The ID is not validated;
// an unknown ID resolves to no current conversation. "" clears it.
func (s *Store) SetCurrentConversationID(id string) {
	s.mu.Lock()
	changed := s.currentID != id
	s.currentID = id
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// EnsureConversation returns the current conversation ID. If nothing is
// selected the newest conversation is selected, and if the collection is
// empty a new conversation is created.
func (s *Store) EnsureConversation() string {
	s.mu.Lock()
	if _, ok := s.byID[s.currentID]; ok {
		id := s.currentID
		s.mu.Unlock()
		return id
	}
	if len(s.order) > 0 {
		s.currentID = s.order[0]
		id := s.currentID
		s.mu.Unlock()
		s.notify()
		return id
	}
	s.mu.Unlock()
	return s.CreateNewConversation()
}

// =============================================================================
// QUERIES
// =============================================================================

// CurrentConversationID returns the selected ID, which may be stale.
func (s *Store) CurrentConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// CurrentConversation resolves the selection. It returns nil when nothing is
// selected or the selected ID no longer exists.
func (s *Store) CurrentConversation() *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(s.currentID)
}

// Get returns a copy of a conversation, or nil.
func (s *Store) Get(id string) *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id)
}

// Conversations returns copies of every conversation, newest first.
func (s *Store) Conversations() []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Len returns the number of conversations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// IndexOf returns the position of id in newest-first order, or -1.
func (s *Store) IndexOf(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, oid := range s.order {
		if oid == id {
			return i
		}
	}
	return -1
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Store) getLocked(id string) *model.Conversation {
	conv, ok := s.byID[id]
	if !ok {
		return nil
	}
	clone := conv.Clone()
	return &clone
}

func (s *Store) snapshotLocked() []model.Conversation {
	out := make([]model.Conversation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out
}

// persistLocked writes the collection. Failures are logged; the in-memory
// state stays authoritative.
func (s *Store) persistLocked() {
	if s.persister == nil {
		return
	}
	if len(s.order) == 0 && !s.persistEmpty {
		return
	}
	if err := s.persister.Save(s.snapshotLocked()); err != nil {
		log.Printf("HISTORY_SAVE_FAILED | conversations=%d err=%v", len(s.order), err)
	}
}

func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

func cloneAll(convs []model.Conversation) []model.Conversation {
	if convs == nil {
		return nil
	}
	out := make([]model.Conversation, len(convs))
	for i := range convs {
		out[i] = convs[i].Clone()
	}
	return out
}
