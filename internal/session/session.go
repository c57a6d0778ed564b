// Package session holds the per-REPL shared state: the live cursor and
// runtime settings reachable from both the executor and the REPL
// autocompleter (spec.md §3 "SharedState", "CursorState").
package session

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// CursorState is the single live cursor a "it"/iterate builtin can advance.
// Only one CursorState may be live per session (spec.md §3 invariant).
type CursorState struct {
	Collection string
	Cursor     *mongo.Cursor
	BatchSize  int32
	Displayed  int

	// Pending holds a document already read off Cursor while probing for
	// "more results exist" (the classic fetch-one-extra pagination trick);
	// the next page must yield it before pulling any further from Cursor.
	Pending *bson.D
}

// SharedState is the mutable state threaded through one shell/SQL session.
type SharedState struct {
	mu sync.RWMutex

	database    string
	cursor      *CursorState
	settings    map[string]string
	savedQueries map[string]string
}

// New returns a SharedState with no live cursor and the given default
// database name.
func New(database string) *SharedState {
	return &SharedState{
		database:     database,
		settings:     map[string]string{},
		savedQueries: map[string]string{},
	}
}

// Database returns the currently selected database name.
func (s *SharedState) Database() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.database
}

// SetDatabase updates the currently selected database, invalidating any
// live cursor (a cursor belongs to the database it was opened against).
func (s *SharedState) SetDatabase(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCursorLocked()
	s.cursor = nil
	s.database = name
}

// Cursor returns the live cursor, or nil if none is open.
func (s *SharedState) Cursor() *CursorState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}

// SetCursor installs cur as the single live cursor, closing and replacing
// any prior one (spec.md §3 "single live CursorState per session").
func (s *SharedState) SetCursor(cur *CursorState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCursorLocked()
	s.cursor = cur
}

// ClearCursor closes and drops the live cursor reference, if any.
func (s *SharedState) ClearCursor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCursorLocked()
	s.cursor = nil
}

// closeCursorLocked releases the server-side resources of the current
// cursor, if any. Callers must hold s.mu.
func (s *SharedState) closeCursorLocked() {
	if s.cursor == nil || s.cursor.Cursor == nil {
		return
	}
	_ = s.cursor.Cursor.Close(context.Background())
}

// Setting reads a runtime setting (spec.md §3 ConfigCommand.SetSetting),
// returning ("", false) if unset.
func (s *SharedState) Setting(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.settings[key]
	return v, ok
}

// SetSetting stores a runtime setting.
func (s *SharedState) SetSetting(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
}

// SaveQuery stores a named query under name for later re-execution.
func (s *SharedState) SaveQuery(name, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.savedQueries[name] = source
}

// SavedQuery returns the source text saved under name, if any.
func (s *SharedState) SavedQuery(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.savedQueries[name]
	return v, ok
}

// DeleteSavedQuery removes name from the named-query catalog, reporting
// whether it was present.
func (s *SharedState) DeleteSavedQuery(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.savedQueries[name]; !ok {
		return false
	}
	delete(s.savedQueries, name)
	return true
}

// ListSavedQueries returns the saved-query names.
func (s *SharedState) ListSavedQueries() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.savedQueries))
	for name := range s.savedQueries {
		names = append(names, name)
	}
	return names
}
