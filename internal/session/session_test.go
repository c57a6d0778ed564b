package session

import "testing"

func TestSetDatabaseInvalidatesCursor(t *testing.T) {
	s := New("test")
	s.SetCursor(&CursorState{Collection: "users"})
	if s.Cursor() == nil {
		t.Fatal("expected a live cursor")
	}
	s.SetDatabase("other")
	if s.Cursor() != nil {
		t.Fatal("expected SetDatabase to invalidate the live cursor")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := New("test")
	if _, ok := s.Setting("pageSize"); ok {
		t.Fatal("expected unset setting to report false")
	}
	s.SetSetting("pageSize", "50")
	v, ok := s.Setting("pageSize")
	if !ok || v != "50" {
		t.Fatalf("unexpected setting round-trip: %q %v", v, ok)
	}
}

func TestSavedQueryLifecycle(t *testing.T) {
	s := New("test")
	s.SaveQuery("recent", "db.users.find({}).sort({_id:-1}).limit(10)")
	if _, ok := s.SavedQuery("missing"); ok {
		t.Fatal("expected missing query to report false")
	}
	if v, ok := s.SavedQuery("recent"); !ok || v == "" {
		t.Fatal("expected saved query to round-trip")
	}
	if len(s.ListSavedQueries()) != 1 {
		t.Fatalf("expected one saved query, got %d", len(s.ListSavedQueries()))
	}
	if !s.DeleteSavedQuery("recent") {
		t.Fatal("expected delete to report true for an existing query")
	}
	if s.DeleteSavedQuery("recent") {
		t.Fatal("expected second delete to report false")
	}
}
