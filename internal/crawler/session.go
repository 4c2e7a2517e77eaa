package crawler

import "time"

// Session tracks the ad ids already resolved in the current crawl
// epoch, mapping id to last-seen time. It is owned by the crawl loop
// and not safe for concurrent use.
type Session struct {
	limit int
	seen  map[int64]time.Time
}

// NewSession creates a session with the given size ceiling.
func NewSession(limit int) *Session {
	return &Session{
		limit: limit,
		seen:  make(map[int64]time.Time),
	}
}

// Seen reports whether the ad id was already resolved this epoch.
func (s *Session) Seen(adID int64) bool {
	_, ok := s.seen[adID]
	return ok
}

// MarkSeen records the ad id with the current time. When the set
// exceeds the ceiling it is reset wholesale; a plain growth guard, not
// an LRU.
func (s *Session) MarkSeen(adID int64) {
	if len(s.seen) >= s.limit {
		s.Reset()
	}
	s.seen[adID] = time.Now()
}

// Len returns the number of tracked ids.
func (s *Session) Len() int {
	return len(s.seen)
}

// Reset drops all tracked ids.
func (s *Session) Reset() {
	s.seen = make(map[int64]time.Time)
}
