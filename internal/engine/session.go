package engine

import (
	"sync"
)

// TabID identifies the browser tab a pipeline run belongs to.
type TabID int64

// TabEntry is the cached state for one tab: the acquired video data plus
// whatever summarization phases have completed. A partial entry written by a
// cancelled pipeline (nil TLDR/KeyPoints, non-nil ChapterSummaries) is a
// valid, restorable state.
type TabEntry struct {
	VideoData        *AcquisitionResult `json:"videoData"`
	TLDR             string             `json:"tldr,omitempty"`
	KeyPoints        string             `json:"keyPoints,omitempty"`
	ChapterSummaries []string           `json:"chapterSummaries,omitempty"`
	Quiz             []QuizItem         `json:"quiz,omitempty"`
	Chat             []ChatTurn         `json:"chat,omitempty"`
}

// Session owns the per-tab cache and the live "currently active tab" value.
// It is the only state shared across concurrent pipeline runs; entries are
// keyed by tab identity so runs for different tabs never race on one entry.
// The cache is in-memory only and lives for the process session.
type Session struct {
	mu      sync.RWMutex
	active  TabID
	entries map[TabID]*TabEntry
}

// NewSession creates an empty session with no active tab.
func NewSession() *Session {
	return &Session{entries: make(map[TabID]*TabEntry)}
}

// SetActiveTab records the tab the user is currently looking at.
func (s *Session) SetActiveTab(id TabID) {
	s.mu.Lock()
	s.active = id
	s.mu.Unlock()
}

// ActiveTab returns the live active-tab value. Pipeline runs read this only
// at their two cancellation checkpoints.
func (s *Session) ActiveTab() TabID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Save stores or overwrites the entry for a tab.
func (s *Session) Save(id TabID, entry *TabEntry) {
	if entry == nil {
		return
	}
	s.mu.Lock()
	s.entries[id] = entry
	s.mu.Unlock()
}

// Restore returns the cached entry for a tab, or nil on miss. The entry is
// rendered exactly as cached; no implicit refresh happens here.
func (s *Session) Restore(id TabID) *TabEntry {
	s.mu.RLock()
	entry := s.entries[id]
	s.mu.RUnlock()
	if entry == nil {
		metrics.CacheMisses.Add(1)
		return nil
	}
	metrics.CacheHits.Add(1)
	return entry
}

// Invalidate removes a tab's entry (tab closed).
func (s *Session) Invalidate(id TabID) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// InvalidateOnNavigate removes a tab's entry when the tab now shows a
// different video. Stale summaries must never surface for the wrong video;
// an entry for the same video survives navigation events (SPA re-fires).
func (s *Session) InvalidateOnNavigate(id TabID, videoID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.entries[id]
	if entry == nil {
		return
	}
	if entry.VideoData == nil || entry.VideoData.Metadata.VideoID != videoID {
		delete(s.entries, id)
	}
}

// Entry returns the existing entry for a tab, creating an empty one when the
// tab has none. Used by quiz/chat snapshots that attach to prior results.
func (s *Session) Entry(id TabID) *TabEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.entries[id]
	if entry == nil {
		entry = &TabEntry{}
		s.entries[id] = entry
	}
	return entry
}

// AppendChat records one chat exchange on the tab's entry.
func (s *Session) AppendChat(id TabID, turn ChatTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.entries[id]
	if entry == nil {
		entry = &TabEntry{}
		s.entries[id] = entry
	}
	entry.Chat = append(entry.Chat, turn)
}

// SetQuiz replaces the quiz snapshot on the tab's entry.
func (s *Session) SetQuiz(id TabID, quiz []QuizItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.entries[id]
	if entry == nil {
		entry = &TabEntry{}
		s.entries[id] = entry
	}
	entry.Quiz = quiz
}
