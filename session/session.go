package session

import (
	"strings"
	"sync"
	"time"
)

// forceNewSearchPhrases are matched as substrings of the normalized
// utterance; any hit bypasses the duplicate-search guard.
var forceNewSearchPhrases = []string{
	"search again",
	"another search",
	"more options",
	"different options",
	"show me more",
	"new search",
	"something else",
	"find more",
}

// HistoryEntry is one conversation turn, append-only.
type HistoryEntry struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}

// Session holds one call's dialogue state: slot values, conversation
// history, and the fingerprint of the last executed search.
type Session struct {
	CallSID      string
	CallerNumber string // filled lazily from TwiML form or a Twilio lookup

	linkSent      bool // dashboard link delivered at most once per call
	slots         Slots
	history       []HistoryEntry
	maxHistory    int
	lastSearch    Fingerprint
	lastSearched  bool
	lastPromptTxt string

	CreatedAt    time.Time
	LastActivity time.Time

	mu sync.Mutex
}

// New creates an empty session for a call. maxHistory <= 0 disables the
// history cap.
func New(callSID string, maxHistory int) *Session {
	now := time.Now()
	return &Session{
		CallSID:      callSID,
		slots:        make(Slots, len(RequiredSlots)+len(OptionalSlots)),
		maxHistory:   maxHistory,
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Append records a conversation turn. When the configured cap is exceeded
// the oldest entries are dropped.
func (s *Session) Append(role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, HistoryEntry{Role: role, Text: text})
	if s.maxHistory > 0 && len(s.history) > s.maxHistory {
		s.history = s.history[len(s.history)-s.maxHistory:]
	}
	s.LastActivity = time.Now()
}

// History returns a copy of the conversation so far.
func (s *Session) History() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

// UpdateSlots applies a partial update. Present non-absent values overwrite
// (last-write-wins); absent values never clear an existing slot.
// Unrecognized keys are ignored.
func (s *Session) UpdateSlots(updates Slots) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, raw := range updates {
		if !IsRecognized(key) {
			continue
		}
		if value := NormalizeValue(raw); value != "" {
			s.slots[key] = value
		}
	}
	s.LastActivity = time.Now()
}

// Slots returns a copy of the current slot values.
func (s *Session) Slots() Slots {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots.Clone()
}

// MissingSlots returns the required slots still unset, in declaration order.
func (s *Session) MissingSlots() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var missing []string
	for _, key := range RequiredSlots {
		if s.slots[key] == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// ReadyForSearch reports whether all required slots are filled.
func (s *Session) ReadyForSearch() bool {
	return len(s.MissingSlots()) == 0
}

// Fingerprint computes the canonical snapshot of the current slots.
func (s *Session) Fingerprint() Fingerprint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FingerprintOf(s.slots)
}

// ShouldSkipSearch reports whether running a search now would repeat the
// previous one. An empty fingerprint never skips, and a force-new-search
// phrase in the utterance always lets the search through.
func (s *Session) ShouldSkipSearch(normalizedPrompt string) bool {
	fp := s.Fingerprint()
	if fp.Empty() {
		return false
	}
	if normalizedPrompt != "" {
		for _, phrase := range forceNewSearchPhrases {
			if strings.Contains(normalizedPrompt, phrase) {
				return false
			}
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSearched && fp == s.lastSearch
}

// MarkSearch records the current fingerprint as the last executed search.
// Call exactly once per search, after it succeeds.
func (s *Session) MarkSearch(normalizedPrompt string) {
	fp := s.Fingerprint()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSearch = fp
	s.lastSearched = true
	s.lastPromptTxt = normalizedPrompt
	s.LastActivity = time.Now()
}

// Touch bumps the activity timestamp used by the store's idle reaper.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActivity = time.Now()
}

// SetCallerNumber records the caller's phone number if not already known.
func (s *Session) SetCallerNumber(number string) {
	if number == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CallerNumber == "" {
		s.CallerNumber = number
	}
}

// Caller returns the caller's phone number, or "" when unknown.
func (s *Session) Caller() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.CallerNumber
}

// MarkLinkSent flips the send-once flag. Returns false if it was already set.
func (s *Session) MarkLinkSent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.linkSent {
		return false
	}
	s.linkSent = true
	return true
}

// LinkAlreadySent reports whether the dashboard link went out.
func (s *Session) LinkAlreadySent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linkSent
}

// IdleSince returns the last activity timestamp.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LastActivity
}
