package session_test

import (
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/session"
)

func filledSlots() session.Slots {
	return session.Slots{
		"cuisine":        "thai",
		"location":       "downtown",
		"budget":         "$$",
		"travel_mode":    "walking",
		"travel_minutes": "15",
	}
}

func TestUpdateSlots_AbsentNeverClears(t *testing.T) {
	s := session.New("CA123", 0)
	s.UpdateSlots(session.Slots{"cuisine": "thai"})

	// empty, whitespace, and "null" must all leave the slot alone
	s.UpdateSlots(session.Slots{"cuisine": ""})
	s.UpdateSlots(session.Slots{"cuisine": "   "})
	s.UpdateSlots(session.Slots{"cuisine": "null"})

	if got := s.Slots().Get("cuisine"); got != "thai" {
		t.Fatalf("cuisine = %q, want thai", got)
	}
}

func TestUpdateSlots_LastWriteWins(t *testing.T) {
	s := session.New("CA123", 0)
	s.UpdateSlots(session.Slots{"budget": "$"})
	s.UpdateSlots(session.Slots{"budget": "$$$"})

	if got := s.Slots().Get("budget"); got != "$$$" {
		t.Fatalf("budget = %q, want $$$", got)
	}
}

func TestUpdateSlots_IgnoresUnknownKeys(t *testing.T) {
	s := session.New("CA123", 0)
	s.UpdateSlots(session.Slots{"favorite_color": "blue", "cuisine": "ramen"})

	slots := s.Slots()
	if _, ok := slots["favorite_color"]; ok {
		t.Fatalf("unknown key stored: %v", slots)
	}
	if slots.Get("cuisine") != "ramen" {
		t.Fatalf("cuisine = %q, want ramen", slots.Get("cuisine"))
	}
}

func TestMissingSlots_FixedOrder(t *testing.T) {
	s := session.New("CA123", 0)
	want := []string{"cuisine", "location", "budget", "travel_mode", "travel_minutes"}
	if got := s.MissingSlots(); !reflect.DeepEqual(got, want) {
		t.Fatalf("missing = %v, want %v", got, want)
	}

	s.UpdateSlots(session.Slots{"location": "soho", "travel_mode": "transit"})
	want = []string{"cuisine", "budget", "travel_minutes"}
	if got := s.MissingSlots(); !reflect.DeepEqual(got, want) {
		t.Fatalf("missing = %v, want %v", got, want)
	}
}

func TestReadyForSearch(t *testing.T) {
	s := session.New("CA123", 0)
	if s.ReadyForSearch() {
		t.Fatal("empty session should not be ready")
	}
	s.UpdateSlots(filledSlots())
	if !s.ReadyForSearch() {
		t.Fatal("all required slots filled, should be ready")
	}

	// optional slots are never required
	s2 := session.New("CA456", 0)
	s2.UpdateSlots(filledSlots())
	s2.UpdateSlots(session.Slots{"open_now": "true"})
	if !s2.ReadyForSearch() {
		t.Fatal("optional slot should not affect readiness")
	}
}

func TestFingerprint_OrderIndependent(t *testing.T) {
	a := session.FingerprintOf(session.Slots{
		"cuisine": "Thai", "location": "Downtown",
	})
	b := session.FingerprintOf(session.Slots{
		"location": "downtown ", "cuisine": " thai",
	})
	if a != b {
		t.Fatalf("fingerprints differ: %q vs %q", a, b)
	}
}

func TestFingerprint_EmptyNeverSkips(t *testing.T) {
	s := session.New("CA123", 0)
	if !s.Fingerprint().Empty() {
		t.Fatal("fresh session fingerprint should be empty")
	}
	if s.ShouldSkipSearch("anything") {
		t.Fatal("empty fingerprint must never skip")
	}
}

func TestShouldSkipSearch_RepeatWithoutForcePhrase(t *testing.T) {
	s := session.New("CA123", 0)
	s.UpdateSlots(filledSlots())

	if s.ShouldSkipSearch("thai food downtown please") {
		t.Fatal("no search ran yet, must not skip")
	}
	s.MarkSearch("thai food downtown please")

	// identical slots, unrelated follow-up: duplicate
	if !s.ShouldSkipSearch("thanks") {
		t.Fatal("identical fingerprint after search should skip")
	}
}

func TestShouldSkipSearch_ForcePhraseBypasses(t *testing.T) {
	s := session.New("CA123", 0)
	s.UpdateSlots(filledSlots())
	s.MarkSearch("thai downtown")

	for _, utterance := range []string{
		"search again please",
		"run another search",
		"give me more options",
		"what about something else",
		"can you find more",
	} {
		if s.ShouldSkipSearch(utterance) {
			t.Fatalf("force phrase in %q should bypass the guard", utterance)
		}
	}
}

func TestShouldSkipSearch_ChangedSlotRunsAgain(t *testing.T) {
	s := session.New("CA123", 0)
	s.UpdateSlots(filledSlots())
	s.MarkSearch("thai downtown")

	s.UpdateSlots(session.Slots{"cuisine": "sushi"})
	if s.ShouldSkipSearch("actually sushi") {
		t.Fatal("changed slot value must produce a new search")
	}
}

func TestHistory_CapDropsOldest(t *testing.T) {
	s := session.New("CA123", 3)
	s.Append("user", "one")
	s.Append("assistant", "two")
	s.Append("user", "three")
	s.Append("assistant", "four")

	h := s.History()
	if len(h) != 3 {
		t.Fatalf("history len = %d, want 3", len(h))
	}
	if h[0].Text != "two" || h[2].Text != "four" {
		t.Fatalf("unexpected history window: %+v", h)
	}
}

func TestSetCallerNumber_FirstWins(t *testing.T) {
	s := session.New("CA123", 0)
	s.SetCallerNumber("")
	s.SetCallerNumber("+15550001111")
	s.SetCallerNumber("+15559990000")
	if got := s.Caller(); got != "+15550001111" {
		t.Fatalf("caller = %q, want first number", got)
	}
}

func TestMarkLinkSent_Once(t *testing.T) {
	s := session.New("CA123", 0)
	if !s.MarkLinkSent() {
		t.Fatal("first mark should succeed")
	}
	if s.MarkLinkSent() {
		t.Fatal("second mark should report already sent")
	}
}

func TestLinkSent_ConcurrentCheckAndMark(t *testing.T) {
	s := session.New("CA123", 0)

	// turn N and turn N+1 both peek the flag and then try to claim it
	var sent int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.LinkAlreadySent() {
				return
			}
			if s.MarkLinkSent() {
				atomic.AddInt32(&sent, 1)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&sent); got != 1 {
		t.Fatalf("link claimed %d times, want exactly 1", got)
	}
	if !s.LinkAlreadySent() {
		t.Fatal("flag should report sent afterwards")
	}
}

func TestNormalizeValue(t *testing.T) {
	cases := map[string]string{
		"  thai ": "thai",
		"":        "",
		"   ":     "",
		"null":    "",
		"NULL":    "",
		"$$":      "$$",
	}
	for in, want := range cases {
		if got := session.NormalizeValue(in); got != want {
			t.Errorf("NormalizeValue(%q) = %q, want %q", in, got, want)
		}
	}
}
