// Package session keeps per-session quiz state in memory.
//
// State is only safe to touch inside Store.Do, which holds the session's
// lock for the duration of the callback. Different sessions never share a
// lock.
package session

import (
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/heartmarshall/picquiz-backend/internal/domain"
)

// State is the mutable, in-memory part of a quiz session.
type State struct {
	Session domain.QuizSession

	asked      map[string]bool
	exclusions map[string]map[string]bool
	active     *domain.QuestionItem
	rnd        *rand.Rand
}

// NewState wraps a persisted session. seed drives option shuffling and
// target picking for this session only.
func NewState(s domain.QuizSession, seed uint64) *State {
	return &State{
		Session:    s,
		asked:      make(map[string]bool),
		exclusions: make(map[string]map[string]bool),
		rnd:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Rand returns the session's random source.
func (s *State) Rand() *rand.Rand { return s.rnd }

// Exclusions returns a snapshot of distractors already shown for target.
func (s *State) Exclusions(target string) []string {
	set := s.exclusions[key(target)]
	out := make([]string, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	slices.Sort(out)
	return out
}

// AddExclusions records distractors shown for target.
func (s *State) AddExclusions(target string, words ...string) {
	k := key(target)
	set := s.exclusions[k]
	if set == nil {
		set = make(map[string]bool, len(words))
		s.exclusions[k] = set
	}
	for _, w := range words {
		set[key(w)] = true
	}
}

// ClearExclusions forgets the distractors of target, used when the
// catalog can no longer supply fresh ones.
func (s *State) ClearExclusions(target string) {
	delete(s.exclusions, key(target))
}

// MarkAsked records that target was used in this session.
func (s *State) MarkAsked(target string) { s.asked[key(target)] = true }

// Asked reports whether target was already used in this session.
func (s *State) Asked(target string) bool { return s.asked[key(target)] }

// Active returns the question currently in flight, or nil.
func (s *State) Active() *domain.QuestionItem { return s.active }

// SetActive replaces the question in flight.
func (s *State) SetActive(q *domain.QuestionItem) { s.active = q }

// Complete reports whether every question of the session was answered.
func (s *State) Complete() bool {
	return s.Session.Completed || s.Session.Current >= s.Session.Total
}

// RecordAnswer advances the progress counters.
func (s *State) RecordAnswer(correct bool) {
	s.Session.Current++
	if correct {
		s.Session.CorrectCount++
	}
	if s.Session.Current >= s.Session.Total {
		s.Session.Completed = true
	}
}

func key(w string) string { return strings.ToLower(strings.TrimSpace(w)) }
