// Package distractor picks wrong-answer options that look and feel close to a
// target word: near in spelling and near in CEFR tier.
package distractor

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/heartmarshall/picquiz-backend/internal/domain"
	"github.com/heartmarshall/picquiz-backend/internal/lexical"
)

// DefaultCount is the number of distractors in a three-option item.
const DefaultCount = 2

// Weights tune the score. Both must be >= 0; the score then never increases
// as edit distance or tier gap grows.
type Weights struct {
	Distance float64
	Tier     float64
}

// Config controls pool construction.
type Config struct {
	Weights Weights
	// MaxTierRadius caps how far the pool may widen from the target tier.
	MaxTierRadius int
	// PoolFactor widens the pool while it holds fewer than count*PoolFactor words.
	PoolFactor int
	// SamePOS prefers words sharing the target's part of speech.
	SamePOS bool
	// BlockCaptionWords drops candidates that already appear in the caption.
	BlockCaptionWords bool
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Weights:           Weights{Distance: 1.0, Tier: 1.5},
		MaxTierRadius:     1,
		PoolFactor:        3,
		SamePOS:           true,
		BlockCaptionWords: true,
	}
}

// Validate checks that the configuration yields a monotonic score.
func (c Config) Validate() error {
	var errs []domain.FieldError
	if c.Weights.Distance < 0 {
		errs = append(errs, domain.FieldError{Field: "distance_weight", Message: "must be >= 0"})
	}
	if c.Weights.Tier < 0 {
		errs = append(errs, domain.FieldError{Field: "tier_weight", Message: "must be >= 0"})
	}
	if c.MaxTierRadius < 0 {
		errs = append(errs, domain.FieldError{Field: "max_tier_radius", Message: "must be >= 0"})
	}
	if c.PoolFactor < 1 {
		errs = append(errs, domain.FieldError{Field: "pool_factor", Message: "must be >= 1"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

type vocabulary interface {
	Lookup(word string) (domain.VocabEntry, error)
	WordsNear(level domain.Level, radius int) []domain.VocabEntry
}

// Generator ranks catalog words as distractors. It holds no mutable state.
type Generator struct {
	vocab vocabulary
	cfg   Config
}

// NewGenerator creates a Generator over the given vocabulary.
func NewGenerator(vocab vocabulary, cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("distractor config: %w", err)
	}
	return &Generator{vocab: vocab, cfg: cfg}, nil
}

// Score combines edit distance and tier gap into a similarity score.
func (w Weights) Score(distance, tierGap int) float64 {
	return -(w.Distance*float64(distance) + w.Tier*float64(tierGap))
}

// Generate returns count distractors for target, best first.
//
// The pool starts at the target tier and widens one tier at a time, up to
// MaxTierRadius, while it is smaller than count*PoolFactor. The target itself
// and every word in exclude are never offered; with BlockCaptionWords neither
// is any word already present in the caption. Ranking is by score, then by smaller length difference to
// the target, then alphabetically.
func (g *Generator) Generate(target string, level domain.Level, caption domain.CaptionContext, count int, exclude []string) ([]domain.Candidate, error) {
	if count <= 0 {
		return nil, domain.NewValidationError("count", "must be positive")
	}
	if !level.IsValid() {
		return nil, domain.NewValidationError("level", "invalid")
	}

	blocked := make(map[string]bool, len(exclude)+8)
	blocked[strings.ToLower(strings.TrimSpace(target))] = true
	for _, w := range exclude {
		blocked[strings.ToLower(strings.TrimSpace(w))] = true
	}
	if g.cfg.BlockCaptionWords {
		for _, w := range captionWords(caption.Text) {
			blocked[w] = true
		}
	}

	var targetPOS domain.PartOfSpeech
	if g.cfg.SamePOS {
		if e, err := g.vocab.Lookup(target); err == nil {
			targetPOS = e.POS
		}
	}

	want := count * g.cfg.PoolFactor
	var pool []domain.VocabEntry
	for radius := 0; radius <= g.cfg.MaxTierRadius; radius++ {
		pool = g.eligible(level, radius, blocked, targetPOS, count)
		if len(pool) >= want {
			break
		}
	}

	if len(pool) < count {
		return nil, fmt.Errorf("distractors for %q (%s): %d eligible, need %d: %w",
			target, level, len(pool), count, domain.ErrInsufficientCandidates)
	}

	cands := make([]domain.Candidate, 0, len(pool))
	for _, e := range pool {
		d := lexical.Distance(target, e.Word)
		gap := e.Level.Distance(level)
		cands = append(cands, domain.Candidate{
			Word:     e.Word,
			Distance: d,
			TierGap:  gap,
			Score:    g.cfg.Weights.Score(d, gap),
		})
	}

	slices.SortFunc(cands, func(a, b domain.Candidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(lexical.LengthDiff(a.Word, target), lexical.LengthDiff(b.Word, target)); c != 0 {
			return c
		}
		return strings.Compare(strings.ToLower(a.Word), strings.ToLower(b.Word))
	})

	return cands[:count], nil
}

// eligible filters the pool at radius. When pos is set, words of another part
// of speech are dropped unless that would leave fewer than count.
func (g *Generator) eligible(level domain.Level, radius int, blocked map[string]bool, pos domain.PartOfSpeech, count int) []domain.VocabEntry {
	var all, samePOS []domain.VocabEntry
	for _, e := range g.vocab.WordsNear(level, radius) {
		if blocked[strings.ToLower(e.Word)] {
			continue
		}
		all = append(all, e)
		if pos != "" && e.POS == pos {
			samePOS = append(samePOS, e)
		}
	}
	if pos != "" && len(samePOS) >= count {
		return samePOS
	}
	return all
}

func captionWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\'' && r != '-'
	})
}

// Summary describes the spread of a distractor set.
type Summary struct {
	MinDistance int
	MaxDistance int
	AvgDistance float64
	MaxTierGap  int
}

// Summarize reports distance statistics for a generated set.
func Summarize(cands []domain.Candidate) Summary {
	if len(cands) == 0 {
		return Summary{}
	}
	s := Summary{MinDistance: cands[0].Distance, MaxDistance: cands[0].Distance}
	total := 0
	for _, c := range cands {
		s.MinDistance = min(s.MinDistance, c.Distance)
		s.MaxDistance = max(s.MaxDistance, c.Distance)
		s.MaxTierGap = max(s.MaxTierGap, c.TierGap)
		total += c.Distance
	}
	s.AvgDistance = float64(total) / float64(len(cands))
	return s
}
