// Package catalog holds the read-only vocabulary and caption datasets.
//
// A Catalog is built once at startup and never mutated afterwards, so it is
// safe for concurrent use without locking.
package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/heartmarshall/picquiz-backend/internal/domain"
)

// Catalog maps words to CEFR tiers and tiers to words.
type Catalog struct {
	byWord  map[string]domain.VocabEntry
	byLevel map[domain.Level][]domain.VocabEntry
	size    int
}

// New builds a Catalog. Words are keyed case-insensitively; when a word
// appears twice the first entry wins. An empty word or unknown level fails.
func New(entries []domain.VocabEntry) (*Catalog, error) {
	c := &Catalog{
		byWord:  make(map[string]domain.VocabEntry, len(entries)),
		byLevel: make(map[domain.Level][]domain.VocabEntry, len(domain.Levels)),
	}

	for i, e := range entries {
		key := domain.WordKey(e.Word)
		if key == "" {
			return nil, fmt.Errorf("catalog: entry %d: %w", i, domain.NewValidationError("word", "required"))
		}
		if !e.Level.IsValid() {
			return nil, fmt.Errorf("catalog: entry %d (%s): %w", i, e.Word, domain.NewValidationError("level", "invalid"))
		}
		if _, dup := c.byWord[key]; dup {
			continue
		}
		e.Word = strings.TrimSpace(e.Word)
		c.byWord[key] = e
		c.byLevel[e.Level] = append(c.byLevel[e.Level], e)
		c.size++
	}

	for l := range c.byLevel {
		slices.SortFunc(c.byLevel[l], func(a, b domain.VocabEntry) int {
			return strings.Compare(strings.ToLower(a.Word), strings.ToLower(b.Word))
		})
	}

	return c, nil
}

// Len returns the number of distinct words.
func (c *Catalog) Len() int { return c.size }

// Lookup returns the entry for word (case-insensitive).
func (c *Catalog) Lookup(word string) (domain.VocabEntry, error) {
	e, ok := c.byWord[domain.WordKey(word)]
	if !ok {
		return domain.VocabEntry{}, fmt.Errorf("word %q: %w", word, domain.ErrNotFound)
	}
	return e, nil
}

// LookupLevel returns the tier of word.
func (c *Catalog) LookupLevel(word string) (domain.Level, error) {
	e, err := c.Lookup(word)
	if err != nil {
		return "", err
	}
	return e.Level, nil
}

// WordsAtLevel returns the words of exactly one tier, sorted.
func (c *Catalog) WordsAtLevel(level domain.Level) []domain.VocabEntry {
	return slices.Clone(c.byLevel[level])
}

// WordsNear returns every word whose tier is within radius of level,
// ordered by tier then word. radius 0 equals WordsAtLevel.
func (c *Catalog) WordsNear(level domain.Level, radius int) []domain.VocabEntry {
	rank := level.Rank()
	if rank < 0 {
		return nil
	}

	var out []domain.VocabEntry
	for _, l := range domain.Levels {
		if l.Distance(level) <= radius {
			out = append(out, c.byLevel[l]...)
		}
	}
	return out
}

// Select returns entries matching the optional POS and level filters
// (zero values match everything) that are linked to a caption.
func (c *Catalog) Select(pos domain.PartOfSpeech, level domain.Level) []domain.VocabEntry {
	var out []domain.VocabEntry
	for _, l := range domain.Levels {
		if level != "" && l != level {
			continue
		}
		for _, e := range c.byLevel[l] {
			if pos != "" && e.POS != pos {
				continue
			}
			if e.HasCaption() {
				out = append(out, e)
			}
		}
	}
	return out
}

// Criteria lists, per part of speech, the tiers that have at least one
// captioned word. Tiers are in ascending order.
func (c *Catalog) Criteria() map[domain.PartOfSpeech][]domain.Level {
	seen := make(map[domain.PartOfSpeech]map[domain.Level]bool)
	for _, e := range c.byWord {
		if e.POS == "" || !e.HasCaption() {
			continue
		}
		if seen[e.POS] == nil {
			seen[e.POS] = make(map[domain.Level]bool)
		}
		seen[e.POS][e.Level] = true
	}

	out := make(map[domain.PartOfSpeech][]domain.Level, len(seen))
	for pos, levels := range seen {
		for _, l := range domain.Levels {
			if levels[l] {
				out[pos] = append(out[pos], l)
			}
		}
	}
	return out
}

// Stats counts words per tier and per part of speech.
func (c *Catalog) Stats() domain.CatalogStats {
	s := domain.CatalogStats{
		Total:   c.size,
		ByLevel: make(map[domain.Level]int, len(c.byLevel)),
		ByPOS:   make(map[domain.PartOfSpeech]int),
	}
	for l, entries := range c.byLevel {
		s.ByLevel[l] = len(entries)
	}
	for _, e := range c.byWord {
		if e.POS != "" {
			s.ByPOS[e.POS]++
		}
	}
	return s
}
