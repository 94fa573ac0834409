// Package question assembles three-option fill-in-the-blank items.
package question

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/picquiz-backend/internal/catalog"
	"github.com/heartmarshall/picquiz-backend/internal/domain"
)

// Shuffler permutes n elements through swap. *math/rand/v2.Rand satisfies it,
// so tests can pass a seeded source.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type lookuper interface {
	Lookup(word string) (domain.VocabEntry, error)
}

type distractorGenerator interface {
	Generate(target string, level domain.Level, caption domain.CaptionContext, count int, exclude []string) ([]domain.Candidate, error)
}

// Assembler builds QuestionItems. It is safe for concurrent use; the
// Shuffler passed to Assemble is not shared.
type Assembler struct {
	vocab           lookuper
	gen             distractorGenerator
	distractorCount int
	clock           func() time.Time
}

// NewAssembler creates an Assembler producing distractorCount distractors.
func NewAssembler(vocab lookuper, gen distractorGenerator, distractorCount int) *Assembler {
	return &Assembler{
		vocab:           vocab,
		gen:             gen,
		distractorCount: distractorCount,
		clock:           time.Now,
	}
}

// Assemble builds a question for target over caption. exclude lists
// distractors already used for this target in the session.
func (a *Assembler) Assemble(target string, caption domain.CaptionContext, exclude []string, rnd Shuffler) (*domain.QuestionItem, error) {
	entry, err := a.vocab.Lookup(target)
	if err != nil {
		return nil, fmt.Errorf("assemble %q: %w", target, err)
	}

	cands, err := a.gen.Generate(entry.Word, entry.Level, caption, a.distractorCount, exclude)
	if err != nil {
		return nil, fmt.Errorf("assemble %q: %w", target, err)
	}

	options := make([]string, 0, len(cands)+1)
	options = append(options, entry.Word)
	for _, c := range cands {
		options = append(options, c.Word)
	}
	if err := checkUnique(options); err != nil {
		return nil, fmt.Errorf("assemble %q: %w", target, err)
	}

	correct := 0
	rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
		switch correct {
		case i:
			correct = j
		case j:
			correct = i
		}
	})

	prompt := caption.Text
	if bl, ok := Blank(caption.Text, entry.Word); ok {
		prompt = bl.Prompt
	}

	imageID := caption.ImageID
	if imageID == "" {
		imageID = entry.ImageID
	}

	return &domain.QuestionItem{
		ID:           uuid.New(),
		Target:       entry.Word,
		Level:        entry.Level,
		POS:          entry.POS,
		Options:      options,
		CorrectIndex: correct,
		ImageRef:     catalog.ImageRef(imageID),
		Context:      caption,
		Prompt:       prompt,
		State:        domain.QuestionStateCreated,
		CreatedAt:    a.clock(),
	}, nil
}

func checkUnique(options []string) error {
	seen := make(map[string]bool, len(options))
	for _, o := range options {
		key := strings.ToLower(strings.TrimSpace(o))
		if key == "" {
			return fmt.Errorf("empty option: %w", domain.ErrDuplicateOption)
		}
		if seen[key] {
			return fmt.Errorf("option %q repeated: %w", o, domain.ErrDuplicateOption)
		}
		seen[key] = true
	}
	return nil
}
