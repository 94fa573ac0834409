package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/picquiz-backend/internal/app"
	"github.com/heartmarshall/picquiz-backend/internal/catalog"
	"github.com/heartmarshall/picquiz-backend/internal/config"
	"github.com/heartmarshall/picquiz-backend/internal/distractor"
	"github.com/heartmarshall/picquiz-backend/internal/domain"
	"github.com/heartmarshall/picquiz-backend/internal/lexical"
	"github.com/heartmarshall/picquiz-backend/internal/question"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print sample questions from dataset files (no database)",
	Long: `Assemble questions straight from a vocabulary CSV and a captions JSON file.

Nothing is persisted and no images are generated. Useful for checking a new
dataset or tuning distractor weights.`,
	RunE: runPreview,
}

func init() {
	f := previewCmd.Flags()
	f.String("vocab", "", "vocabulary CSV file (required)")
	f.String("captions", "", "captions JSON file (required)")
	f.String("pos", "VERB", "part of speech filter, empty for any")
	f.String("level", "", "CEFR level filter (A1..C2)")
	f.StringSlice("word", nil, "preview these words instead of sampling")
	f.Int("count", 5, "number of questions")
	f.Uint64("seed", 1, "shuffle seed")
	f.Float64("distance-weight", 1.0, "edit distance weight")
	f.Float64("tier-weight", 1.5, "CEFR tier gap weight")
	f.Int("radius", 1, "maximum tier radius")
	f.Bool("block-caption-words", true, "never offer a word the caption already contains")
	_ = previewCmd.MarkFlagRequired("vocab")
	_ = previewCmd.MarkFlagRequired("captions")
}

type previewOptions struct {
	pos   domain.PartOfSpeech
	level domain.Level
	words []string
	count int
	seed  uint64
	quiz  config.QuizConfig
}

func runPreview(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	vocabPath, _ := f.GetString("vocab")
	captionsPath, _ := f.GetString("captions")
	posVal, _ := f.GetString("pos")
	levelVal, _ := f.GetString("level")

	opts := previewOptions{
		quiz: config.QuizConfig{
			PoolFactor:      3,
			SamePOS:         true,
			DistractorCount: 2,
		},
	}
	opts.words, _ = f.GetStringSlice("word")
	opts.count, _ = f.GetInt("count")
	opts.seed, _ = f.GetUint64("seed")
	opts.quiz.DistanceWeight, _ = f.GetFloat64("distance-weight")
	opts.quiz.TierWeight, _ = f.GetFloat64("tier-weight")
	opts.quiz.MaxTierRadius, _ = f.GetInt("radius")
	opts.quiz.BlockCaptionWords, _ = f.GetBool("block-caption-words")

	if posVal != "" {
		opts.pos = domain.ParsePartOfSpeech(posVal)
	}
	if levelVal != "" {
		level, err := domain.ParseLevel(levelVal)
		if err != nil {
			return err
		}
		opts.level = level
	}

	ds, err := catalog.LoadFiles(vocabPath, captionsPath)
	if err != nil {
		return err
	}
	return preview(cmd.OutOrStdout(), ds, opts)
}

func preview(out io.Writer, ds *catalog.Dataset, opts previewOptions) error {
	asm, err := app.NewAssembler(opts.quiz, ds.Catalog)
	if err != nil {
		return err
	}
	rnd := rand.New(rand.NewPCG(opts.seed, opts.seed))

	targets := opts.words
	if len(targets) == 0 {
		pool := ds.Catalog.Select(opts.pos, opts.level)
		rnd.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		for _, e := range pool {
			targets = append(targets, e.Word)
		}
	}

	shown := 0
	for _, word := range targets {
		if shown >= opts.count {
			break
		}
		q, err := previewOne(ds, asm, word, rnd)
		if err != nil {
			if len(opts.words) > 0 {
				fmt.Fprintf(out, "%s: skipped (%v)\n\n", word, err)
			}
			continue
		}
		shown++

		fmt.Fprintf(out, "%d. [%s %s] %s\n", shown, q.Level, q.POS, q.Prompt)
		for i, o := range q.Options {
			mark := " "
			if i == q.CorrectIndex {
				mark = "*"
			}
			fmt.Fprintf(out, "   %s %c) %s\n", mark, 'a'+rune(i), o)
		}
		sum := distractor.Summarize(distractorStats(ds.Catalog, q))
		fmt.Fprintf(out, "   distance %d-%d (avg %.2f), tier gap <= %d\n",
			sum.MinDistance, sum.MaxDistance, sum.AvgDistance, sum.MaxTierGap)
		if q.ImageRef != "" {
			fmt.Fprintf(out, "   image: %s\n", q.ImageRef)
		}
		fmt.Fprintln(out)
	}

	if shown == 0 {
		return errors.New("no question could be assembled for the given filters")
	}
	return nil
}

func previewOne(ds *catalog.Dataset, asm *question.Assembler, word string, rnd *rand.Rand) (*domain.QuestionItem, error) {
	entry, err := ds.Catalog.Lookup(strings.TrimSpace(word))
	if err != nil {
		return nil, err
	}
	caption, err := ds.Captions.Lookup(entry.CaptionID)
	if err != nil {
		return nil, err
	}
	if _, ok := question.Blank(caption.Text, entry.Word); !ok {
		return nil, fmt.Errorf("%q does not occur in caption %s", entry.Word, caption.CaptionID)
	}
	return asm.Assemble(entry.Word, caption, nil, rnd)
}

func distractorStats(cat *catalog.Catalog, q *domain.QuestionItem) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(q.Options)-1)
	for _, w := range q.Distractors() {
		c := domain.Candidate{Word: w, Distance: lexical.Distance(q.Target, w)}
		if e, err := cat.Lookup(w); err == nil {
			c.TierGap = e.Level.Distance(q.Level)
		}
		out = append(out, c)
	}
	return out
}
