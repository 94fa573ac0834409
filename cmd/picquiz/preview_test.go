package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/picquiz-backend/internal/catalog"
	"github.com/heartmarshall/picquiz-backend/internal/config"
	"github.com/heartmarshall/picquiz-backend/internal/domain"
)

func previewDataset(t *testing.T) *catalog.Dataset {
	t.Helper()

	verb := func(word, caption string) domain.VocabEntry {
		return domain.VocabEntry{Word: word, Level: domain.LevelA2, POS: domain.PartOfSpeechVerb, CaptionID: caption, ImageID: "42"}
	}
	cat, err := catalog.New([]domain.VocabEntry{
		verb("hugging", "c1"),
		verb("ghost", "c2"),
		verb("hanging", ""),
		verb("bugging", ""),
		verb("tugging", ""),
	})
	require.NoError(t, err)

	return &catalog.Dataset{
		Catalog: cat,
		Captions: catalog.NewCaptions([]domain.CaptionContext{
			{CaptionID: "c1", ImageID: "42", Text: "Two kids hugging a puppy."},
			{CaptionID: "c2", ImageID: "43", Text: "A cat on a sofa."},
		}),
	}
}

func previewQuiz() config.QuizConfig {
	return config.QuizConfig{DistanceWeight: 1, TierWeight: 1.5, MaxTierRadius: 1, PoolFactor: 3, SamePOS: true, BlockCaptionWords: true, DistractorCount: 2}
}

func TestPreview_Sampled(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := preview(&out, previewDataset(t), previewOptions{
		pos:   domain.PartOfSpeechVerb,
		count: 5,
		seed:  3,
		quiz:  previewQuiz(),
	})
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "1. [A2 VERB] Two kids ( ) a puppy.")
	assert.Contains(t, s, "* ")
	assert.Contains(t, s, "image: ")
	// bugging and tugging are one edit from hugging on the same tier.
	assert.Contains(t, s, "distance 1-1 (avg 1.00), tier gap <= 0")
	assert.NotContains(t, s, "2. ", "ghost has no usable caption")
}

func TestPreview_ExplicitWordsReportSkips(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := preview(&out, previewDataset(t), previewOptions{
		words: []string{"ghost", "hugging"},
		count: 5,
		seed:  1,
		quiz:  previewQuiz(),
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "ghost: skipped")
	assert.Contains(t, out.String(), "hugging")
}

func TestPreview_NothingAssembled(t *testing.T) {
	t.Parallel()

	err := preview(&bytes.Buffer{}, previewDataset(t), previewOptions{
		pos:   domain.PartOfSpeechNoun,
		count: 3,
		quiz:  previewQuiz(),
	})
	assert.Error(t, err)
}

func TestPreview_InvalidWeights(t *testing.T) {
	t.Parallel()

	q := previewQuiz()
	q.DistanceWeight = -2
	err := preview(&bytes.Buffer{}, previewDataset(t), previewOptions{count: 1, quiz: q})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "picquiz dev")
}
