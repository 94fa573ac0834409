package catalog

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/heartmarshall/picquiz-backend/internal/domain"
)

// ErrMalformed marks a dataset that cannot be used.
var ErrMalformed = errors.New("malformed dataset")

// LoadError points at the offending line of a dataset file.
type LoadError struct {
	Line int
	Err  error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return e.Err.Error()
}

func (e *LoadError) Unwrap() []error { return []error{ErrMalformed, e.Err} }

// Column aliases accepted in the vocabulary header (case-insensitive).
var columnAliases = map[string]string{
	"word":       "word",
	"lemma":      "word",
	"level":      "level",
	"cefr":       "level",
	"pos":        "pos",
	"caption_id": "caption_id",
	"captionid":  "caption_id",
	"image_id":   "image_id",
	"imageid":    "image_id",
}

// LoadVocabCSV parses a vocabulary table with a header row. The word and
// level columns are required; pos, caption_id and image_id are optional and
// any other column is kept as metadata.
func LoadVocabCSV(r io.Reader) ([]domain.VocabEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, &LoadError{Err: errors.New("empty file")}
		}
		return nil, &LoadError{Line: 1, Err: fmt.Errorf("read header: %w", err)}
	}

	cols := make(map[string]int, len(header))
	extra := make(map[int]string)
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if canon, ok := columnAliases[name]; ok {
			if _, dup := cols[canon]; !dup {
				cols[canon] = i
			}
			continue
		}
		if name != "" {
			extra[i] = name
		}
	}
	for _, required := range []string{"word", "level"} {
		if _, ok := cols[required]; !ok {
			return nil, &LoadError{Line: 1, Err: fmt.Errorf("missing required column %q", required)}
		}
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var entries []domain.VocabEntry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &LoadError{Line: pe.Line, Err: pe.Err}
			}
			return nil, &LoadError{Err: err}
		}
		line, _ := reader.FieldPos(0)
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}

		word := field(record, "word")
		if word == "" {
			return nil, &LoadError{Line: line, Err: errors.New("empty word")}
		}
		level, err := domain.ParseLevel(field(record, "level"))
		if err != nil {
			return nil, &LoadError{Line: line, Err: err}
		}

		e := domain.VocabEntry{
			Word:      word,
			Level:     level,
			POS:       domain.ParsePartOfSpeech(field(record, "pos")),
			CaptionID: field(record, "caption_id"),
			ImageID:   field(record, "image_id"),
		}
		for i, name := range extra {
			if i < len(record) && record[i] != "" {
				if e.Metadata == nil {
					e.Metadata = make(map[string]string, len(extra))
				}
				e.Metadata[name] = record[i]
			}
		}
		entries = append(entries, e)
	}

	if len(entries) == 0 {
		return nil, &LoadError{Err: errors.New("no vocabulary rows")}
	}
	return entries, nil
}

// Captions indexes caption contexts by caption id.
type Captions struct {
	byID map[string]domain.CaptionContext
}

// NewCaptions builds an index from contexts; later duplicates are ignored.
func NewCaptions(contexts []domain.CaptionContext) *Captions {
	c := &Captions{byID: make(map[string]domain.CaptionContext, len(contexts))}
	for _, ctx := range contexts {
		if _, ok := c.byID[ctx.CaptionID]; !ok {
			c.byID[ctx.CaptionID] = ctx
		}
	}
	return c
}

// Lookup returns the caption with the given id.
func (c *Captions) Lookup(id string) (domain.CaptionContext, error) {
	ctx, ok := c.byID[id]
	if !ok {
		return domain.CaptionContext{}, fmt.Errorf("caption %q: %w", id, domain.ErrNotFound)
	}
	return ctx, nil
}

// Len returns the number of captions.
func (c *Captions) Len() int { return len(c.byID) }

// jsonID accepts both numeric and string ids.
type jsonID string

func (id *jsonID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	*id = jsonID(strings.Trim(s, `"`))
	return nil
}

type cocoFile struct {
	Annotations []struct {
		ID      jsonID `json:"id"`
		ImageID jsonID `json:"image_id"`
		Caption string `json:"caption"`
	} `json:"annotations"`
}

// LoadCaptionsJSON parses a COCO-style captions file:
// {"annotations": [{"id": 1, "image_id": 2, "caption": "..."}]}.
func LoadCaptionsJSON(r io.Reader) (*Captions, error) {
	var f cocoFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, &LoadError{Err: fmt.Errorf("decode captions: %w", err)}
	}
	if len(f.Annotations) == 0 {
		return nil, &LoadError{Err: errors.New("no caption annotations")}
	}

	contexts := make([]domain.CaptionContext, 0, len(f.Annotations))
	for i, a := range f.Annotations {
		if a.ID == "" {
			return nil, &LoadError{Err: fmt.Errorf("annotation %d: missing id", i)}
		}
		contexts = append(contexts, domain.CaptionContext{
			CaptionID: string(a.ID),
			ImageID:   string(a.ImageID),
			Text:      strings.TrimSpace(a.Caption),
		})
	}
	return NewCaptions(contexts), nil
}

// Dataset bundles the vocabulary catalog and the captions it refers to.
type Dataset struct {
	Catalog  *Catalog
	Captions *Captions
}

// LoadFiles reads both dataset files from disk.
func LoadFiles(vocabPath, captionsPath string) (*Dataset, error) {
	vf, err := os.Open(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary: %w", err)
	}
	defer vf.Close()

	entries, err := LoadVocabCSV(vf)
	if err != nil {
		return nil, fmt.Errorf("parse vocabulary %s: %w", vocabPath, err)
	}

	cat, err := New(entries)
	if err != nil {
		return nil, err
	}

	cf, err := os.Open(captionsPath)
	if err != nil {
		return nil, fmt.Errorf("open captions: %w", err)
	}
	defer cf.Close()

	caps, err := LoadCaptionsJSON(cf)
	if err != nil {
		return nil, fmt.Errorf("parse captions %s: %w", captionsPath, err)
	}

	return &Dataset{Catalog: cat, Captions: caps}, nil
}

// ImageRef returns the storage key of the dataset image for an image id,
// following the COCO file naming (12-digit zero padded).
func ImageRef(imageID string) string {
	if imageID == "" {
		return ""
	}
	if len(imageID) < 12 {
		imageID = strings.Repeat("0", 12-len(imageID)) + imageID
	}
	return "images/" + imageID + ".jpg"
}
