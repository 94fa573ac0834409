package quiz

import (
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/picquiz-backend/internal/domain"
)

const maxUsernameLen = 64

// StartInput holds the parameters for starting a session. Empty Mode means
// learning; zero Total means the configured default.
type StartInput struct {
	Username string
	Mode     string
	POS      string
	Level    string
	Total    int
}

type startParams struct {
	username string
	mode     domain.SessionMode
	pos      domain.PartOfSpeech
	level    domain.Level
	total    int
}

// validate checks all fields, collects all errors and returns the parsed
// values.
func (i StartInput) validate(defaultTotal, maxTotal int) (startParams, error) {
	var errs []domain.FieldError
	p := startParams{
		username: strings.TrimSpace(i.Username),
		mode:     domain.SessionModeLearning,
		total:    i.Total,
	}

	switch {
	case p.username == "":
		errs = append(errs, domain.FieldError{Field: "username", Message: "required"})
	case len(p.username) > maxUsernameLen:
		errs = append(errs, domain.FieldError{Field: "username", Message: "max 64 characters"})
	}

	if m := strings.ToUpper(strings.TrimSpace(i.Mode)); m != "" {
		p.mode = domain.SessionMode(m)
		if !p.mode.IsValid() {
			errs = append(errs, domain.FieldError{Field: "mode", Message: "must be LEARNING or REVIEW"})
		}
	}

	if strings.TrimSpace(i.POS) != "" {
		p.pos = domain.ParsePartOfSpeech(i.POS)
	}

	if strings.TrimSpace(i.Level) != "" {
		lvl, err := domain.ParseLevel(i.Level)
		if err != nil {
			errs = append(errs, domain.FieldError{Field: "level", Message: "must be one of A1, A2, B1, B2, C1, C2"})
		}
		p.level = lvl
	}

	switch {
	case p.total == 0:
		p.total = defaultTotal
	case p.total < 0 || p.total > maxTotal:
		errs = append(errs, domain.FieldError{Field: "total", Message: "out of range"})
	}

	if len(errs) > 0 {
		return startParams{}, &domain.ValidationError{Errors: errs}
	}
	return p, nil
}

// AnswerInput holds one submitted answer.
type AnswerInput struct {
	SessionID uuid.UUID
	ItemID    uuid.UUID
	Selected  string
}

// Validate checks all fields and collects all errors.
func (i AnswerInput) Validate() error {
	var errs []domain.FieldError
	if i.SessionID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "session_id", Message: "required"})
	}
	if i.ItemID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "item_id", Message: "required"})
	}
	if strings.TrimSpace(i.Selected) == "" {
		errs = append(errs, domain.FieldError{Field: "selected", Message: "required"})
	}
	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
