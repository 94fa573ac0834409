package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically. All
// problems are reported at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		add("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}
	if c.Database.MinConns > c.Database.MaxConns {
		add("database.min_conns must be <= max_conns (got %d > %d)", c.Database.MinConns, c.Database.MaxConns)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.Log.Level)) {
		add("log.level must be one of debug, info, warn, error (got %q)", c.Log.Level)
	}
	if !slices.Contains([]string{"json", "text"}, strings.ToLower(c.Log.Format)) {
		add("log.format must be json or text (got %q)", c.Log.Format)
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerMin <= 0 || c.RateLimit.AnswersPerMin <= 0) {
		add("rate_limit.requests_per_min and answers_per_min must be > 0")
	}

	q := c.Quiz
	if q.DistanceWeight < 0 || q.TierWeight < 0 {
		add("quiz weights must be >= 0 (got distance %v, tier %v)", q.DistanceWeight, q.TierWeight)
	}
	if q.MaxTierRadius < 0 {
		add("quiz.max_tier_radius must be >= 0 (got %d)", q.MaxTierRadius)
	}
	if q.PoolFactor < 1 {
		add("quiz.pool_factor must be >= 1 (got %d)", q.PoolFactor)
	}
	if q.DistractorCount < 1 {
		add("quiz.distractor_count must be >= 1 (got %d)", q.DistractorCount)
	}
	if q.QuestionsPerSession < 1 || q.QuestionsPerSession > q.MaxSessionQuestions {
		add("quiz.questions_per_session must be in 1..%d (got %d)", q.MaxSessionQuestions, q.QuestionsPerSession)
	}
	if q.MaxTargetAttempts < 1 {
		add("quiz.max_target_attempts must be >= 1 (got %d)", q.MaxTargetAttempts)
	}

	switch c.Image.Provider {
	case "disabled":
	case "openai":
		if c.Image.APIKey == "" {
			add("image.api_key is required for provider openai")
		}
	default:
		add("image.provider must be openai or disabled (got %q)", c.Image.Provider)
	}
	if c.Image.Timeout <= 0 {
		add("image.timeout must be > 0")
	}
	if c.Image.Placeholder == "" {
		add("image.placeholder is required")
	}

	switch c.Storage.Driver {
	case "local":
		if c.Storage.LocalRoot == "" {
			add("storage.local_root is required for driver local")
		}
	case "minio":
		if c.Storage.MinIOEndpoint == "" || c.Storage.MinIOBucket == "" {
			add("storage.minio_endpoint and minio_bucket are required for driver minio")
		}
	default:
		add("storage.driver must be local or minio (got %q)", c.Storage.Driver)
	}

	if c.Session.CacheSize < 1 {
		add("session.cache_size must be >= 1 (got %d)", c.Session.CacheSize)
	}
	if c.Session.TTL <= 0 {
		add("session.ttl must be > 0")
	}

	return errors.Join(errs...)
}
