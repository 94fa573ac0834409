package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Quiz      QuizConfig      `yaml:"quiz"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Image     ImageConfig     `yaml:"image"`
	Storage   StorageConfig   `yaml:"storage"`
	Session   SessionConfig   `yaml:"session"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Content-Type,X-Request-Id"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"2"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// RateLimitConfig limits API requests per client address.
type RateLimitConfig struct {
	Enabled         bool          `yaml:"enabled"          env:"RATE_LIMIT_ENABLED"          env-default:"true"`
	RequestsPerMin  int           `yaml:"requests_per_min" env:"RATE_LIMIT_REQUESTS_PER_MIN" env-default:"120"`
	AnswersPerMin   int           `yaml:"answers_per_min"  env:"RATE_LIMIT_ANSWERS_PER_MIN"  env-default:"30"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"RATE_LIMIT_CLEANUP_INTERVAL" env-default:"5m"`
}

// QuizConfig tunes distractor ranking and session size.
type QuizConfig struct {
	DistanceWeight      float64 `yaml:"distance_weight"       env:"QUIZ_DISTANCE_WEIGHT"       env-default:"1.0"`
	TierWeight          float64 `yaml:"tier_weight"           env:"QUIZ_TIER_WEIGHT"           env-default:"1.5"`
	MaxTierRadius       int     `yaml:"max_tier_radius"       env:"QUIZ_MAX_TIER_RADIUS"       env-default:"1"`
	PoolFactor          int     `yaml:"pool_factor"           env:"QUIZ_POOL_FACTOR"           env-default:"3"`
	SamePOS             bool    `yaml:"same_pos"              env:"QUIZ_SAME_POS"              env-default:"true"`
	BlockCaptionWords   bool    `yaml:"block_caption_words"   env:"QUIZ_BLOCK_CAPTION_WORDS"   env-default:"true"`
	DistractorCount     int     `yaml:"distractor_count"      env:"QUIZ_DISTRACTOR_COUNT"      env-default:"2"`
	QuestionsPerSession int     `yaml:"questions_per_session" env:"QUIZ_QUESTIONS_PER_SESSION" env-default:"10"`
	MaxSessionQuestions int     `yaml:"max_session_questions" env:"QUIZ_MAX_SESSION_QUESTIONS" env-default:"50"`
	MaxTargetAttempts   int     `yaml:"max_target_attempts"   env:"QUIZ_MAX_TARGET_ATTEMPTS"   env-default:"20"`
}

// DatasetConfig points at the vocabulary and caption files loaded on start.
type DatasetConfig struct {
	VocabPath    string `yaml:"vocab_path"    env:"DATASET_VOCAB_PATH"    env-required:"true"`
	CaptionsPath string `yaml:"captions_path" env:"DATASET_CAPTIONS_PATH" env-required:"true"`
}

// ImageConfig configures error image generation.
// Provider "openai" needs APIKey; "disabled" always serves the placeholder.
type ImageConfig struct {
	Provider    string        `yaml:"provider"     env:"IMAGE_PROVIDER"     env-default:"disabled"`
	APIKey      string        `yaml:"api_key"      env:"IMAGE_API_KEY"`
	BaseURL     string        `yaml:"base_url"     env:"IMAGE_BASE_URL"`
	Model       string        `yaml:"model"        env:"IMAGE_MODEL"        env-default:"dall-e-3"`
	Size        string        `yaml:"size"         env:"IMAGE_SIZE"         env-default:"1024x1024"`
	Quality     string        `yaml:"quality"      env:"IMAGE_QUALITY"      env-default:"standard"`
	Style       string        `yaml:"style"        env:"IMAGE_STYLE"        env-default:"natural"`
	Timeout     time.Duration `yaml:"timeout"      env:"IMAGE_TIMEOUT"      env-default:"45s"`
	MinInterval time.Duration `yaml:"min_interval" env:"IMAGE_MIN_INTERVAL" env-default:"1s"`
	Placeholder string        `yaml:"placeholder"  env:"IMAGE_PLACEHOLDER"  env-default:"static/placeholder.png"`
}

// StorageConfig selects where image bytes live.
type StorageConfig struct {
	Driver         string `yaml:"driver"           env:"STORAGE_DRIVER"           env-default:"local"`
	LocalRoot      string `yaml:"local_root"       env:"STORAGE_LOCAL_ROOT"       env-default:"./data"`
	MinIOEndpoint  string `yaml:"minio_endpoint"   env:"STORAGE_MINIO_ENDPOINT"`
	MinIOAccessKey string `yaml:"minio_access_key" env:"STORAGE_MINIO_ACCESS_KEY"`
	MinIOSecretKey string `yaml:"minio_secret_key" env:"STORAGE_MINIO_SECRET_KEY"`
	MinIOBucket    string `yaml:"minio_bucket"     env:"STORAGE_MINIO_BUCKET"     env-default:"picquiz"`
	MinIOUseSSL    bool   `yaml:"minio_use_ssl"    env:"STORAGE_MINIO_USE_SSL"    env-default:"false"`
}

// SessionConfig bounds the in-memory session cache.
type SessionConfig struct {
	CacheSize int           `yaml:"cache_size" env:"SESSION_CACHE_SIZE" env-default:"1024"`
	TTL       time.Duration `yaml:"ttl"        env:"SESSION_TTL"        env-default:"2h"`
}
