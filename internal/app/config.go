package app

import (
	"strings"
	"time"

	"github.com/yungbote/refyne-backend/internal/observability"
	"github.com/yungbote/refyne-backend/internal/platform/anthropic"
	"github.com/yungbote/refyne-backend/internal/platform/envutil"
	"github.com/yungbote/refyne-backend/internal/platform/gemini"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
	"github.com/yungbote/refyne-backend/internal/platform/openai"
	"github.com/yungbote/refyne-backend/internal/realtime/bus"
	"github.com/yungbote/refyne-backend/internal/services"
)

const serviceName = "refyne"

type Config struct {
	Port    string
	LogMode string
	// AllowedOrigins are the frontend origins accepted by CORS (APP_URL).
	AllowedOrigins []string

	DBDriver   string
	SQLitePath string

	Storage   services.StorageConfig
	Documents services.DocumentConfig

	AI                 services.AIConfig
	AIRequestTimeout   time.Duration
	ChunkingPromptPath string

	RunRetention     time.Duration
	RunSweepInterval time.Duration

	Redis bus.RedisConfig
	Otel  observability.OtelConfig
}

// LoadLogMode is read before the logger exists, so it lives outside LoadConfig.
func LoadLogMode() string {
	return envutil.String("LOG_MODE", "development")
}

func LoadConfig(log *logger.Logger) Config {
	aiTimeout := envutil.Duration("AI_REQUEST_TIMEOUT", 120*time.Second)
	maxTokens := envutil.Int("AI_MAX_TOKENS", 4096)

	cfg := Config{
		Port:           envutil.String("PORT", "3001"),
		LogMode:        LoadLogMode(),
		AllowedOrigins: envutil.List("APP_URL", []string{"http://localhost:3000"}),

		DBDriver:   envutil.String("DB_DRIVER", "postgres"),
		SQLitePath: envutil.String("SQLITE_PATH", "refyne.db"),

		Storage: services.StorageConfig{
			Mode:         envutil.String("STORAGE_MODE", services.StorageModeLocal),
			UploadDir:    envutil.String("UPLOAD_DIR", "uploads"),
			Bucket:       envutil.String("UPLOAD_GCS_BUCKET", ""),
			EmulatorHost: envutil.String("STORAGE_EMULATOR_HOST", ""),
			Credentials: envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON",
				envutil.String("GOOGLE_APPLICATION_CREDENTIALS", "")),
		},
		Documents: services.DocumentConfig{
			MaxFiles:           envutil.Int("MAX_UPLOAD_FILES", 20),
			MaxFileBytes:       envutil.Int64("MAX_UPLOAD_BYTES", 10<<20),
			ExtractConcurrency: envutil.Int("EXTRACT_CONCURRENCY", 4),
		},

		AI: services.AIConfig{
			Provider: envutil.String("AI_PROVIDER", services.AIProviderAnthropic),
			Anthropic: anthropic.Config{
				APIKey:    envutil.String("ANTHROPIC_API_KEY", ""),
				BaseURL:   envutil.String("ANTHROPIC_BASE_URL", ""),
				Model:     envutil.String("ANTHROPIC_MODEL", anthropic.DefaultModel),
				MaxTokens: maxTokens,
				Timeout:   aiTimeout,
			},
			OpenAI: openai.Config{
				APIKey:    envutil.String("OPENAI_API_KEY", ""),
				BaseURL:   envutil.String("OPENAI_BASE_URL", ""),
				Model:     envutil.String("OPENAI_MODEL", openai.DefaultModel),
				MaxTokens: maxTokens,
				Timeout:   aiTimeout,
			},
			Gemini: gemini.Config{
				APIKey:    envutil.String("GEMINI_API_KEY", ""),
				Model:     envutil.String("GEMINI_MODEL", gemini.DefaultModel),
				MaxTokens: maxTokens,
			},
		},
		AIRequestTimeout:   aiTimeout,
		ChunkingPromptPath: envutil.String("CHUNKING_PROMPT_YAML", ""),

		RunRetention:     envutil.Duration("RUN_RETENTION", 5*time.Minute),
		RunSweepInterval: envutil.Duration("RUN_SWEEP_INTERVAL", time.Minute),

		Redis: bus.RedisConfig{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
			Channel:  envutil.String("REDIS_CHANNEL", bus.DefaultChannel),
		},
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", serviceName),
			Environment: envutil.String("APP_ENV", "development"),
			Version:     envutil.String("APP_VERSION", ""),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: envutil.Float64("OTEL_SAMPLER_RATIO", 1),
		},
	}

	if log != nil {
		log.Info(
			"Config loaded",
			"port", cfg.Port,
			"db_driver", cfg.DBDriver,
			"storage_mode", cfg.Storage.Mode,
			"ai_provider", cfg.AI.Provider,
			"redis", cfg.Redis.Addr != "",
			"otel", cfg.Otel.Enabled,
			"allowed_origins", strings.Join(cfg.AllowedOrigins, ","),
		)
	}
	return cfg
}
