package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pika/pkg/adapter"
	"github.com/m-mizutani/pika/pkg/interfaces"
	"github.com/m-mizutani/pika/pkg/repository"
	"github.com/m-mizutani/pika/pkg/service/chunk"
	"github.com/m-mizutani/pika/pkg/service/embed"
	"github.com/m-mizutani/pika/pkg/service/extract"
	"github.com/m-mizutani/pika/pkg/usecase/assist"
	"github.com/m-mizutani/pika/pkg/usecase/conversation"
	"github.com/m-mizutani/pika/pkg/usecase/reason"
	"github.com/m-mizutani/pika/pkg/usecase/retrieve"
	"github.com/m-mizutani/pika/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// config holds configuration values shared across commands. Flag values
// win over the optional YAML config file, which wins over built-in
// defaults.
type config struct {
	logLevel   string
	configPath string

	// Vector index
	indexBackend string
	postgresDSN  string
	dimension    int

	// Session storage
	sessionBackend string
	sessionDir     string
	project        string
	database       string

	// LLM adapters
	llmBackend      string
	anthropicAPIKey string
	geminiProject   string
	geminiLocation  string
	generativeModel string
	embeddingModel  string

	// Ingestion
	chunkSize     int64
	chunkOverlap  int64
	maxEmbedInput int
}

// fileConfig is the optional YAML config file shape.
type fileConfig struct {
	ChunkSize       int    `yaml:"chunk_size"`
	ChunkOverlap    int    `yaml:"chunk_overlap"`
	Dimension       int    `yaml:"embedding_dimension"`
	MaxEmbedInput   int    `yaml:"max_embed_input"`
	GenerativeModel string `yaml:"generative_model"`
	EmbeddingModel  string `yaml:"embedding_model"`
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("PIKA_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to YAML config file",
			Sources:     cli.EnvVars("PIKA_CONFIG"),
			Destination: &cfg.configPath,
		},
		&cli.StringFlag{
			Name:        "index",
			Usage:       "Vector index backend (memory or postgres; memory does not persist between runs)",
			Value:       "memory",
			Sources:     cli.EnvVars("PIKA_INDEX"),
			Destination: &cfg.indexBackend,
		},
		&cli.StringFlag{
			Name:        "postgres-dsn",
			Usage:       "PostgreSQL DSN for the pgvector index backend",
			Sources:     cli.EnvVars("PIKA_POSTGRES_DSN"),
			Destination: &cfg.postgresDSN,
		},
		&cli.StringFlag{
			Name:        "sessions",
			Usage:       "Session storage backend (local or firestore)",
			Value:       "local",
			Sources:     cli.EnvVars("PIKA_SESSIONS"),
			Destination: &cfg.sessionBackend,
		},
		&cli.StringFlag{
			Name:        "session-dir",
			Usage:       "Directory for local session files",
			Value:       "./sessions",
			Sources:     cli.EnvVars("PIKA_SESSION_DIR"),
			Destination: &cfg.sessionDir,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID (Firestore sessions)",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm",
			Usage:       "Completion backend (gemini or claude)",
			Value:       "gemini",
			Sources:     cli.EnvVars("PIKA_LLM"),
			Destination: &cfg.llmBackend,
		},
		&cli.StringFlag{
			Name:        "anthropic-api-key",
			Usage:       "Anthropic API key",
			Sources:     cli.EnvVars("ANTHROPIC_API_KEY"),
			Destination: &cfg.anthropicAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
	}
}

func ingestFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "chunk-size",
			Usage:       "Chunk size in characters",
			Sources:     cli.EnvVars("PIKA_CHUNK_SIZE"),
			Destination: &cfg.chunkSize,
		},
		&cli.IntFlag{
			Name:        "chunk-overlap",
			Usage:       "Chunk overlap in characters",
			Sources:     cli.EnvVars("PIKA_CHUNK_OVERLAP"),
			Destination: &cfg.chunkOverlap,
		},
	}
}

// setup loads the optional config file and installs the logger into the
// context. Call it at the top of every command action.
func (cfg *config) setup(ctx context.Context) (context.Context, error) {
	if cfg.configPath != "" {
		data, err := os.ReadFile(cfg.configPath)
		if err != nil {
			return ctx, goerr.Wrap(err, "failed to read config file", goerr.V("path", cfg.configPath))
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return ctx, goerr.Wrap(err, "failed to parse config file", goerr.V("path", cfg.configPath))
		}
		cfg.applyFile(&fc)
	}

	if cfg.chunkSize == 0 {
		cfg.chunkSize = chunk.DefaultSize
	}
	if cfg.chunkOverlap == 0 {
		cfg.chunkOverlap = chunk.DefaultOverlap
	}
	if cfg.dimension == 0 {
		cfg.dimension = 768
	}
	if cfg.maxEmbedInput == 0 {
		cfg.maxEmbedInput = embed.DefaultMaxInputRunes
	}

	logger := logging.New(cfg.logLevel, os.Stderr)
	return logging.With(ctx, logger), nil
}

// applyFile fills config values that were not set by flags.
func (cfg *config) applyFile(fc *fileConfig) {
	if cfg.chunkSize == 0 {
		cfg.chunkSize = int64(fc.ChunkSize)
	}
	if cfg.chunkOverlap == 0 {
		cfg.chunkOverlap = int64(fc.ChunkOverlap)
	}
	if cfg.dimension == 0 {
		cfg.dimension = fc.Dimension
	}
	if cfg.maxEmbedInput == 0 {
		cfg.maxEmbedInput = fc.MaxEmbedInput
	}
	if cfg.generativeModel == "" {
		cfg.generativeModel = fc.GenerativeModel
	}
	if cfg.embeddingModel == "" {
		cfg.embeddingModel = fc.EmbeddingModel
	}
}

// warnEphemeralIndex notes when ingestion targets the in-memory index,
// which is discarded at process exit.
func (cfg *config) warnEphemeralIndex(ctx context.Context) {
	if cfg.indexBackend == "memory" {
		logging.From(ctx).Warn("in-memory index is not persisted; ingested documents are lost at process exit (use --index postgres to keep them)")
	}
}

// newGemini creates the Gemini adapter, which serves embeddings always and
// completion when selected.
func (cfg *config) newGemini(ctx context.Context) (*adapter.GeminiClient, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}

	opts := []adapter.GeminiOption{
		adapter.WithEmbeddingDimension(cfg.dimension),
	}
	if cfg.generativeModel != "" {
		opts = append(opts, adapter.WithGenerativeModel(cfg.generativeModel))
	}
	if cfg.embeddingModel != "" {
		opts = append(opts, adapter.WithEmbeddingModel(cfg.embeddingModel))
	}

	client, err := adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini adapter")
	}
	return client, nil
}

func (cfg *config) newCompletion(ctx context.Context) (interfaces.CompletionService, error) {
	switch cfg.llmBackend {
	case "claude":
		if cfg.anthropicAPIKey == "" {
			return nil, goerr.New("anthropic-api-key is required for the claude backend")
		}
		return adapter.NewClaude(cfg.anthropicAPIKey), nil
	case "gemini":
		return cfg.newGemini(ctx)
	default:
		return nil, goerr.New("unknown llm backend", goerr.V("llm", cfg.llmBackend))
	}
}

func (cfg *config) newIndex(ctx context.Context) (interfaces.VectorIndex, error) {
	switch cfg.indexBackend {
	case "postgres":
		if cfg.postgresDSN == "" {
			return nil, goerr.New("postgres-dsn is required for the postgres index backend")
		}
		return repository.NewPostgres(ctx, cfg.postgresDSN, cfg.dimension)
	case "memory":
		return repository.NewMemory(cfg.dimension)
	default:
		return nil, goerr.New("unknown index backend", goerr.V("index", cfg.indexBackend))
	}
}

func (cfg *config) newSessionRepo(ctx context.Context) (interfaces.SessionRepository, error) {
	switch cfg.sessionBackend {
	case "firestore":
		if cfg.project == "" {
			return nil, goerr.New("project is required for the firestore session backend")
		}
		return repository.NewFirestore(ctx, cfg.project, cfg.database)
	case "local":
		return repository.NewLocal(cfg.sessionDir)
	default:
		return nil, goerr.New("unknown session backend", goerr.V("sessions", cfg.sessionBackend))
	}
}

func (cfg *config) newRetriever(ctx context.Context) (*retrieve.UseCase, error) {
	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	splitter, err := chunk.New(int(cfg.chunkSize), int(cfg.chunkOverlap))
	if err != nil {
		return nil, err
	}

	index, err := cfg.newIndex(ctx)
	if err != nil {
		return nil, err
	}

	return retrieve.New(retrieve.Input{
		Extractor: extract.New(),
		Splitter:  splitter,
		Gateway:   embed.New(gemini, embed.WithMaxInput(cfg.maxEmbedInput)),
		Index:     index,
	}), nil
}

func (cfg *config) newConversations(ctx context.Context) (*conversation.Manager, error) {
	repo, err := cfg.newSessionRepo(ctx)
	if err != nil {
		return nil, err
	}
	return conversation.New(repo), nil
}

func (cfg *config) newAssist(ctx context.Context) (*assist.UseCase, error) {
	retriever, err := cfg.newRetriever(ctx)
	if err != nil {
		return nil, err
	}

	conversations, err := cfg.newConversations(ctx)
	if err != nil {
		return nil, err
	}

	completion, err := cfg.newCompletion(ctx)
	if err != nil {
		return nil, err
	}

	return assist.New(assist.Input{
		Retriever:     retriever,
		Conversations: conversations,
		Dispatcher:    reason.NewDispatcher(),
		Completion:    completion,
	}), nil
}
