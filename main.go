// go_digest — YouTube transcript & digest MCP server.
//
// A browser panel calls the tools with page-captured state; the server owns
// transcript acquisition (three-tier player data resolution, caption
// decoding, chapter segmentation), the hierarchical summarization pipeline,
// the per-tab session cache, and the settings store.
// Runs as HTTP MCP server or stdio transport.
package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-kit/llm"
	"github.com/anatolykoptev/go-mcpserver"
	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_digest/internal/digestserver"
	"github.com/anatolykoptev/go_digest/internal/engine"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	initEngine()

	slog.Info("starting go_digest",
		slog.String("port", mcpPort),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_digest",
		Version: version,
	}, nil)

	session := engine.NewSession()
	digestserver.RegisterTools(server, session)
	slog.Info("tools registered", slog.Int("count", 8))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_digest",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() {
	c := engine.Config{
		LLMAPIKey:          env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks: env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:         env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModel:           env.Str("LLM_MODEL", "gemini-2.5-flash"),
		LLMTemperature:     env.Float("LLM_TEMPERATURE", 0.2),
		LLMMaxTokens:       env.Int("LLM_MAX_TOKENS", 8192),
		MinChapterChars:    env.Int("MIN_CHAPTER_CHARS", 50),
		ChunkSize:          env.Int("CHUNK_SIZE", 3000),
		PromptMaxChars:     env.Int("PROMPT_MAX_CHARS", 4000),
		TruncationSuffix:   "\n\n[Text truncated for summarization]",
		ChapterWindowMs:    env.Int("CHAPTER_WINDOW_MS", 150000),
		SettingsDBPath:     env.Str("SETTINGS_DB_PATH", ""),
		FetchTimeout:       env.Duration("FETCH_TIMEOUT", 10*time.Second),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	if env.Str("STEALTH_DISABLE", "") == "" {
		bc, err := stealth.NewClient(stealth.WithTimeout(15))
		if err != nil {
			slog.Warn("stealth client init failed, watch page refetch uses plain HTTP", slog.Any("error", err))
		} else {
			c.BrowserClient = bc
			slog.Info("stealth browser client initialized")
		}
	}

	c.LLMClient = llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
		llm.WithFallbackKeys(c.LLMAPIKeyFallbacks),
		llm.WithMaxTokens(c.LLMMaxTokens),
		llm.WithTemperature(c.LLMTemperature),
		llm.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
	)

	engine.Init(c)
}
