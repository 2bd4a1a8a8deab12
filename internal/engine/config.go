package engine

import (
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	LLMAPIKey          string
	LLMAPIKeyFallbacks []string
	LLMAPIBase         string
	LLMModel           string
	LLMTemperature     float64
	LLMMaxTokens       int
	LLMClient          *llm.Client

	// Summarization text budgets (chars).
	MinChapterChars  int    // chapters below this get an empty summary
	ChunkSize        int    // per-chapter truncation budget on too-large retry
	PromptMaxChars   int    // prompt-capability input budget (key points, chat, quiz)
	TruncationSuffix string // appended to any truncated input

	ChapterWindowMs int // fixed-window length when a video has no chapter markers

	SettingsDBPath string // empty = $HOME/.go_digest/settings.db

	FetchTimeout  time.Duration
	HTTPClient    *http.Client
	BrowserClient *BrowserClient // nil = watch-page refetch uses HTTPClient
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, digestserver).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	cfg = c
	Cfg = &cfg
}
