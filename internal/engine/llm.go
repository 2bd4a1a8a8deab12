package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go-kit/llm"
)

// Generative-text backend. Two capabilities are consumed by the pipeline:
// Summarize (bounded one-shot summarization) and Prompt/PromptStream
// (free-form instruction following). Both go through cfg.LLMClient.

// ErrInputTooLarge reports that the backend rejected the input for size.
// Callers retry with a truncated input instead of failing the phase.
var ErrInputTooLarge = errors.New("input too large")

// Summarize modes.
const (
	ModeTLDR      = "tldr"
	ModeKeyPoints = "key-points"
)

// SummarizeOptions configures one Summarize call.
type SummarizeOptions struct {
	Mode           string // ModeTLDR or ModeKeyPoints
	Length         string // short, medium, long
	OutputLanguage string // ja, en, es
	SharedContext  string // e.g. "Video: <title>"
}

// LanguageNames maps output language codes to the names used in prompts.
var LanguageNames = map[string]string{
	"ja": "Japanese",
	"en": "English",
	"es": "Spanish",
}

// LanguageName resolves a code for prompt text, defaulting to English.
func LanguageName(code string) string {
	if name, ok := LanguageNames[code]; ok {
		return name
	}
	return "English"
}

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// asBackendErr classifies a raw client error. Size rejections come back from
// OpenAI-compatible endpoints with varying phrasing; the substring check is a
// compatibility shim around backends that expose no structured kind.
func asBackendErr(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "too large") ||
		strings.Contains(msg, "context length") ||
		strings.Contains(msg, "maximum context") ||
		strings.Contains(msg, "token limit") {
		return fmt.Errorf("%w: %s", ErrInputTooLarge, err)
	}
	return err
}

// summarizeInstruction builds the summarize prompt for the given options.
func summarizeInstruction(opts SummarizeOptions) string {
	lang := LanguageName(opts.OutputLanguage)
	var sb strings.Builder
	switch opts.Mode {
	case ModeKeyPoints:
		sb.WriteString("Summarize the following content as a markdown bullet list of its key points.")
	default:
		sb.WriteString("Write a concise TL;DR summary of the following content.")
	}
	switch opts.Length {
	case "short":
		sb.WriteString(" Keep it to 1-2 sentences.")
	case "long":
		sb.WriteString(" Cover all major points in detail.")
	default:
		sb.WriteString(" Keep it to a short paragraph.")
	}
	fmt.Fprintf(&sb, " Write your response in %s.", lang)
	if opts.SharedContext != "" {
		sb.WriteString("\n\n")
		sb.WriteString(opts.SharedContext)
	}
	return sb.String()
}

// Summarize runs the backend's summarize capability over text.
// Returns ErrInputTooLarge (wrapped) when the backend rejects the input size.
func Summarize(ctx context.Context, text string, opts SummarizeOptions) (string, error) {
	metrics.SummarizeCalls.Add(1)
	prompt := summarizeInstruction(opts) + "\n\nContent:\n" + text
	resp, err := cfg.LLMClient.Complete(ctx, "", prompt,
		llm.WithChatTemperature(0.2),
	)
	if err != nil {
		metrics.SummarizeErrors.Add(1)
		return "", asBackendErr(err)
	}
	return stripFences(resp), nil
}

// Prompt runs the backend's free-form prompt capability and returns the
// complete response. Used where streaming deltas are not needed (quiz).
func Prompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	metrics.PromptCalls.Add(1)
	resp, err := cfg.LLMClient.Complete(ctx, systemPrompt, userPrompt,
		llm.WithChatTemperature(0.4),
	)
	if err != nil {
		metrics.PromptErrors.Add(1)
		return "", asBackendErr(err)
	}
	return stripFences(resp), nil
}
