package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Streaming prompt capability over an OpenAI-compatible /chat/completions
// endpoint. go-kit/llm covers one-shot completions only, so the SSE consumer
// lives here. A stream is finite and not restartable; callers that need a
// retry start a new stream.

// streamAccumulator folds a delta sequence into the full response text.
// Backends disagree on delta semantics: some send incremental appends, some
// resend the whole output each chunk. The mode is detected once per stream,
// on the first chunk that arrives with text already accumulated, by checking
// whether that chunk is a prefix-extension of the accumulated text.
type streamAccumulator struct {
	full string
	mode int // 0 undecided, 1 incremental, 2 cumulative
}

func (a *streamAccumulator) add(chunk string) string {
	if chunk == "" {
		return a.full
	}
	if a.mode == 0 && a.full != "" {
		if strings.HasPrefix(chunk, a.full) {
			a.mode = 2
		} else {
			a.mode = 1
		}
	}
	if a.mode == 2 {
		a.full = chunk
	} else {
		a.full += chunk
	}
	return a.full
}

type chatStreamReq struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// PromptStream runs the free-form prompt capability with streaming output.
// onUpdate, when non-nil, receives the accumulated text after every delta.
// Returns the complete response once the stream finishes.
func PromptStream(ctx context.Context, systemPrompt, userPrompt string, onUpdate func(full string)) (string, error) {
	metrics.PromptCalls.Add(1)

	messages := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	body, err := json.Marshal(chatStreamReq{
		Model:    cfg.LLMModel,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(cfg.LLMAPIBase, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+cfg.LLMAPIKey)

	resp, err := cfg.HTTPClient.Do(req)
	if err != nil {
		metrics.PromptErrors.Add(1)
		return "", fmt.Errorf("prompt stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		metrics.PromptErrors.Add(1)
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", asBackendErr(fmt.Errorf("prompt stream HTTP %d: %s", resp.StatusCode, snippet))
	}

	full, err := consumeSSE(resp.Body, onUpdate)
	if err != nil {
		metrics.PromptErrors.Add(1)
		return "", err
	}
	return full, nil
}

// consumeSSE reads "data:" events until [DONE] or EOF, feeding each delta
// through the accumulator.
func consumeSSE(r io.Reader, onUpdate func(string)) (string, error) {
	var acc streamAccumulator
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			if payload == "[DONE]" {
				break
			}
			continue
		}
		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue // keep-alive or unknown event shape
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		full := acc.add(chunk.Choices[0].Delta.Content)
		if onUpdate != nil {
			onUpdate(full)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("prompt stream read: %w", err)
	}
	return acc.full, nil
}
