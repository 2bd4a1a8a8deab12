package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anatolykoptev/go-kit/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupLLM points the engine at a fake OpenAI-compatible backend whose reply
// is computed from the incoming user prompt.
func setupLLM(t *testing.T, reply func(prompt string) string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		prompt := ""
		if len(req.Messages) > 0 {
			prompt = req.Messages[len(req.Messages)-1].Content
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{"content": reply(prompt)},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)

	Init(Config{
		LLMAPIKey:        "test",
		LLMAPIBase:       srv.URL,
		LLMModel:         "test-model",
		LLMClient:        llm.NewClient(srv.URL, "test", "test-model"),
		MinChapterChars:  50,
		ChunkSize:        3000,
		PromptMaxChars:   4000,
		TruncationSuffix: "\n\n[Text truncated for summarization]",
		ChapterWindowMs:  150000,
		HTTPClient:       srv.Client(),
	})
}

func testVideo() *AcquisitionResult {
	long := strings.Repeat("the speaker explains the idea in detail. ", 5)
	return &AcquisitionResult{
		Metadata: VideoMetadata{Title: "Test Video", VideoID: "vid00000001", LengthSeconds: 300},
		Transcript: Transcript{
			FullText: long + "short bit. " + long,
			Language: "en",
		},
		Chapters: []Chapter{
			{Title: "Intro", StartMs: 0, EndMs: 100000, Text: long},
			{Title: "Aside", StartMs: 100000, EndMs: 150000, Text: "short bit."},
			{Title: "Main", StartMs: 150000, EndMs: 300000, Text: long},
		},
		HasChapters: true,
	}
}

func TestRunDigest(t *testing.T) {
	setupLLM(t, func(prompt string) string {
		if strings.Contains(prompt, "importance tag") {
			return "- [重要度高] The central idea\n- [中] A supporting detail"
		}
		return "a concise summary"
	})

	session := NewSession()
	session.SetActiveTab(7)

	res, err := RunDigest(context.Background(), session, 7, testVideo(), DigestOptions{
		OutputLanguage: "ja",
		SummaryLength:  "medium",
	})
	require.NoError(t, err)

	require.Len(t, res.ChapterSummaries, 3)
	assert.Equal(t, "a concise summary", res.ChapterSummaries[0])
	assert.Empty(t, res.ChapterSummaries[1], "chapter below the minimum length must be skipped")
	assert.Equal(t, "a concise summary", res.ChapterSummaries[2])

	assert.Equal(t, "a concise summary", res.TLDR)
	assert.Equal(t, "- [HIGH] The central idea\n- [MEDIUM] A supporting detail", res.KeyPoints,
		"localized importance tags must be normalized")

	entry := session.Restore(7)
	require.NotNil(t, entry)
	require.NotNil(t, entry.VideoData)
	assert.Equal(t, res.TLDR, entry.TLDR)
	assert.Equal(t, res.KeyPoints, entry.KeyPoints)
	assert.Equal(t, res.ChapterSummaries, entry.ChapterSummaries)
}

func TestRunDigestSuperseded(t *testing.T) {
	setupLLM(t, func(string) string { return "partial summary" })

	session := NewSession()
	session.SetActiveTab(99) // a different tab is already active

	res, err := RunDigest(context.Background(), session, 7, testVideo(), DigestOptions{
		OutputLanguage: "en",
		SummaryLength:  "medium",
	})
	require.ErrorIs(t, err, ErrRunSuperseded)

	assert.Empty(t, res.TLDR)
	assert.Empty(t, res.KeyPoints)
	require.Len(t, res.ChapterSummaries, 3)
	assert.Equal(t, "partial summary", res.ChapterSummaries[0])

	// The partial result must still be restorable for the original tab.
	entry := session.Restore(7)
	require.NotNil(t, entry)
	assert.Empty(t, entry.TLDR)
	assert.Equal(t, res.ChapterSummaries, entry.ChapterSummaries)
}

func TestCombineSummaries(t *testing.T) {
	chapters := []Chapter{
		{Title: "Intro"},
		{},
		{Title: "End"},
	}
	got := combineSummaries(chapters, []string{"first", "second", ""})
	assert.Equal(t, "Intro: first\nPart 2: second\n", got)

	assert.Empty(t, combineSummaries(chapters, []string{"", "", ""}))
}

func TestRepairImportanceTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"japanese", "- [重要度高] A\n- [中程度] B\n- [低] C", "- [HIGH] A\n- [MEDIUM] B\n- [LOW] C"},
		{"spanish", "- [ALTA] A\n- [MEDIO] B\n- [baja] C", "- [HIGH] A\n- [MEDIUM] B\n- [LOW] C"},
		{"mixed case english", "- [High] A\n- [medium] B", "- [HIGH] A\n- [MEDIUM] B"},
		{"already canonical", "- [HIGH] A", "- [HIGH] A"},
		{"untagged untouched", "- plain point", "- plain point"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RepairImportanceTags(tt.in))
		})
	}
}
