package digestserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_digest/internal/engine"
	"github.com/anatolykoptev/go_digest/internal/engine/sources"
	"github.com/anatolykoptev/go_digest/internal/toolutil"
)

type VideoQuizInput struct {
	TabID          int64                 `json:"tabId"`
	Snapshot       *sources.PageSnapshot `json:"snapshot,omitempty"`
	OutputLanguage string                `json:"outputLanguage,omitempty"`
}

type VideoQuizOutput struct {
	VideoID string            `json:"videoId"`
	Title   string            `json:"title"`
	Items   []engine.QuizItem `json:"items"`
}

func registerVideoQuiz(server *mcp.Server, session *engine.Session) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_quiz",
		Description: "Generate a 3-question comprehension quiz for the video in a tab. Uses the tab's cached transcript when available; the snapshot is only needed when nothing is cached yet. The quiz is saved on the tab entry.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input VideoQuizInput) (*mcp.CallToolResult, *VideoQuizOutput, error) {
		uiLang := uiLanguage(input.OutputLanguage)
		if input.TabID == 0 {
			return nil, nil, userErr(engine.ErrNoActiveTab, uiLang)
		}
		tab := engine.TabID(input.TabID)

		data, err := cachedVideoData(ctx, session, tab, input.Snapshot)
		if err != nil {
			return nil, nil, userErr(err, uiLang)
		}

		settings, _ := engine.LoadSettings()
		selected := input.OutputLanguage
		if selected == "" {
			selected = settings.OutputLanguage
		}
		lang := engine.ResolveOutputLanguage(selected, data.Transcript.Language)

		items, err := generateQuiz(ctx, data, lang)
		if err != nil {
			return nil, nil, err
		}
		session.SetQuiz(tab, items)

		return nil, &VideoQuizOutput{
			VideoID: data.Metadata.VideoID,
			Title:   data.Metadata.Title,
			Items:   items,
		}, nil
	})
}

func generateQuiz(ctx context.Context, data *engine.AcquisitionResult, lang string) ([]engine.QuizItem, error) {
	text := engine.TruncateRunes(data.Transcript.FullText, engine.Cfg.PromptMaxChars, engine.Cfg.TruncationSuffix)
	langName := engine.LanguageName(lang)

	prompt := "Create exactly 3 comprehension questions about this video, each with a short answer." +
		"\nUse exactly this format, one line per entry:" +
		"\nQ1: <question>\nA1: <answer>\nQ2: <question>\nA2: <answer>\nQ3: <question>\nA3: <answer>" +
		"\nWrite questions and answers in " + langName + ".\n\n" +
		"Video: " + data.Metadata.Title +
		"\n\nTranscript:\n" + text

	raw, err := engine.Prompt(ctx, "You are a quiz generator. Always write in "+langName+".", prompt)
	if err != nil {
		return nil, err
	}

	items := toolutil.ParseQuiz(raw)
	if len(items) == 0 {
		return nil, errors.New("quiz generation produced no parseable questions")
	}
	if len(items) > 3 {
		items = items[:3]
	}
	return items, nil
}
