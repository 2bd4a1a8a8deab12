package digestserver

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_digest/internal/engine"
	"github.com/anatolykoptev/go_digest/internal/engine/sources"
)

type VideoChatInput struct {
	TabID          int64                 `json:"tabId"`
	Question       string                `json:"question"`
	Snapshot       *sources.PageSnapshot `json:"snapshot,omitempty"`
	OutputLanguage string                `json:"outputLanguage,omitempty"`
}

type VideoChatOutput struct {
	Answer string `json:"answer"`
}

func registerVideoChat(server *mcp.Server, session *engine.Session) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_chat",
		Description: "Answer a free-form question about the video in a tab via the streaming prompt capability. The context includes the video title, the cached TL;DR and key points when the tab has them, and a transcript excerpt. Each exchange is appended to the tab's chat history.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input VideoChatInput) (*mcp.CallToolResult, *VideoChatOutput, error) {
		uiLang := uiLanguage(input.OutputLanguage)
		if input.TabID == 0 {
			return nil, nil, userErr(engine.ErrNoActiveTab, uiLang)
		}
		if strings.TrimSpace(input.Question) == "" {
			return nil, nil, errors.New("question is required")
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

		system := "You answer questions about a video using its transcript. Always answer in " +
			engine.LanguageName(lang) + ". If the transcript does not cover the question, say so."
		prompt := chatContext(session.Restore(tab), data) + "\n\nQuestion: " + input.Question

		// Streamed deltas go out as progress notifications; panels without a
		// progress token just get the final answer.
		onUpdate := func(full string) {
			if req == nil {
				return
			}
			token := req.Params.GetProgressToken()
			if token == nil {
				return
			}
			err := req.Session.NotifyProgress(ctx, &mcp.ProgressNotificationParams{
				ProgressToken: token,
				Message:       full,
			})
			if err != nil {
				slog.Debug("chat progress notify failed", slog.Any("err", err))
			}
		}

		answer, err := engine.PromptStream(ctx, system, prompt, onUpdate)
		if err != nil {
			return nil, nil, err
		}

		session.AppendChat(tab, engine.ChatTurn{Question: input.Question, Answer: answer})
		return nil, &VideoChatOutput{Answer: answer}, nil
	})
}

// chatContext assembles the grounding block for a chat question: title,
// cached digest fields, then a transcript excerpt within the prompt budget.
func chatContext(entry *engine.TabEntry, data *engine.AcquisitionResult) string {
	var sb strings.Builder
	sb.WriteString("Video: ")
	sb.WriteString(data.Metadata.Title)

	if entry != nil {
		if entry.TLDR != "" {
			sb.WriteString("\n\nSummary:\n")
			sb.WriteString(entry.TLDR)
		}
		if entry.KeyPoints != "" {
			sb.WriteString("\n\nKey points:\n")
			sb.WriteString(entry.KeyPoints)
		}
	}

	text := engine.TruncateRunes(data.Transcript.FullText, engine.Cfg.PromptMaxChars, engine.Cfg.TruncationSuffix)
	sb.WriteString("\n\nTranscript:\n")
	sb.WriteString(text)
	return sb.String()
}
