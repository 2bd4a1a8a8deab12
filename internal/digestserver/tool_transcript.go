package digestserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_digest/internal/engine"
	"github.com/anatolykoptev/go_digest/internal/engine/sources"
	"github.com/anatolykoptev/go_digest/internal/toolutil"
)

type VideoTranscriptInput struct {
	TabID    int64                 `json:"tabId"`
	Snapshot *sources.PageSnapshot `json:"snapshot"`
}

type TranscriptChapter struct {
	Label   string `json:"label"`
	StartMs int    `json:"startMs"`
	EndMs   int    `json:"endMs"`
	Text    string `json:"text"`
}

type VideoTranscriptOutput struct {
	Metadata        engine.VideoMetadata `json:"metadata"`
	FullText        string               `json:"fullText"`
	Language        string               `json:"language"`
	IsAutoGenerated bool                 `json:"isAutoGenerated"`
	CharCount       int                  `json:"charCount"`
	HasChapters     bool                 `json:"hasChapters"`
	Chapters        []TranscriptChapter  `json:"chapters"`
}

func registerVideoTranscript(server *mcp.Server, session *engine.Session) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_transcript",
		Description: "Extract the transcript of the YouTube video in a tab without summarizing: metadata, full text, language, and chapter windows. Caches the acquisition on the tab so later quiz/chat/export calls reuse it.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input VideoTranscriptInput) (*mcp.CallToolResult, *VideoTranscriptOutput, error) {
		if input.TabID == 0 {
			return nil, nil, userErr(engine.ErrNoActiveTab, uiLanguage(""))
		}

		data, err := extractWithRetry(ctx, input.Snapshot)
		if err != nil {
			return nil, nil, userErr(err, uiLanguage(""))
		}
		session.Entry(engine.TabID(input.TabID)).VideoData = data

		out := &VideoTranscriptOutput{
			Metadata:        data.Metadata,
			FullText:        data.Transcript.FullText,
			Language:        data.Transcript.Language,
			IsAutoGenerated: data.Transcript.IsAutoGenerated,
			CharCount:       data.Transcript.CharCount,
			HasChapters:     data.HasChapters,
		}
		for _, ch := range data.Chapters {
			out.Chapters = append(out.Chapters, TranscriptChapter{
				Label:   toolutil.ChapterLabel(ch),
				StartMs: ch.StartMs,
				EndMs:   ch.EndMs,
				Text:    ch.Text,
			})
		}
		return nil, out, nil
	})
}
