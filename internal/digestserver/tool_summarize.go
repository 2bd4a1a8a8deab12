package digestserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_digest/internal/engine"
	"github.com/anatolykoptev/go_digest/internal/engine/sources"
	"github.com/anatolykoptev/go_digest/internal/toolutil"
)

type VideoSummarizeInput struct {
	TabID          int64                 `json:"tabId"`
	Snapshot       *sources.PageSnapshot `json:"snapshot"`
	Force          bool                  `json:"force,omitempty"`
	SummaryLength  string                `json:"summaryLength,omitempty"`
	OutputLanguage string                `json:"outputLanguage,omitempty"`
}

type ChapterSummary struct {
	Label   string `json:"label"`
	StartMs int    `json:"startMs"`
	Summary string `json:"summary,omitempty"`
}

type VideoSummarizeOutput struct {
	VideoID    string           `json:"videoId"`
	Title      string           `json:"title"`
	TLDR       string           `json:"tldr,omitempty"`
	KeyPoints  string           `json:"keyPoints,omitempty"`
	Chapters   []ChapterSummary `json:"chapters"`
	Cached     bool             `json:"cached,omitempty"`
	Superseded bool             `json:"superseded,omitempty"`
}

func registerVideoSummarize(server *mcp.Server, session *engine.Session) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_summarize",
		Description: "Extract the transcript of the YouTube video in a tab and produce a hierarchical digest: per-chapter summaries, a TL;DR, and tagged key points. Serves the cached digest for the tab unless force is set. The snapshot carries the page-captured state (URL, player JSON, description HTML).",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input VideoSummarizeInput) (*mcp.CallToolResult, *VideoSummarizeOutput, error) {
		if input.TabID == 0 {
			return nil, nil, userErr(engine.ErrNoActiveTab, uiLanguage(input.OutputLanguage))
		}
		tab := engine.TabID(input.TabID)
		session.SetActiveTab(tab)

		settings, _ := engine.LoadSettings()
		length := input.SummaryLength
		if length == "" {
			length = settings.SummaryLength
		}
		selectedLang := toolutil.NormLang(input.OutputLanguage)
		if input.OutputLanguage == "" {
			selectedLang = settings.OutputLanguage
		}
		uiLang := uiLanguage(input.OutputLanguage)

		videoID := ""
		if input.Snapshot != nil {
			videoID = sources.VideoIDFromURL(input.Snapshot.URL)
		}
		if !input.Force && videoID != "" {
			if entry := session.Restore(tab); entry != nil && entry.VideoData != nil &&
				entry.VideoData.Metadata.VideoID == videoID && entry.TLDR != "" {
				return nil, summarizeOutput(entry.VideoData, &engine.DigestResult{
					TLDR:             entry.TLDR,
					KeyPoints:        entry.KeyPoints,
					ChapterSummaries: entry.ChapterSummaries,
				}, true, false), nil
			}
		}

		data, err := extractWithRetry(ctx, input.Snapshot)
		if err != nil {
			return nil, nil, userErr(err, uiLang)
		}

		var digest *engine.DigestResult
		err = engine.TrackOperation(ctx, "digest", func(ctx context.Context) error {
			var runErr error
			digest, runErr = engine.RunDigest(ctx, session, tab, data, engine.DigestOptions{
				OutputLanguage: engine.ResolveOutputLanguage(selectedLang, data.Transcript.Language),
				SummaryLength:  length,
			})
			return runErr
		})
		if errors.Is(err, engine.ErrRunSuperseded) {
			return nil, summarizeOutput(data, digest, false, true), nil
		}
		if err != nil {
			return nil, nil, userErr(err, uiLang)
		}
		return nil, summarizeOutput(data, digest, false, false), nil
	})
}

func summarizeOutput(data *engine.AcquisitionResult, digest *engine.DigestResult, cached, superseded bool) *VideoSummarizeOutput {
	out := &VideoSummarizeOutput{
		VideoID:    data.Metadata.VideoID,
		Title:      data.Metadata.Title,
		TLDR:       digest.TLDR,
		KeyPoints:  digest.KeyPoints,
		Cached:     cached,
		Superseded: superseded,
	}
	for i, ch := range data.Chapters {
		summary := ""
		if i < len(digest.ChapterSummaries) {
			summary = digest.ChapterSummaries[i]
		}
		out.Chapters = append(out.Chapters, ChapterSummary{
			Label:   toolutil.ChapterLabel(ch),
			StartMs: ch.StartMs,
			Summary: summary,
		})
	}
	return out
}
