package digestserver

import (
	"context"
	"regexp"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_digest/internal/engine"
	"github.com/anatolykoptev/go_digest/internal/toolutil"
)

type VideoExportInput struct {
	TabID int64 `json:"tabId"`
}

type VideoExportOutput struct {
	Filename string `json:"filename"`
	Markdown string `json:"markdown"`
}

func registerVideoExport(server *mcp.Server, session *engine.Session) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_export_markdown",
		Description: "Render the tab's cached digest as a markdown document: video metadata, TL;DR, key points, chapter summaries, and the per-chapter transcript. Requires a prior video_summarize or video_transcript on the tab.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input VideoExportInput) (*mcp.CallToolResult, *VideoExportOutput, error) {
		if input.TabID == 0 {
			return nil, nil, userErr(engine.ErrNoActiveTab, uiLanguage(""))
		}
		entry := session.Restore(engine.TabID(input.TabID))
		if entry == nil || entry.VideoData == nil {
			return nil, nil, userErr(engine.ErrExtractionFailed, uiLanguage(""))
		}

		return nil, &VideoExportOutput{
			Filename: exportFilename(entry.VideoData.Metadata.Title),
			Markdown: renderMarkdown(entry),
		}, nil
	})
}

func renderMarkdown(entry *engine.TabEntry) string {
	data := entry.VideoData
	var sb strings.Builder

	sb.WriteString("# ")
	sb.WriteString(data.Metadata.Title)
	sb.WriteString("\n\n")
	sb.WriteString("- URL: https://www.youtube.com/watch?v=" + data.Metadata.VideoID + "\n")
	if data.Metadata.Author != "" {
		sb.WriteString("- Channel: " + data.Metadata.Author + "\n")
	}
	if data.Metadata.LengthSeconds > 0 {
		sb.WriteString("- Duration: " + engine.FormatDuration(data.Metadata.LengthSeconds) + "\n")
	}

	if entry.TLDR != "" {
		sb.WriteString("\n## TL;DR\n\n")
		sb.WriteString(entry.TLDR)
		sb.WriteString("\n")
	}
	if entry.KeyPoints != "" {
		sb.WriteString("\n## Key Points\n\n")
		sb.WriteString(entry.KeyPoints)
		sb.WriteString("\n")
	}

	if len(entry.ChapterSummaries) > 0 {
		sb.WriteString("\n## Chapter Summaries\n")
		for i, summary := range entry.ChapterSummaries {
			if summary == "" || i >= len(data.Chapters) {
				continue
			}
			sb.WriteString("\n### " + toolutil.ChapterLabel(data.Chapters[i]) + "\n\n")
			sb.WriteString(summary)
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n## Transcript\n")
	for _, ch := range data.Chapters {
		if ch.Text == "" {
			continue
		}
		sb.WriteString("\n### " + toolutil.ChapterLabel(ch) + "\n\n")
		sb.WriteString(ch.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

var unsafeFilenameRe = regexp.MustCompile(`[^\p{L}\p{N} _.-]+`)

// exportFilename derives a filesystem-safe markdown filename from the title.
func exportFilename(title string) string {
	name := unsafeFilenameRe.ReplaceAllString(title, "")
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" {
		name = "video_digest"
	}
	if len(name) > 80 {
		name = name[:80]
	}
	return name + ".md"
}
