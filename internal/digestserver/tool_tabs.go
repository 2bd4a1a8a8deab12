package digestserver

import (
	"context"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_digest/internal/engine"
	"github.com/anatolykoptev/go_digest/internal/engine/sources"
)

type TabEventInput struct {
	TabID int64  `json:"tabId"`
	Event string `json:"event"` // activated, navigated, closed
	URL   string `json:"url,omitempty"`
}

type TabEventOutput struct {
	ActiveTab     int64 `json:"activeTab"`
	Invalidated   bool  `json:"invalidated,omitempty"`
	AutoSummarize bool  `json:"autoSummarize,omitempty"`
}

func registerTabEvent(server *mcp.Server, session *engine.Session) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "tab_event",
		Description: "Report a browser tab lifecycle event. 'activated' marks the tab as current (cancelling digests running for other tabs at their next checkpoint), 'navigated' invalidates the tab's cache when the video changed, 'closed' drops the tab's cache. Returns whether the client should auto-start a digest.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input TabEventInput) (*mcp.CallToolResult, *TabEventOutput, error) {
		if input.TabID == 0 {
			return nil, nil, errors.New("tabId is required")
		}
		tab := engine.TabID(input.TabID)
		out := &TabEventOutput{}

		switch input.Event {
		case "activated":
			session.SetActiveTab(tab)

		case "navigated":
			videoID := sources.VideoIDFromURL(input.URL)
			had := session.Restore(tab) != nil
			session.InvalidateOnNavigate(tab, videoID)
			out.Invalidated = had && session.Restore(tab) == nil
			if videoID != "" && session.ActiveTab() == tab {
				if settings, err := engine.LoadSettings(); err == nil && settings.AutoSummarize {
					out.AutoSummarize = true
				}
			}

		case "closed":
			session.Invalidate(tab)
			out.Invalidated = true

		default:
			return nil, nil, errors.New("unknown event: " + input.Event)
		}

		slog.Debug("tab event",
			slog.Int64("tab", input.TabID),
			slog.String("event", input.Event),
			slog.Bool("invalidated", out.Invalidated))

		out.ActiveTab = int64(session.ActiveTab())
		return nil, out, nil
	})
}
