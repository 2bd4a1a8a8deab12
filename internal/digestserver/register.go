// Package digestserver registers the go_digest MCP tool surface: transcript
// extraction, summarization, quiz, chat, markdown export, tab lifecycle
// events, and settings.
package digestserver

import (
	"context"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_digest/internal/engine"
	"github.com/anatolykoptev/go_digest/internal/engine/sources"
	"github.com/anatolykoptev/go_digest/internal/toolutil"
)

// RegisterTools registers all digest tools on the given MCP server. The
// session is shared across tools: it carries the active tab and the per-tab
// result cache.
func RegisterTools(server *mcp.Server, session *engine.Session) {
	registerVideoSummarize(server, session)
	registerVideoTranscript(server, session)
	registerVideoQuiz(server, session)
	registerVideoChat(server, session)
	registerVideoExport(server, session)
	registerTabEvent(server, session)
	registerSettings(server)
}

// uiLanguage picks the language for user-facing error text: the explicit
// override when given, else the persisted preference, else Japanese.
func uiLanguage(override string) string {
	if override != "" && override != "auto" {
		return override
	}
	settings, err := engine.LoadSettings()
	if err != nil {
		return "ja"
	}
	if settings.OutputLanguage == "auto" {
		return "ja"
	}
	return settings.OutputLanguage
}

// userErr converts an acquisition error into a tool error carrying the
// localized message.
func userErr(err error, lang string) error {
	return errors.New(toolutil.UserMessage(err, lang))
}

// extractWithRetry runs one extraction with a single bounded retry: when the
// in-page state the client captured turned out stale or unparseable, the
// second attempt drops it and forces the server-side tiers. A snapshot
// without a URL means the page could not be reached at all.
func extractWithRetry(ctx context.Context, snap *sources.PageSnapshot) (*engine.AcquisitionResult, error) {
	if snap == nil || snap.URL == "" {
		return nil, engine.ErrInjectionFailed
	}

	data, err := sources.Extract(ctx, snap)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, engine.ErrNoPlayerData) {
		return nil, err
	}
	if snap.PlayerResponseJSON == "" && snap.RawPlayerResponseJSON == "" {
		return nil, err
	}

	slog.Info("retrying extraction without in-page state", slog.String("url", snap.URL))
	retry := *snap
	retry.PlayerResponseJSON = ""
	retry.RawPlayerResponseJSON = ""
	return sources.Extract(ctx, &retry)
}

// cachedVideoData returns the tab's cached acquisition result when it still
// matches the video the snapshot points at; extracts otherwise and caches
// the fresh result on the tab entry.
func cachedVideoData(ctx context.Context, session *engine.Session, tab engine.TabID, snap *sources.PageSnapshot) (*engine.AcquisitionResult, error) {
	if entry := session.Restore(tab); entry != nil && entry.VideoData != nil {
		if snap == nil || snap.URL == "" ||
			sources.VideoIDFromURL(snap.URL) == entry.VideoData.Metadata.VideoID {
			return entry.VideoData, nil
		}
	}

	data, err := extractWithRetry(ctx, snap)
	if err != nil {
		return nil, err
	}
	session.Entry(tab).VideoData = data
	return data, nil
}
