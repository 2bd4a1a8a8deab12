package sources

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_digest/internal/engine"
)

// Three-tier player data resolution. Each tier fills only the fields the
// previous tiers left empty, so chapter markers found in the page survive a
// tier-3 metadata refresh. Tier order is fixed: in-page state, watch page
// scrape, Innertube API.

// PlayerData is the merged resolution result.
type PlayerData struct {
	VideoID       string
	Title         string
	Author        string
	LengthSeconds int
	Tracks        []engine.CaptionTrack
	Markers       []ChapterMarker
}

// merge copies src fields into d where d has none. Never overwrites.
func (d *PlayerData) merge(src *PlayerData) {
	if d.Title == "" {
		d.Title = src.Title
	}
	if d.Author == "" {
		d.Author = src.Author
	}
	if d.LengthSeconds == 0 {
		d.LengthSeconds = src.LengthSeconds
	}
	if d.Tracks == nil {
		d.Tracks = src.Tracks
	}
	if d.Markers == nil {
		d.Markers = src.Markers
	}
}

// complete reports whether no further tier needs to run. Markers are not
// required: many videos legitimately have none.
func (d *PlayerData) complete() bool {
	return d.Title != "" && d.Tracks != nil
}

func fromPlayerResponse(videoID string, pr *playerResponse) *PlayerData {
	d := &PlayerData{VideoID: videoID}
	if pr.VideoDetails != nil {
		d.Title = pr.VideoDetails.Title
		d.Author = pr.VideoDetails.Author
		d.LengthSeconds = pr.lengthSeconds()
	}
	d.Tracks = pr.captionTracks()
	return d
}

// parsePlayerBlob parses one raw player response blob, rejecting data that
// belongs to a previously watched video. In-page globals survive YouTube's
// SPA navigation, so the blob's own videoId is the only trustworthy witness.
func parsePlayerBlob(raw, videoID string) *playerResponse {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var pr playerResponse
	if err := json.Unmarshal([]byte(raw), &pr); err != nil {
		return nil
	}
	if pr.VideoDetails == nil || pr.VideoDetails.VideoID != videoID {
		engine.IncrPlayerStaleDiscards()
		return nil
	}
	return &pr
}

// ResolvePlayerData resolves metadata, caption tracks, and chapter markers
// for the video the snapshot's URL points at. Returns engine.ErrNoPlayerData
// when all three tiers come up empty.
func ResolvePlayerData(ctx context.Context, snap *PageSnapshot, videoID string) (*PlayerData, error) {
	data := &PlayerData{VideoID: videoID}

	// Tier 1: state the client captured inside the page.
	for _, blob := range []string{snap.PlayerResponseJSON, snap.RawPlayerResponseJSON} {
		if pr := parsePlayerBlob(blob, videoID); pr != nil {
			data.merge(fromPlayerResponse(videoID, pr))
			engine.IncrPlayerTier1Hits()
			break
		}
	}
	if data.Markers == nil && snap.InitialDataJSON != "" {
		data.Markers = markersFromInitialData([]byte(snap.InitialDataJSON))
	}
	if data.complete() {
		return data, nil
	}

	// Tier 2: watch page HTML, from the snapshot when the client sent it,
	// refetched otherwise.
	html := []byte(snap.WatchHTML)
	if len(html) == 0 {
		fetched, err := fetchWatchHTML(ctx, videoID)
		if err != nil {
			slog.Warn("watch page fetch failed", slog.String("id", videoID), slog.Any("err", err))
		} else {
			html = fetched
		}
	}
	if len(html) > 0 {
		if blob := extractJSONVar(html, "ytInitialPlayerResponse"); blob != nil {
			if pr := parsePlayerBlob(string(blob), videoID); pr != nil {
				data.merge(fromPlayerResponse(videoID, pr))
				engine.IncrPlayerTier2Hits()
			}
		}
		if data.Markers == nil {
			if blob := extractJSONVar(html, "ytInitialData"); blob != nil {
				data.Markers = markersFromInitialData(blob)
			}
		}
		if data.Title == "" {
			data.Title = titleFromHTML(html)
		}
	}
	if data.complete() {
		return data, nil
	}

	// Tier 3: Innertube API. Metadata and tracks only, never markers.
	pr, err := postInnertubePlayer(ctx, videoID)
	if err != nil {
		slog.Warn("innertube player failed", slog.String("id", videoID), slog.Any("err", err))
	} else if pr.VideoDetails != nil || pr.Captions != nil {
		data.merge(fromPlayerResponse(videoID, pr))
		engine.IncrPlayerTier3Hits()
	}

	if data.Title == "" && data.Tracks == nil {
		return nil, engine.ErrNoPlayerData
	}
	return data, nil
}

// extractJSONVar extracts the JSON object assigned to a global variable in
// watch page HTML. Tries "var name = " then "name = ". The fast path scans
// for the "};" statement terminator and validates the slice; minified pages
// where that fails fall back to quote-aware balanced-brace scanning.
func extractJSONVar(html []byte, name string) []byte {
	start := -1
	for _, marker := range []string{"var " + name + " = ", name + " = "} {
		if idx := strings.Index(string(html), marker); idx >= 0 {
			start = idx + len(marker)
			break
		}
	}
	if start < 0 || start >= len(html) || html[start] != '{' {
		return nil
	}
	rest := html[start:]

	if end := strings.Index(string(rest), "};"); end >= 0 {
		candidate := rest[:end+1]
		if json.Valid(candidate) {
			return candidate
		}
	}
	return extractJSON(rest)
}

// extractJSON extracts a complete JSON object starting at b[0] == '{' by
// tracking brace depth outside of string literals.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}

// --- chapter markers from ytInitialData ---

type ytInitialData struct {
	PlayerOverlays *struct {
		PlayerOverlayRenderer struct {
			DecoratedPlayerBarRenderer struct {
				DecoratedPlayerBarRenderer struct {
					PlayerBar struct {
						MultiMarkersPlayerBarRenderer struct {
							MarkersMap []struct {
								Key   string `json:"key"`
								Value struct {
									Chapters []struct {
										ChapterRenderer *struct {
											Title struct {
												SimpleText string `json:"simpleText"`
											} `json:"title"`
											TimeRangeStartMillis int `json:"timeRangeStartMillis"`
										} `json:"chapterRenderer"`
									} `json:"chapters"`
								} `json:"value"`
							} `json:"markersMap"`
						} `json:"multiMarkersPlayerBarRenderer"`
					} `json:"playerBar"`
				} `json:"decoratedPlayerBarRenderer"`
			} `json:"decoratedPlayerBarRenderer"`
		} `json:"playerOverlayRenderer"`
	} `json:"playerOverlays"`
}

// markersFromInitialData walks the player overlay marker map for structured
// chapter markers. Nil when the video has none.
func markersFromInitialData(data []byte) []ChapterMarker {
	var id ytInitialData
	if err := json.Unmarshal(data, &id); err != nil || id.PlayerOverlays == nil {
		return nil
	}
	markersMap := id.PlayerOverlays.PlayerOverlayRenderer.
		DecoratedPlayerBarRenderer.DecoratedPlayerBarRenderer.
		PlayerBar.MultiMarkersPlayerBarRenderer.MarkersMap

	for _, entry := range markersMap {
		var markers []ChapterMarker
		for _, ch := range entry.Value.Chapters {
			if ch.ChapterRenderer == nil {
				continue
			}
			markers = append(markers, ChapterMarker{
				Title:   ch.ChapterRenderer.Title.SimpleText,
				StartMs: ch.ChapterRenderer.TimeRangeStartMillis,
			})
		}
		if len(markers) > 0 {
			return markers
		}
	}
	return nil
}
