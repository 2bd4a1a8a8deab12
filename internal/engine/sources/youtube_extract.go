package sources

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/anatolykoptev/go_digest/internal/engine"
)

// Extraction coordinator. One call, one attempt: terminal failures surface as
// the engine error taxonomy and retry policy stays with the caller.

// VideoIDFromURL returns the video id of a YouTube watch URL, or "" for
// anything else (shorts, channel pages, other hosts).
func VideoIDFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if host != "youtube.com" && host != "m.youtube.com" {
		return ""
	}
	if u.Path != "/watch" {
		return ""
	}
	id := u.Query().Get("v")
	if len(id) != 11 {
		return ""
	}
	return id
}

// Extract runs the full acquisition for the page the snapshot describes:
// resolve player data, select a caption track, decode it, and segment the
// transcript into chapters.
func Extract(ctx context.Context, snap *PageSnapshot) (*engine.AcquisitionResult, error) {
	engine.IncrExtractRequests()

	videoID := VideoIDFromURL(snap.URL)
	if videoID == "" {
		return nil, engine.ErrNotWatchPage
	}

	data, err := ResolvePlayerData(ctx, snap, videoID)
	if err != nil {
		return nil, err
	}
	if len(data.Tracks) == 0 {
		return nil, engine.ErrNoSubtitles
	}

	track := pickTrack(data.Tracks)
	segments := fetchCaptions(ctx, track)
	if len(segments) == 0 {
		return nil, engine.ErrNoSubtitles
	}

	markers := data.Markers
	if len(markers) == 0 {
		markers = DescriptionMarkers(snap.DescriptionHTML)
	}
	chapters := SplitByChapters(segments, markers, data.LengthSeconds*1000)

	title := data.Title
	if title == "" {
		title = titleFromHTML([]byte(snap.WatchHTML))
	}

	var sb strings.Builder
	for _, seg := range segments {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(seg.Text)
	}
	fullText := sb.String()

	slog.Info("extracted transcript",
		slog.String("id", videoID),
		slog.String("lang", track.LanguageCode),
		slog.Int("segments", len(segments)),
		slog.Int("chapters", len(chapters)),
		slog.Bool("markers", len(markers) > 0))

	return &engine.AcquisitionResult{
		Metadata: engine.VideoMetadata{
			Title:         title,
			Author:        data.Author,
			LengthSeconds: data.LengthSeconds,
			VideoID:       videoID,
		},
		Transcript: engine.Transcript{
			FullText:        fullText,
			Language:        track.LanguageCode,
			IsAutoGenerated: track.Kind == "asr",
			CharCount:       utf8.RuneCountInString(fullText),
		},
		Chapters:    chapters,
		HasChapters: len(markers) > 0,
	}, nil
}

// titleFromHTML pulls the document <title> out of watch page HTML and strips
// YouTube's " - YouTube" suffix.
func titleFromHTML(pageHTML []byte) string {
	if len(pageHTML) == 0 {
		return ""
	}
	doc, err := html.Parse(bytes.NewReader(pageHTML))
	if err != nil {
		return ""
	}
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = n.FirstChild.Data
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	title = strings.TrimSuffix(strings.TrimSpace(title), " - YouTube")
	return strings.TrimSpace(title)
}
