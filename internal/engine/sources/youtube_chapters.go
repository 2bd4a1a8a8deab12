package sources

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"

	"github.com/anatolykoptev/go_digest/internal/engine"
)

// Chapter marker sources and transcript segmentation. Marker precedence:
// structured player bar markers, then timestamps parsed out of the video
// description. Without any markers the transcript is cut into fixed time
// windows.

// ChapterMarker is one chapter boundary: where it starts and what it is
// called. The end is implied by the next marker or the video duration.
type ChapterMarker struct {
	Title   string
	StartMs int
}

// SplitByChapters distributes caption segments into chapters. Membership is
// half-open: a segment belongs to the chapter whose [start, end) window
// contains its start time. Marker chapters are kept even when empty; fixed
// windows without a single segment are dropped. durationMs <= 0 means the
// duration is unknown.
func SplitByChapters(segments []engine.CaptionSegment, markers []ChapterMarker, durationMs int) []engine.Chapter {
	if len(markers) == 0 {
		// Fixed windows need a concrete end; last segment start + 10s
		// stands in for a missing duration.
		endMs := durationMs
		if endMs <= 0 && len(segments) > 0 {
			endMs = segments[len(segments)-1].StartMs + 10000
		}
		return timeChunks(segments, endMs)
	}

	chapters := make([]engine.Chapter, 0, len(markers))
	for i, marker := range markers {
		end := durationMs
		if i+1 < len(markers) {
			end = markers[i+1].StartMs
		} else if end <= 0 {
			end = -1
		}
		chapters = append(chapters, buildChapter(segments, marker.Title, marker.StartMs, end))
	}
	return chapters
}

// timeChunks cuts the transcript into fixed windows of cfg.ChapterWindowMs.
// Windows with no segments are dropped, so sparse captions never produce a
// run of empty chapters.
func timeChunks(segments []engine.CaptionSegment, durationMs int) []engine.Chapter {
	if len(segments) == 0 || durationMs <= 0 {
		return nil
	}
	window := engine.Cfg.ChapterWindowMs
	var chapters []engine.Chapter
	for start := 0; start < durationMs; start += window {
		end := start + window
		if end > durationMs {
			end = durationMs
		}
		ch := buildChapter(segments, "", start, end)
		if ch.Text == "" {
			continue
		}
		chapters = append(chapters, ch)
	}
	return chapters
}

// buildChapter collects segments with start times in [startMs, endMs) and
// joins their text. endMs == -1 means "until the end".
func buildChapter(segments []engine.CaptionSegment, title string, startMs, endMs int) engine.Chapter {
	var sb strings.Builder
	for _, seg := range segments {
		if seg.StartMs < startMs {
			continue
		}
		if endMs >= 0 && seg.StartMs >= endMs {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(seg.Text)
	}
	endLabel := ""
	if endMs >= 0 {
		endLabel = engine.FormatTimestamp(endMs)
	}
	return engine.Chapter{
		Title:      title,
		StartMs:    startMs,
		EndMs:      endMs,
		Text:       sb.String(),
		StartLabel: engine.FormatTimestamp(startMs),
		EndLabel:   endLabel,
	}
}

// descTimestampRe matches a "(H:)MM:SS title" line at the start of a
// description line.
var descTimestampRe = regexp.MustCompile(`^(?:(\d{1,2}):)?(\d{1,2}):(\d{2})\s+(.+)$`)

// DescriptionMarkers parses chapter timestamps out of the description panel
// HTML. The panel is reduced to plain text first so anchor markup around the
// timestamps does not break line matching. Every matching line becomes a
// marker; nil when none match.
func DescriptionMarkers(descriptionHTML string) []ChapterMarker {
	if strings.TrimSpace(descriptionHTML) == "" {
		return nil
	}

	text, err := htmltomarkdown.ConvertString(descriptionNode(descriptionHTML))
	if err != nil {
		slog.Debug("description conversion failed", slog.Any("err", err))
		return nil
	}

	var markers []ChapterMarker
	for _, line := range strings.Split(text, "\n") {
		m := descTimestampRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		hours := 0
		if m[1] != "" {
			hours, _ = strconv.Atoi(m[1])
		}
		minutes, _ := strconv.Atoi(m[2])
		seconds, _ := strconv.Atoi(m[3])
		markers = append(markers, ChapterMarker{
			Title:   strings.TrimSpace(m[4]),
			StartMs: (hours*3600 + minutes*60 + seconds) * 1000,
		})
	}
	return markers
}

// descriptionNode narrows a snapshot's description HTML to the expanded
// description container when one is present, else returns the input as-is.
func descriptionNode(descriptionHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(descriptionHTML))
	if err != nil {
		return descriptionHTML
	}
	sel := doc.Find("#description-inline-expander, #description").First()
	if sel.Length() == 0 {
		return descriptionHTML
	}
	inner, err := goquery.OuterHtml(sel)
	if err != nil || inner == "" {
		return descriptionHTML
	}
	return inner
}
