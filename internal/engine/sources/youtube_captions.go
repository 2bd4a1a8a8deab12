package sources

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go_digest/internal/engine"
)

// Caption track selection and timedtext decoding. Three wire formats are
// tried in order (json3, srv1, srv3); a decode failure or a zero-segment
// result is a soft failure that moves on to the next format. Only after all
// formats fail does the caller see engine.ErrNoSubtitles.

// pickTrack selects the transcript source track: first manual track wins,
// otherwise the first track of any kind.
func pickTrack(tracks []engine.CaptionTrack) engine.CaptionTrack {
	for _, t := range tracks {
		if t.Kind != "asr" {
			return t
		}
	}
	return tracks[0]
}

// withFormat appends a fmt query parameter to a caption base URL.
func withFormat(baseURL, format string) string {
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return baseURL + sep + "fmt=" + format
}

// fetchCaptions downloads and decodes the track's timed text. Returns nil
// when every format variant fails.
func fetchCaptions(ctx context.Context, track engine.CaptionTrack) []engine.CaptionSegment {
	engine.IncrCaptionFetches()

	attempts := []struct {
		url      string
		decoders []func([]byte) []engine.CaptionSegment
	}{
		{withFormat(track.BaseURL, "json3"), []func([]byte) []engine.CaptionSegment{decodeJSON3}},
		{withFormat(track.BaseURL, "srv1"), []func([]byte) []engine.CaptionSegment{decodeSRV1}},
		{track.BaseURL, []func([]byte) []engine.CaptionSegment{decodeSRV3, decodeSRV1}},
	}
	for _, attempt := range attempts {
		body, err := fetchTimedText(ctx, attempt.url)
		if err != nil {
			slog.Debug("caption fetch failed", slog.String("url", attempt.url), slog.Any("err", err))
			continue
		}
		for _, decode := range attempt.decoders {
			if segs := decode(body); len(segs) > 0 {
				return segs
			}
		}
	}
	return nil
}

// fetchTimedText downloads one caption URL variant.
func fetchTimedText(ctx context.Context, captionURL string) ([]byte, error) {
	if err := ytLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, captionURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentChrome)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("timedtext HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
}

// --- json3: {"events":[{"tStartMs":0,"dDurationMs":1000,"segs":[{"utf8":"..."}]}]} ---

type json3Payload struct {
	Events []struct {
		TStartMs    int `json:"tStartMs"`
		DDurationMs int `json:"dDurationMs"`
		Segs        []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

func decodeJSON3(body []byte) []engine.CaptionSegment {
	var payload json3Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	var segments []engine.CaptionSegment
	for _, ev := range payload.Events {
		var sb strings.Builder
		for _, seg := range ev.Segs {
			sb.WriteString(seg.UTF8)
		}
		text := engine.NormalizeCaption(sb.String())
		if text == "" {
			continue
		}
		segments = append(segments, engine.CaptionSegment{
			StartMs:    ev.TStartMs,
			DurationMs: ev.DDurationMs,
			Text:       text,
		})
	}
	return segments
}

// --- srv1: <transcript><text start="1.2" dur="3.4">...</text></transcript> ---

type srv1Payload struct {
	XMLName xml.Name `xml:"transcript"`
	Lines   []struct {
		Start float64 `xml:"start,attr"`
		Dur   float64 `xml:"dur,attr"`
		Text  string  `xml:",chardata"`
	} `xml:"text"`
}

func decodeSRV1(body []byte) []engine.CaptionSegment {
	var payload srv1Payload
	if err := xml.Unmarshal(body, &payload); err != nil {
		return nil
	}
	var segments []engine.CaptionSegment
	for _, line := range payload.Lines {
		// srv1 double-encodes entities; the XML decoder handles the outer
		// layer, NormalizeCaption the inner one.
		text := engine.NormalizeCaption(line.Text)
		if text == "" {
			continue
		}
		segments = append(segments, engine.CaptionSegment{
			StartMs:    int(math.Round(line.Start * 1000)),
			DurationMs: int(math.Round(line.Dur * 1000)),
			Text:       text,
		})
	}
	return segments
}

// --- srv3: <timedtext><body><p t="1200" d="3400">...<s>word</s></p></body></timedtext> ---

type srv3Payload struct {
	XMLName xml.Name `xml:"timedtext"`
	Body    struct {
		Paragraphs []struct {
			T     int    `xml:"t,attr"`
			D     int    `xml:"d,attr"`
			Inner string `xml:",innerxml"`
		} `xml:"p"`
	} `xml:"body"`
}

func decodeSRV3(body []byte) []engine.CaptionSegment {
	var payload srv3Payload
	if err := xml.Unmarshal(body, &payload); err != nil {
		return nil
	}
	var segments []engine.CaptionSegment
	for _, p := range payload.Body.Paragraphs {
		// Word-level <s> children are flattened by stripping tags.
		text := engine.NormalizeCaption(engine.CleanHTML(p.Inner))
		if text == "" {
			continue
		}
		segments = append(segments, engine.CaptionSegment{
			StartMs:    p.T,
			DurationMs: p.D,
			Text:       text,
		})
	}
	return segments
}
