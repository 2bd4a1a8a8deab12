package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_digest/internal/engine"
)

// YouTube Innertube API — constants, wire types, and low-level HTTP primitives.
// Higher-level resolution logic lives in youtube_player.go.

const (
	ytInnertubeURL = "https://www.youtube.com/youtubei/v1/player"
	ytWatchURL     = "https://www.youtube.com/watch?v="
	ytWebVersion   = "2.20250222.10.00"
)

// ytLimiter throttles all server-side requests against YouTube endpoints.
// One request per 500ms with a small burst keeps the three-tier cascade fast
// while staying under per-IP rate limits.
var ytLimiter = rate.NewLimiter(rate.Every(500*time.Millisecond), 3)

// --- /player request types (WEB client) ---

type innertubeReq struct {
	VideoID string       `json:"videoId"`
	Context innertubeCtx `json:"context"`
}

type innertubeCtx struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
	Hl            string `json:"hl,omitempty"`
}

// --- player response types (shared by all three tiers) ---

type playerResponse struct {
	VideoDetails *struct {
		VideoID       string `json:"videoId"`
		Title         string `json:"title"`
		Author        string `json:"author"`
		LengthSeconds string `json:"lengthSeconds"`
	} `json:"videoDetails"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []ytCaptionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

type ytCaptionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
	Name         *struct {
		SimpleText string `json:"simpleText"`
		Runs       []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"name"`
}

func (t ytCaptionTrack) toEngine() engine.CaptionTrack {
	name := ""
	if t.Name != nil {
		name = t.Name.SimpleText
		if name == "" && len(t.Name.Runs) > 0 {
			name = t.Name.Runs[0].Text
		}
	}
	return engine.CaptionTrack{
		BaseURL:      t.BaseURL,
		LanguageCode: t.LanguageCode,
		Kind:         t.Kind,
		Name:         name,
	}
}

// lengthSeconds parses the string-typed duration field; 0 when absent.
func (p *playerResponse) lengthSeconds() int {
	if p.VideoDetails == nil {
		return 0
	}
	n, err := strconv.Atoi(p.VideoDetails.LengthSeconds)
	if err != nil {
		return 0
	}
	return n
}

func (p *playerResponse) captionTracks() []engine.CaptionTrack {
	if p.Captions == nil {
		return nil
	}
	raw := p.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(raw) == 0 {
		return nil
	}
	tracks := make([]engine.CaptionTrack, 0, len(raw))
	for _, t := range raw {
		tracks = append(tracks, t.toEngine())
	}
	return tracks
}

// postInnertubePlayer POSTs to the Innertube /player endpoint with a WEB
// client context. Non-2xx responses are errors; the body must parse as JSON.
func postInnertubePlayer(ctx context.Context, videoID string) (*playerResponse, error) {
	if err := ytLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody, err := json.Marshal(innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:    "WEB",
				ClientVersion: ytWebVersion,
				Hl:            "en",
			},
		},
	})
	if err != nil {
		return nil, err
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ytInnertubeURL+"?prettyPrint=false", bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", engine.UserAgentChrome)
		req.Header.Set("X-Youtube-Client-Name", "1")
		req.Header.Set("X-Youtube-Client-Version", ytWebVersion)
		req.Header.Set("Origin", "https://www.youtube.com")
		req.Header.Set("Referer", "https://www.youtube.com/")
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("innertube player: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("innertube player HTTP %d: %s", resp.StatusCode, snippet)
	}

	var pr playerResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 3*1024*1024)).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}
	return &pr, nil
}

// fetchWatchHTML fetches the watch page for a video. Prefers the configured
// browser-TLS client; falls back to the shared HTTP client with a rotated
// desktop User-Agent.
func fetchWatchHTML(ctx context.Context, videoID string) ([]byte, error) {
	if err := ytLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	watchURL := ytWatchURL + videoID

	if bc := engine.Cfg.BrowserClient; bc != nil {
		body, _, status, err := bc.Do(http.MethodGet, watchURL, engine.ChromeHeaders(), nil)
		if err != nil {
			return nil, fmt.Errorf("watch page (browser client): %w", err)
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("watch page HTTP %d", status)
		}
		return body, nil
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.RandomUserAgent())
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(io.LimitReader(resp.Body, 6*1024*1024))
}
