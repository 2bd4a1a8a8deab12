package sources

import (
	"testing"

	"github.com/anatolykoptev/go_digest/internal/engine"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"flat", `{"a":1} trailing`, `{"a":1}`},
		{"nested", `{"a":{"b":{"c":3}}}`, `{"a":{"b":{"c":3}}}`},
		{"brace in string", `{"a":"}"}`, `{"a":"}"}`},
		{"escaped quote in string", `{"a":"say \"}\" loud"}`, `{"a":"say \"}\" loud"}`},
		{"escaped backslash before quote", `{"a":"path\\"}`, `{"a":"path\\"}`},
		{"not an object", `[1,2,3]`, ""},
		{"unterminated", `{"a":1`, ""},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(extractJSON([]byte(tt.in)))
			if got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractJSONVar(t *testing.T) {
	t.Run("var declaration with terminator", func(t *testing.T) {
		html := []byte(`<script>var ytInitialPlayerResponse = {"videoDetails":{"videoId":"abc"}};var next = 1;</script>`)
		got := extractJSONVar(html, "ytInitialPlayerResponse")
		if string(got) != `{"videoDetails":{"videoId":"abc"}}` {
			t.Errorf("got %q", got)
		}
	})

	t.Run("bare assignment", func(t *testing.T) {
		html := []byte(`window.ytInitialData = {"a":1};`)
		got := extractJSONVar(html, "ytInitialData")
		if string(got) != `{"a":1}` {
			t.Errorf("got %q", got)
		}
	})

	t.Run("terminator inside string falls back to brace scan", func(t *testing.T) {
		// The first "};" occurrence sits inside a string literal, so the
		// strict slice is invalid JSON and the scanner must take over.
		html := []byte(`var ytInitialPlayerResponse = {"a":"x};y","b":2};`)
		got := extractJSONVar(html, "ytInitialPlayerResponse")
		if string(got) != `{"a":"x};y","b":2}` {
			t.Errorf("got %q", got)
		}
	})

	t.Run("missing variable", func(t *testing.T) {
		if got := extractJSONVar([]byte("<html></html>"), "ytInitialData"); got != nil {
			t.Errorf("got %q, want nil", got)
		}
	})

	t.Run("non-object value", func(t *testing.T) {
		if got := extractJSONVar([]byte(`var ytInitialData = null;`), "ytInitialData"); got != nil {
			t.Errorf("got %q, want nil", got)
		}
	})
}

func TestParsePlayerBlob(t *testing.T) {
	blob := `{"videoDetails":{"videoId":"dQw4w9WgXcQ","title":"Test","lengthSeconds":"212"}}`

	t.Run("matching video", func(t *testing.T) {
		pr := parsePlayerBlob(blob, "dQw4w9WgXcQ")
		if pr == nil {
			t.Fatal("got nil for matching blob")
		}
		if pr.VideoDetails.Title != "Test" || pr.lengthSeconds() != 212 {
			t.Errorf("parsed = %+v", pr.VideoDetails)
		}
	})

	t.Run("stale video discarded", func(t *testing.T) {
		if pr := parsePlayerBlob(blob, "otherVideo1"); pr != nil {
			t.Error("stale blob was not discarded")
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if pr := parsePlayerBlob("not json", "dQw4w9WgXcQ"); pr != nil {
			t.Error("garbage blob parsed")
		}
	})

	t.Run("empty", func(t *testing.T) {
		if pr := parsePlayerBlob("  ", "dQw4w9WgXcQ"); pr != nil {
			t.Error("empty blob parsed")
		}
	})
}

func TestPlayerDataMerge(t *testing.T) {
	d := &PlayerData{VideoID: "v", Title: "Kept", Markers: []ChapterMarker{{Title: "Intro"}}}
	d.merge(&PlayerData{
		Title:         "Replaced",
		Author:        "Channel",
		LengthSeconds: 100,
		Tracks:        []engine.CaptionTrack{{BaseURL: "u"}},
		Markers:       []ChapterMarker{{Title: "Other"}},
	})

	if d.Title != "Kept" {
		t.Errorf("Title = %q, earlier tier must win", d.Title)
	}
	if d.Author != "Channel" || d.LengthSeconds != 100 || len(d.Tracks) != 1 {
		t.Errorf("empty fields not filled: %+v", d)
	}
	if d.Markers[0].Title != "Intro" {
		t.Errorf("markers replaced by later tier: %+v", d.Markers)
	}
}

func TestMarkersFromInitialData(t *testing.T) {
	data := []byte(`{"playerOverlays":{"playerOverlayRenderer":{"decoratedPlayerBarRenderer":{"decoratedPlayerBarRenderer":{"playerBar":{"multiMarkersPlayerBarRenderer":{"markersMap":[{"key":"DESCRIPTION_CHAPTERS","value":{"chapters":[{"chapterRenderer":{"title":{"simpleText":"Intro"},"timeRangeStartMillis":0}},{"chapterRenderer":{"title":{"simpleText":"Main"},"timeRangeStartMillis":60000}}]}}]}}}}}}}`)

	markers := markersFromInitialData(data)
	if len(markers) != 2 {
		t.Fatalf("got %d markers, want 2", len(markers))
	}
	if markers[0].Title != "Intro" || markers[0].StartMs != 0 {
		t.Errorf("marker 0 = %+v", markers[0])
	}
	if markers[1].Title != "Main" || markers[1].StartMs != 60000 {
		t.Errorf("marker 1 = %+v", markers[1])
	}

	t.Run("no overlays", func(t *testing.T) {
		if m := markersFromInitialData([]byte(`{"contents":{}}`)); m != nil {
			t.Errorf("got %v, want nil", m)
		}
	})
}
