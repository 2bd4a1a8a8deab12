package sources

import (
	"testing"

	"github.com/anatolykoptev/go_digest/internal/engine"
)

func TestMain(m *testing.M) {
	engine.Init(engine.Config{
		MinChapterChars:  50,
		ChunkSize:        3000,
		PromptMaxChars:   4000,
		TruncationSuffix: "\n\n[Text truncated for summarization]",
		ChapterWindowMs:  150000,
	})
	m.Run()
}

func segs(starts ...int) []engine.CaptionSegment {
	out := make([]engine.CaptionSegment, 0, len(starts))
	for i, s := range starts {
		out = append(out, engine.CaptionSegment{StartMs: s, DurationMs: 1000, Text: "s" + string(rune('a'+i))})
	}
	return out
}

func TestSplitByChaptersMarkers(t *testing.T) {
	segments := segs(0, 50000, 100000, 200000)
	markers := []ChapterMarker{
		{Title: "Intro", StartMs: 0},
		{Title: "Middle", StartMs: 100000},
		{Title: "End", StartMs: 190000},
	}

	chapters := SplitByChapters(segments, markers, 240000)
	if len(chapters) != 3 {
		t.Fatalf("got %d chapters, want 3", len(chapters))
	}

	t.Run("boundaries are contiguous", func(t *testing.T) {
		for i := 0; i < len(chapters)-1; i++ {
			if chapters[i].EndMs != chapters[i+1].StartMs {
				t.Errorf("chapter %d ends at %d, next starts at %d", i, chapters[i].EndMs, chapters[i+1].StartMs)
			}
		}
		if chapters[2].EndMs != 240000 {
			t.Errorf("last chapter ends at %d, want 240000", chapters[2].EndMs)
		}
	})

	t.Run("half-open membership", func(t *testing.T) {
		// Segment at 100000 belongs to the chapter starting there, not the
		// one ending there.
		if chapters[0].Text != "sa sb" {
			t.Errorf("chapter 0 text = %q", chapters[0].Text)
		}
		if chapters[1].Text != "sc" {
			t.Errorf("chapter 1 text = %q", chapters[1].Text)
		}
		if chapters[2].Text != "sd" {
			t.Errorf("chapter 2 text = %q", chapters[2].Text)
		}
	})

	t.Run("labels", func(t *testing.T) {
		if chapters[0].StartLabel != "0:00" || chapters[0].EndLabel != "1:40" {
			t.Errorf("chapter 0 labels = %q..%q", chapters[0].StartLabel, chapters[0].EndLabel)
		}
	})
}

func TestSplitByChaptersEmptyMarkerChapterKept(t *testing.T) {
	segments := segs(0, 5000)
	markers := []ChapterMarker{
		{Title: "Has text", StartMs: 0},
		{Title: "Silent", StartMs: 60000},
	}
	chapters := SplitByChapters(segments, markers, 120000)
	if len(chapters) != 2 {
		t.Fatalf("got %d chapters, want 2", len(chapters))
	}
	if chapters[1].Text != "" {
		t.Errorf("silent chapter text = %q, want empty", chapters[1].Text)
	}
	if chapters[1].Title != "Silent" {
		t.Errorf("silent chapter title = %q", chapters[1].Title)
	}
}

func TestSplitByChaptersUnknownDuration(t *testing.T) {
	segments := segs(0, 30000)
	markers := []ChapterMarker{{Title: "Only", StartMs: 0}}

	chapters := SplitByChapters(segments, markers, 0)
	if len(chapters) != 1 {
		t.Fatalf("got %d chapters, want 1", len(chapters))
	}
	// The last marker chapter stays open-ended; all segments fall into it.
	if chapters[0].EndMs != -1 {
		t.Errorf("EndMs = %d, want -1", chapters[0].EndMs)
	}
	if chapters[0].EndLabel != "" {
		t.Errorf("EndLabel = %q, want empty", chapters[0].EndLabel)
	}
	if chapters[0].Text != "sa sb" {
		t.Errorf("text = %q", chapters[0].Text)
	}
}

func TestTimeChunks(t *testing.T) {
	t.Run("splits at window boundary", func(t *testing.T) {
		segments := segs(0, 100000, 160000)
		chapters := SplitByChapters(segments, nil, 300000)
		if len(chapters) != 2 {
			t.Fatalf("got %d chapters, want 2", len(chapters))
		}
		if chapters[0].StartMs != 0 || chapters[0].EndMs != 150000 {
			t.Errorf("window 0 = [%d,%d)", chapters[0].StartMs, chapters[0].EndMs)
		}
		if chapters[1].StartMs != 150000 || chapters[1].EndMs != 300000 {
			t.Errorf("window 1 = [%d,%d)", chapters[1].StartMs, chapters[1].EndMs)
		}
		if chapters[0].Text != "sa sb" || chapters[1].Text != "sc" {
			t.Errorf("texts = %q / %q", chapters[0].Text, chapters[1].Text)
		}
	})

	t.Run("empty windows dropped", func(t *testing.T) {
		// All captions in the first window of a long video.
		segments := segs(0, 10000)
		chapters := SplitByChapters(segments, nil, 600000)
		if len(chapters) != 1 {
			t.Fatalf("got %d chapters, want 1", len(chapters))
		}
		if chapters[0].StartMs != 0 {
			t.Errorf("kept window starts at %d", chapters[0].StartMs)
		}
	})

	t.Run("no segments", func(t *testing.T) {
		if chapters := SplitByChapters(nil, nil, 300000); chapters != nil {
			t.Errorf("got %v, want nil", chapters)
		}
	})

	t.Run("unknown duration uses last segment", func(t *testing.T) {
		segments := segs(0, 155000)
		chapters := SplitByChapters(segments, nil, 0)
		// Effective duration 165000 spans two windows.
		if len(chapters) != 2 {
			t.Fatalf("got %d chapters, want 2", len(chapters))
		}
		if chapters[1].EndMs != 165000 {
			t.Errorf("last window ends at %d, want 165000", chapters[1].EndMs)
		}
	})
}

func TestDescriptionMarkers(t *testing.T) {
	tests := []struct {
		name string
		html string
		want int
	}{
		{
			name: "timestamp list",
			html: "<div id=\"description\">Chapters:<br>0:00 Intro<br>2:30 Setup<br>1:02:15 Deep dive</div>",
			want: 3,
		},
		{
			name: "single timestamp",
			html: "<div>0:15 Only one</div>",
			want: 1,
		},
		{
			name: "list not starting at zero",
			html: "<div>1:00 Late start<br>2:00 Second<br>3:00 Third</div>",
			want: 3,
		},
		{
			name: "no timestamps",
			html: "<div>Just a description with no chapters.</div>",
			want: 0,
		},
		{
			name: "empty",
			html: "",
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			markers := DescriptionMarkers(tt.html)
			if len(markers) != tt.want {
				t.Fatalf("got %d markers, want %d: %+v", len(markers), tt.want, markers)
			}
		})
	}

	t.Run("values", func(t *testing.T) {
		markers := DescriptionMarkers("<div>0:00 Intro<br>2:30 Setup<br>1:02:15 Deep dive</div>")
		if len(markers) != 3 {
			t.Fatalf("got %d markers", len(markers))
		}
		if markers[0].Title != "Intro" || markers[0].StartMs != 0 {
			t.Errorf("marker 0 = %+v", markers[0])
		}
		if markers[1].StartMs != 150000 {
			t.Errorf("marker 1 start = %d, want 150000", markers[1].StartMs)
		}
		if markers[2].StartMs != 3735000 || markers[2].Title != "Deep dive" {
			t.Errorf("marker 2 = %+v", markers[2])
		}
	})
}
