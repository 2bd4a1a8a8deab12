package engine

import "errors"

// Acquisition error taxonomy. Each of these is terminal for a single
// extraction attempt; retry policy belongs to the caller.
var (
	ErrNotWatchPage     = errors.New("not a YouTube watch page")
	ErrNoActiveTab      = errors.New("no active tab")
	ErrNoPlayerData     = errors.New("no player data from any tier")
	ErrNoSubtitles      = errors.New("no caption segments")
	ErrInjectionFailed  = errors.New("page content collaborator unreachable")
	ErrExtractionFailed = errors.New("transcript extraction failed")
)

// CaptionSegment is one timed text segment, ordered by StartMs in source order.
type CaptionSegment struct {
	StartMs    int    `json:"startMs"`
	DurationMs int    `json:"durationMs"`
	Text       string `json:"text"`
}

// CaptionTrack describes one language/style variant of timed text.
// Kind "asr" marks auto-generated tracks.
type CaptionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
	Name         string `json:"name,omitempty"`
}

// Chapter is a contiguous time window with its concatenated caption text.
// EndMs of chapter i equals StartMs of chapter i+1; the last chapter ends at
// the video duration, or -1 when the duration is unknown.
type Chapter struct {
	Title      string `json:"title,omitempty"`
	StartMs    int    `json:"startMs"`
	EndMs      int    `json:"endMs"`
	Text       string `json:"text"`
	StartLabel string `json:"startLabel"`
	EndLabel   string `json:"endLabel"`
}

// VideoMetadata is the assembled video identity block.
type VideoMetadata struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	LengthSeconds int    `json:"lengthSeconds"`
	VideoID       string `json:"videoId"`
}

// Transcript is the selected track's decoded text.
type Transcript struct {
	FullText        string `json:"fullText"`
	Language        string `json:"language"`
	IsAutoGenerated bool   `json:"isAutoGenerated"`
	CharCount       int    `json:"charCount"`
}

// AcquisitionResult is the complete output of one extraction: metadata,
// transcript and chapter windows. Handed off between pipeline stages, never
// shared mutably.
type AcquisitionResult struct {
	Metadata    VideoMetadata `json:"metadata"`
	Transcript  Transcript    `json:"transcript"`
	Chapters    []Chapter     `json:"chapters"`
	HasChapters bool          `json:"hasChapters"`
}

// DigestResult is the output of one summarization run. ChapterSummaries is
// index-aligned with AcquisitionResult.Chapters; TLDR and KeyPoints are empty
// when their phase failed or was skipped after a tab switch.
type DigestResult struct {
	TLDR             string   `json:"tldr,omitempty"`
	KeyPoints        string   `json:"keyPoints,omitempty"`
	ChapterSummaries []string `json:"chapterSummaries"`
}

// QuizItem is one generated comprehension question with its short answer.
type QuizItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ChatTurn is one user/assistant exchange in the per-tab chat snapshot.
type ChatTurn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
