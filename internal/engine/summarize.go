package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Hierarchical summarization pipeline. Phases run strictly in order:
// per-chapter summaries, combine, TL;DR, key points. Cancellation is
// cooperative: the run captures its tab once at start and compares it with
// the session's live active tab only at the two checkpoints; an in-flight
// backend call always finishes. A superseded run still persists what it
// produced to the session cache for later restoration.

// ErrRunSuperseded reports that the active tab changed mid-run; the partial
// result was cached and no further phases executed.
var ErrRunSuperseded = errors.New("digest run superseded by tab switch")

// DigestOptions configures one pipeline run.
type DigestOptions struct {
	OutputLanguage string // resolved code: ja, en, es
	SummaryLength  string // short, medium, long
}

// RunDigest executes the full pipeline over an acquisition result for the
// given tab. Per-chapter and per-field backend failures are absorbed locally;
// only ErrRunSuperseded interrupts the run.
func RunDigest(ctx context.Context, session *Session, tabID TabID, data *AcquisitionResult, opts DigestOptions) (*DigestResult, error) {
	metrics.PipelineRuns.Add(1)
	sharedContext := "Video: " + data.Metadata.Title

	// Phase 1: summarize each chapter, strictly in list order. The output
	// slice stays index-aligned with data.Chapters; short chapters get "".
	summaries := make([]string, 0, len(data.Chapters))
	for i, chapter := range data.Chapters {
		if len(chapter.Text) < cfg.MinChapterChars {
			summaries = append(summaries, "")
			continue
		}
		slog.Debug("summarizing chapter",
			slog.Int("index", i+1), slog.Int("total", len(data.Chapters)),
			slog.String("title", chapter.Title))
		summaries = append(summaries, summarizeChapter(ctx, chapter.Text, sharedContext, opts.OutputLanguage))
	}

	res := &DigestResult{ChapterSummaries: summaries}

	// Checkpoint: a tab switch cancels the run but keeps its work restorable.
	if session.ActiveTab() != tabID {
		metrics.PipelineCancellations.Add(1)
		session.Save(tabID, &TabEntry{VideoData: data, ChapterSummaries: summaries})
		return res, ErrRunSuperseded
	}

	// Phase 2: combine chapter summaries; raw transcript when none exist.
	combined := combineSummaries(data.Chapters, summaries)
	if strings.TrimSpace(combined) == "" {
		combined = data.Transcript.FullText
	}

	if session.ActiveTab() != tabID {
		metrics.PipelineCancellations.Add(1)
		session.Save(tabID, &TabEntry{VideoData: data, ChapterSummaries: summaries})
		return res, ErrRunSuperseded
	}

	// Phase 3: TL;DR over the combined text. Failure leaves the field empty.
	tldr, err := summarizeWithShrink(ctx, combined, SummarizeOptions{
		Mode:           ModeTLDR,
		Length:         opts.SummaryLength,
		OutputLanguage: opts.OutputLanguage,
		SharedContext:  sharedContext,
	})
	if err != nil {
		slog.Warn("tldr generation failed", slog.Any("err", err))
	}
	res.TLDR = tldr

	// Phase 4: key points, prompt capability first for importance tags.
	res.KeyPoints = generateKeyPoints(ctx, combined, sharedContext, opts)

	// Persist keyed by the tab the run started on, which is not necessarily
	// the tab that is active now.
	session.Save(tabID, &TabEntry{
		VideoData:        data,
		TLDR:             res.TLDR,
		KeyPoints:        res.KeyPoints,
		ChapterSummaries: summaries,
	})
	return res, nil
}

// summarizeChapter produces a short chapter summary. A too-large rejection is
// retried once with the text truncated to the chunk budget; any other failure
// yields an empty summary so one bad chapter never aborts the run.
func summarizeChapter(ctx context.Context, text, sharedContext, lang string) string {
	opts := SummarizeOptions{
		Mode:           ModeTLDR,
		Length:         "short",
		OutputLanguage: lang,
		SharedContext:  sharedContext,
	}
	attempts := []string{text}
	if shorter := TruncateRunes(text, cfg.ChunkSize, cfg.TruncationSuffix); shorter != text {
		attempts = append(attempts, shorter)
	}
	for i, attempt := range attempts {
		summary, err := Summarize(ctx, attempt, opts)
		if err == nil {
			return summary
		}
		if errors.Is(err, ErrInputTooLarge) && i < len(attempts)-1 {
			continue
		}
		slog.Warn("chapter summarization failed", slog.Any("err", err))
		return ""
	}
	return ""
}

// combineSummaries builds the "<label>: <summary>" combined text from the
// non-empty chapter summaries.
func combineSummaries(chapters []Chapter, summaries []string) string {
	var sb strings.Builder
	for i, summary := range summaries {
		if summary == "" {
			continue
		}
		label := chapters[i].Title
		if label == "" {
			label = fmt.Sprintf("Part %d", i+1)
		}
		sb.WriteString(label)
		sb.WriteString(": ")
		sb.WriteString(summary)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// summarizeWithShrink retries a too-large summarize call with progressively
// smaller prefixes (half, then quarter) before giving up.
func summarizeWithShrink(ctx context.Context, text string, opts SummarizeOptions) (string, error) {
	runes := utf8.RuneCountInString(text)
	attempts := []string{text}
	if runes > 6000 {
		attempts = append(attempts, TruncateRunes(text, runes/2, cfg.TruncationSuffix))
	}
	if runes > 3000 {
		attempts = append(attempts, TruncateRunes(text, runes/4, cfg.TruncationSuffix))
	}
	var lastErr error
	for i, attempt := range attempts {
		summary, err := Summarize(ctx, attempt, opts)
		if err == nil {
			return summary, nil
		}
		lastErr = err
		if errors.Is(err, ErrInputTooLarge) && i < len(attempts)-1 {
			continue
		}
		break
	}
	return "", lastErr
}

// generateKeyPoints prefers the prompt capability, which can tag each bullet
// with an importance marker; on any prompt failure it falls back to the
// backend's structured key-points mode (no tags there).
func generateKeyPoints(ctx context.Context, combined, sharedContext string, opts DigestOptions) string {
	langName := LanguageName(opts.OutputLanguage)
	text := TruncateRunes(combined, cfg.PromptMaxChars, cfg.TruncationSuffix)
	prompt := "Summarize the following video content as key points (3-7 bullet points)." +
		"\nEach bullet MUST start with an importance tag: [HIGH], [MEDIUM], or [LOW]." +
		"\nFormat: - [HIGH] Most important point here" +
		"\nWrite your response in " + langName + ".\n\n" +
		sharedContext +
		"\n\nContent:\n" + text

	raw, err := Prompt(ctx, "You are a summarization assistant. Always write in "+langName+".", prompt)
	if err == nil {
		return RepairImportanceTags(raw)
	}
	slog.Warn("prompt key points failed, falling back to summarizer", slog.Any("err", err))

	fallback, err := Summarize(ctx, combined, SummarizeOptions{
		Mode:           ModeKeyPoints,
		Length:         opts.SummaryLength,
		OutputLanguage: opts.OutputLanguage,
		SharedContext:  sharedContext,
	})
	if err != nil {
		slog.Warn("key points generation failed", slog.Any("err", err))
		return ""
	}
	return fallback
}

// Localized importance markers the backend may emit despite the prompt asking
// for English tags. Normalized back to canonical tokens before rendering.
var (
	tagHighRe   = regexp.MustCompile(`(?i)\[(?:高|高い|ハイ|重要|重要度高|High|ALTO|ALTA)\]`)
	tagMediumRe = regexp.MustCompile(`(?i)\[(?:中|中程度|ミディアム|標準|重要度中|Medium|MEDIO|MEDIA)\]`)
	tagLowRe    = regexp.MustCompile(`(?i)\[(?:低|低い|ロー|重要度低|Low|BAJO|BAJA)\]`)
)

// RepairImportanceTags rewrites localized importance tags to the canonical
// [HIGH]/[MEDIUM]/[LOW] tokens.
func RepairImportanceTags(text string) string {
	text = tagHighRe.ReplaceAllString(text, "[HIGH]")
	text = tagMediumRe.ReplaceAllString(text, "[MEDIUM]")
	text = tagLowRe.ReplaceAllString(text, "[LOW]")
	return text
}
