// Package toolutil provides shared helper functions for go_digest MCP tools:
// localized user-facing error messages and small parsing helpers the tool
// layer shares.
package toolutil

import (
	"errors"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_digest/internal/engine"
)

// NormLang normalises a language field: empty string → "auto".
func NormLang(lang string) string {
	if lang == "" {
		return "auto"
	}
	return lang
}

// userMessages maps acquisition errors to user-facing text per language.
var userMessages = map[string]map[error]string{
	"ja": {
		engine.ErrNotWatchPage:     "YouTubeの動画ページを開いてください",
		engine.ErrNoActiveTab:      "アクティブなタブがありません",
		engine.ErrNoPlayerData:     "動画データを取得できませんでした",
		engine.ErrNoSubtitles:      "この動画には字幕がありません",
		engine.ErrInjectionFailed:  "ページに接続できませんでした。ページを再読み込みしてください",
		engine.ErrExtractionFailed: "文字起こしの取得に失敗しました",
	},
	"en": {
		engine.ErrNotWatchPage:     "Open a YouTube video page first",
		engine.ErrNoActiveTab:      "No active tab",
		engine.ErrNoPlayerData:     "Could not load video data",
		engine.ErrNoSubtitles:      "This video has no captions",
		engine.ErrInjectionFailed:  "Could not reach the page. Reload it and try again",
		engine.ErrExtractionFailed: "Transcript extraction failed",
	},
	"es": {
		engine.ErrNotWatchPage:     "Abre primero una página de video de YouTube",
		engine.ErrNoActiveTab:      "No hay pestaña activa",
		engine.ErrNoPlayerData:     "No se pudieron cargar los datos del video",
		engine.ErrNoSubtitles:      "Este video no tiene subtítulos",
		engine.ErrInjectionFailed:  "No se pudo acceder a la página. Recárgala e inténtalo de nuevo",
		engine.ErrExtractionFailed: "No se pudo extraer la transcripción",
	},
}

// UserMessage maps an acquisition error to a localized message. Unknown
// errors and unknown languages fall back to the English technical text.
func UserMessage(err error, lang string) string {
	msgs, ok := userMessages[lang]
	if !ok {
		msgs = userMessages["en"]
	}
	for sentinel, msg := range msgs {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	if msg, ok := userMessages["en"][err]; ok {
		return msg
	}
	return err.Error()
}

// quizLineRe matches "Q1: ..." / "A1: ..." lines, tolerating list bullets
// and bold markers the model sometimes adds.
var quizLineRe = regexp.MustCompile(`^[-*\s]*\**([QA])(\d+)[:：]\**\s*(.+)$`)

// ParseQuiz parses the Q1:/A1: line format into question/answer pairs.
// Unpaired questions are dropped.
func ParseQuiz(text string) []engine.QuizItem {
	questions := map[string]string{}
	answers := map[string]string{}
	order := []string{}

	for _, line := range strings.Split(text, "\n") {
		m := quizLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		body := strings.TrimSpace(strings.TrimSuffix(m[3], "**"))
		switch m[1] {
		case "Q":
			if _, seen := questions[m[2]]; !seen {
				order = append(order, m[2])
			}
			questions[m[2]] = body
		case "A":
			answers[m[2]] = body
		}
	}

	var items []engine.QuizItem
	for _, n := range order {
		q, a := questions[n], answers[n]
		if q == "" || a == "" {
			continue
		}
		items = append(items, engine.QuizItem{Question: q, Answer: a})
	}
	return items
}

// ChapterLabel is the display label for a chapter: its title when it has one,
// else its time range.
func ChapterLabel(ch engine.Chapter) string {
	if ch.Title != "" {
		return ch.Title
	}
	if ch.EndLabel != "" {
		return ch.StartLabel + " - " + ch.EndLabel
	}
	return ch.StartLabel
}
