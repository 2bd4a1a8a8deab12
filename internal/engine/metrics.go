package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	ExtractRequests       atomic.Int64
	PlayerTier1Hits       atomic.Int64
	PlayerTier2Hits       atomic.Int64
	PlayerTier3Hits       atomic.Int64
	PlayerStaleDiscards   atomic.Int64
	CaptionFetches        atomic.Int64
	SummarizeCalls        atomic.Int64
	SummarizeErrors       atomic.Int64
	PromptCalls           atomic.Int64
	PromptErrors          atomic.Int64
	PipelineRuns          atomic.Int64
	PipelineCancellations atomic.Int64
	CacheHits             atomic.Int64
	CacheMisses           atomic.Int64
}

// GetMetrics returns a snapshot of all counters.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"extract_requests":       metrics.ExtractRequests.Load(),
		"player_tier1_hits":      metrics.PlayerTier1Hits.Load(),
		"player_tier2_hits":      metrics.PlayerTier2Hits.Load(),
		"player_tier3_hits":      metrics.PlayerTier3Hits.Load(),
		"player_stale_discards":  metrics.PlayerStaleDiscards.Load(),
		"caption_fetches":        metrics.CaptionFetches.Load(),
		"summarize_calls":        metrics.SummarizeCalls.Load(),
		"summarize_errors":       metrics.SummarizeErrors.Load(),
		"prompt_calls":           metrics.PromptCalls.Load(),
		"prompt_errors":          metrics.PromptErrors.Load(),
		"pipeline_runs":          metrics.PipelineRuns.Load(),
		"pipeline_cancellations": metrics.PipelineCancellations.Load(),
		"cache_hits":             metrics.CacheHits.Load(),
		"cache_misses":           metrics.CacheMisses.Load(),
	}
}

// FormatMetrics returns metrics as a simple text format for the HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"extract_requests",
		"player_tier1_hits", "player_tier2_hits", "player_tier3_hits",
		"player_stale_discards", "caption_fetches",
		"summarize_calls", "summarize_errors",
		"prompt_calls", "prompt_errors",
		"pipeline_runs", "pipeline_cancellations",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the sources/ sub-package.
func IncrExtractRequests()     { metrics.ExtractRequests.Add(1) }
func IncrPlayerTier1Hits()     { metrics.PlayerTier1Hits.Add(1) }
func IncrPlayerTier2Hits()     { metrics.PlayerTier2Hits.Add(1) }
func IncrPlayerTier3Hits()     { metrics.PlayerTier3Hits.Add(1) }
func IncrPlayerStaleDiscards() { metrics.PlayerStaleDiscards.Add(1) }
func IncrCaptionFetches()      { metrics.CaptionFetches.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
