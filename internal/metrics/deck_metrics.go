package metrics

import (
	"sync/atomic"
	"time"
)

// DeckMetrics tracks deck request latency and outcomes for one process.
type DeckMetrics struct {
	ChatLatency  *Histogram
	ParseLatency *Histogram

	SessionsCreated atomic.Uint64
	Requests        atomic.Uint64
	RequestErrors   atomic.Uint64
	BusyRejections  atomic.Uint64
	DecksExtracted  atomic.Uint64
	RepliesNoDeck   atomic.Uint64
	Unrecognized    atomic.Uint64
	PromptHits      atomic.Uint64
	PromptMisses    atomic.Uint64

	startTime atomic.Int64
}

// NewDeckMetrics creates a metrics collector.
func NewDeckMetrics() *DeckMetrics {
	m := &DeckMetrics{
		ChatLatency:  NewHistogram(DefaultWindow),
		ParseLatency: NewHistogram(DefaultWindow),
	}
	m.startTime.Store(time.Now().UnixNano())
	return m
}

// RecordReply records one processed reply: whether it yielded a deck and how many
// main-deck copies were not found in the catalog.
func (m *DeckMetrics) RecordReply(hasDeck bool, unrecognizedCopies int) {
	if hasDeck {
		m.DecksExtracted.Add(1)
	} else {
		m.RepliesNoDeck.Add(1)
	}
	if unrecognizedCopies > 0 {
		m.Unrecognized.Add(uint64(unrecognizedCopies))
	}
}

// RecordPromptCache records a lookup in the rendered card block cache.
func (m *DeckMetrics) RecordPromptCache(hit bool) {
	if hit {
		m.PromptHits.Add(1)
	} else {
		m.PromptMisses.Add(1)
	}
}

// DeckStats is a point-in-time snapshot of DeckMetrics.
type DeckStats struct {
	ChatLatency  LatencyStats `json:"chat_latency"`
	ParseLatency LatencyStats `json:"parse_latency"`

	SessionsCreated   uint64  `json:"sessions_created"`
	Requests          uint64  `json:"requests"`
	RequestErrors     uint64  `json:"request_errors"`
	BusyRejections    uint64  `json:"busy_rejections"`
	DecksExtracted    uint64  `json:"decks_extracted"`
	RepliesNoDeck     uint64  `json:"replies_without_deck"`
	UnrecognizedCards uint64  `json:"unrecognized_cards"`
	PromptCacheHits   uint64  `json:"prompt_cache_hits"`
	PromptCacheMisses uint64  `json:"prompt_cache_misses"`
	PromptCacheRate   float64 `json:"prompt_cache_hit_rate"` // percentage
	DeckRate          float64 `json:"deck_rate"`             // percentage of replies with a deck

	Uptime string `json:"uptime"`
}

// GetStats returns a snapshot of the current statistics.
func (m *DeckMetrics) GetStats() *DeckStats {
	stats := &DeckStats{
		ChatLatency:       m.ChatLatency.Summary(),
		ParseLatency:      m.ParseLatency.Summary(),
		SessionsCreated:   m.SessionsCreated.Load(),
		Requests:          m.Requests.Load(),
		RequestErrors:     m.RequestErrors.Load(),
		BusyRejections:    m.BusyRejections.Load(),
		DecksExtracted:    m.DecksExtracted.Load(),
		RepliesNoDeck:     m.RepliesNoDeck.Load(),
		UnrecognizedCards: m.Unrecognized.Load(),
		PromptCacheHits:   m.PromptHits.Load(),
		PromptCacheMisses: m.PromptMisses.Load(),
		Uptime:            time.Since(time.Unix(0, m.startTime.Load())).Round(time.Second).String(),
	}

	stats.PromptCacheRate = rate(stats.PromptCacheHits, stats.PromptCacheHits+stats.PromptCacheMisses)
	stats.DeckRate = rate(stats.DecksExtracted, stats.DecksExtracted+stats.RepliesNoDeck)
	return stats
}

// Reset clears all metrics.
func (m *DeckMetrics) Reset() {
	m.ChatLatency.Reset()
	m.ParseLatency.Reset()

	for _, c := range []*atomic.Uint64{
		&m.SessionsCreated, &m.Requests, &m.RequestErrors, &m.BusyRejections,
		&m.DecksExtracted, &m.RepliesNoDeck, &m.Unrecognized, &m.PromptHits, &m.PromptMisses,
	} {
		c.Store(0)
	}
	m.startTime.Store(time.Now().UnixNano())
}

func rate(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
