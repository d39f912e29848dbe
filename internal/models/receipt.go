package models

import "time"

// SavedReceipt describes a receipt persisted for later download.
type SavedReceipt struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
	Pages       int       `json:"pages"`
}

// MetricsSnapshot is a lightweight summary of the console's instrumentation.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	UpstreamCalls            uint64    `json:"upstream_calls"`
	UpstreamFailures         uint64    `json:"upstream_failures"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	ReceiptsRendered         uint64    `json:"receipts_rendered"`
	ReceiptsFailed           uint64    `json:"receipts_failed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
