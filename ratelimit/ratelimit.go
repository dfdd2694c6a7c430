package ratelimit

import "time"

const (
	EpisodeDownloadConcurrency = 8
	MaxDownloadConcurrency     = 32
)

// Telegram bot API pacing used by the notifier sink.
const (
	TelegramMessagesPerInterval = 20
	TelegramInterval            = 66 * time.Second
	TelegramMessageGap          = 1 * time.Second
)

// ClampConcurrency bounds n to [1, MaxDownloadConcurrency].
func ClampConcurrency(n int) int {
	return max(1, min(n, MaxDownloadConcurrency))
}
