package config

import "time"

var (
	ShowListingRetryElapsed   = 30 * time.Second
	ShowListingRetryInterval  = 500 * time.Millisecond
	NotifierDrainTimeout      = 10 * time.Second
	TelegramSendTimeout       = 10 * time.Second
	TelegramNotifierQueueSize = 64
)
