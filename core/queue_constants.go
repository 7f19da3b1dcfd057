package core

import "time"

// Redis keys shared by API (producer) and worker (consumer) for banner
// finalize jobs.
const (
	PendingQueueKey    = "pending_banners"
	ProcessingQueueKey = "processing_banners"

	DefaultVisibilityTimeout = 60 * time.Second
)
