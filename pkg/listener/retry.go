package listener

import "time"

const (
	minRetryDelay = 5 * time.Millisecond
	maxRetryDelay = time.Second
)

// nextRetryDelay doubles the pause after a failed accept or read, from
// minRetryDelay up to maxRetryDelay. A zero prev starts over.
func nextRetryDelay(prev time.Duration) time.Duration {
	if prev == 0 {
		return minRetryDelay
	}
	if prev *= 2; prev > maxRetryDelay {
		return maxRetryDelay
	}
	return prev
}
