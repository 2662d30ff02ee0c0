// Package clock defines the time source used by retry and polling loops.
package clock

import (
	"context"
	"time"
)

// Clock supplies current time and interruptible sleeps. Injecting it keeps
// backoff and challenge-poll tests free of real delays.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}
