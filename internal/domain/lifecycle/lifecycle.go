// Package lifecycle holds shared timing constants for fx start/stop hooks.
package lifecycle

import "time"

// DefaultTimeout bounds a single start or stop hook (DB ping, HTTP shutdown).
const DefaultTimeout = 10 * time.Second
