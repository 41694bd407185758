package clock

import "time"

// NowFunc supplies the current time. Engines take one at construction so
// deadline checks stay deterministic under test.
type NowFunc func() time.Time
