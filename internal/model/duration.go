package model

import "time"

// SleepUnits maps the unit suffixes accepted by the sleep command.
var SleepUnits = map[string]time.Duration{
	"ns": time.Nanosecond,
	"us": time.Microsecond,
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
}
