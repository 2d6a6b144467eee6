package service

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/CZERTAINLY/executor/internal/model"
)

var sleepRx = regexp.MustCompile(`^(\d+)(ns|us|ms|s|m)?$`)

// ParseSleep parses the arguments of the sleep command. Accepted forms are
// "50" (in defaultUnit), "50ms" and "50 ms". Units are ns, us, ms, s and m.
func ParseSleep(args []string, defaultUnit time.Duration) (time.Duration, error) {
	var value, unit string
	switch len(args) {
	case 1:
		value = args[0]
	case 2:
		value, unit = args[0], args[1]
		if _, ok := model.SleepUnits[unit]; !ok {
			return 0, fmt.Errorf("unknown sleep unit %q", unit)
		}
	default:
		return 0, errors.New("sleep expects a duration")
	}

	m := sleepRx.FindStringSubmatch(value)
	if m == nil {
		return 0, fmt.Errorf("invalid sleep duration %q", value)
	}
	if m[2] != "" {
		if unit != "" {
			return 0, fmt.Errorf("sleep duration %q has two units", value+" "+unit)
		}
		unit = m[2]
	}

	scale := defaultUnit
	if scale <= 0 {
		scale = time.Millisecond
	}
	if unit != "" {
		scale = model.SleepUnits[unit]
	}

	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number in %q", value)
	}
	if n > math.MaxInt64/int64(scale) {
		return 0, fmt.Errorf("sleep duration %q overflows", value)
	}
	return time.Duration(n) * scale, nil
}
