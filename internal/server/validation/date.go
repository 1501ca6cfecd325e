package validation

import (
	"strings"
	"time"
)

// ISODate is the wire format of date inputs.
const ISODate = "2006-01-02"

// ParseISODate parses a YYYY-MM-DD value in UTC. Blank input is an error.
func ParseISODate(s string) (time.Time, error) {
	return time.Parse(ISODate, strings.TrimSpace(s))
}
