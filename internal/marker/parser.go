package marker

import (
	"errors"
	"strconv"
	"strings"
)

// ErrMalformed is returned for lines that do not parse as a marker.
var ErrMalformed = errors.New("malformed marker line")

// Pair is one raw timestamp marker from the capture process.
type Pair struct {
	Number      uint64
	CaptureTime float64
}

// ParseLine parses a marker line. The capture process emits one marker
// per frame as two numeric fields, frame number then capture time in
// fractional unix seconds, with or without the tuple decoration:
//
//	(1042, 1714071543.0221)
//	1042 1714071543.0221
//
// Blank lines and lines with extra fields or non-numeric values are
// malformed; callers count them and move on.
func ParseLine(line string) (Pair, error) {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "(")
	line = strings.TrimSuffix(line, ")")
	if line == "" {
		return Pair{}, ErrMalformed
	}

	line = strings.ReplaceAll(line, ",", " ")
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return Pair{}, ErrMalformed
	}

	num, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return Pair{}, ErrMalformed
	}

	ts, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || ts < 0 {
		return Pair{}, ErrMalformed
	}

	return Pair{Number: num, CaptureTime: ts}, nil
}
