package ffmpeg

import (
	"strconv"
	"strings"
	"time"
)

// Progress is the cumulative encode position parsed from the child's
// -progress stream.
type Progress struct {
	OutTime time.Duration // Encoded position in the output timeline.
	Frame   int64
	FPS     float64
	Speed   float64 // Encode speed relative to realtime (e.g. 3.4 for "3.4x").
	Done    bool    // Set when the stream reports progress=end.
}

// Percent returns completion against the source duration in [0, 100],
// or -1 when the duration is unknown.
func (p Progress) Percent(sourceDuration time.Duration) float64 {
	if sourceDuration <= 0 {
		return -1
	}
	pct := float64(p.OutTime) / float64(sourceDuration) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

// parseProgressLine applies one key=value line from ffmpeg's -progress
// stream to p. Returns true on the "progress=..." line, which terminates
// each update block and is the natural point to surface p to observers.
func parseProgressLine(p *Progress, line string) bool {
	key, value, found := strings.Cut(strings.TrimSpace(line), "=")
	if !found {
		return false
	}
	value = strings.TrimSpace(value)

	switch key {
	case "out_time_us", "out_time_ms":
		// Both keys carry microseconds (out_time_ms is a historical misnomer).
		if us, err := strconv.ParseInt(value, 10, 64); err == nil {
			p.OutTime = time.Duration(us) * time.Microsecond
		}
	case "out_time":
		if d := ParseOutTime(value); d >= 0 {
			p.OutTime = d
		}
	case "frame":
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			p.Frame = n
		}
	case "fps":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			p.FPS = f
		}
	case "speed":
		if f, err := strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64); err == nil {
			p.Speed = f
		}
	case "progress":
		p.Done = value == "end"
		return true
	}
	return false
}

// ParseOutTime parses ffmpeg's clock format "HH:MM:SS.micros" into a
// duration. Returns -1 for empty or unparseable input (including "N/A",
// which ffmpeg emits before the first frame).
func ParseOutTime(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return -1
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return -1
	}
	hours, err1 := strconv.ParseInt(parts[0], 10, 64)
	mins, err2 := strconv.ParseInt(parts[1], 10, 64)
	secs, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return -1
	}

	total := time.Duration(hours)*time.Hour +
		time.Duration(mins)*time.Minute +
		time.Duration(secs*float64(time.Second))
	if total < 0 {
		return -1
	}
	return total
}
