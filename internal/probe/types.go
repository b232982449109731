package probe

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatInfo holds container-level metadata from ffprobe's format section.
type FormatInfo struct {
	FormatName string
	Duration   float64 // seconds
	Size       int64
	BitRate    int64
}

// VideoStream holds the parsed properties of the primary video stream.
type VideoStream struct {
	Index        int
	Codec        string
	PixFmt       string
	Width        int
	Height       int
	BitRate      int64
	AvgFrameRate string // ffprobe rational, e.g. "30000/1001"
}

// Result is the parsed output of a single ffprobe JSON call.
// Video is the first non-attached-pic video stream (nil if none).
type Result struct {
	Format FormatInfo
	Video  *VideoStream
}

// FrameRate returns the primary video stream's average frame rate in
// frames per second, or 0 when it is absent or malformed.
func (r *Result) FrameRate() float64 {
	if r.Video == nil {
		return 0
	}
	return parseRational(r.Video.AvgFrameRate)
}

// Resolution returns "WxH" for the primary video stream, or "unknown".
func (r *Result) Resolution() string {
	if r.Video == nil || r.Video.Width <= 0 || r.Video.Height <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%dx%d", r.Video.Width, r.Video.Height)
}

// parseRational evaluates an ffprobe rational like "30000/1001" or "25/1".
// A plain number is accepted too. Zero denominators and garbage yield 0.
func parseRational(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "0/0" {
		return 0
	}
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
