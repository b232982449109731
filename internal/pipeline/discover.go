// Package pipeline orchestrates the batch: candidate discovery, the per-file
// probe/encode/finalize sequence, statistics, and interruption policy.
package pipeline

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/backmassage/squeeze/internal/ffmpeg"
)

// Candidate is one source video file selected for processing, with its
// size captured at discovery time.
type Candidate struct {
	Path string
	Size int64
}

// Supported video file extensions (lowercase, with leading dot).
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".flv":  true,
	".wmv":  true,
	".webm": true,
}

// Discover walks inputDir, collects files with video extensions, skips
// leftover temporary encoder outputs, and returns the candidates in natural
// order ("Module 2" before "Module 10") for deterministic processing.
func Discover(inputDir string) ([]Candidate, error) {
	var out []Candidate
	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ffmpeg.TempPrefix) {
			return nil
		}
		if !videoExtensions[strings.ToLower(filepath.Ext(name))] {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, Candidate{Path: path, Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return naturalLess(out[i].Path, out[j].Path)
	})
	return out, nil
}

// naturalLess compares two paths treating digit runs as numbers, so
// "Module 2" sorts before "Module 10". Comparison is case-insensitive;
// on a full tie the raw strings break it for determinism.
func naturalLess(a, b string) bool {
	ta, tb := tokenize(a), tokenize(b)
	for i := 0; i < len(ta) && i < len(tb); i++ {
		x, y := ta[i], tb[i]
		if x.numeric && y.numeric {
			if x.value != y.value {
				return x.value < y.value
			}
			continue
		}
		xs, ys := strings.ToLower(x.text), strings.ToLower(y.text)
		if xs != ys {
			return xs < ys
		}
	}
	if len(ta) != len(tb) {
		return len(ta) < len(tb)
	}
	return a < b
}

type token struct {
	text    string
	value   int64
	numeric bool
}

// tokenize splits s into alternating digit and non-digit runs. Digit runs
// longer than 18 characters fall back to text comparison to avoid overflow.
func tokenize(s string) []token {
	var tokens []token
	for len(s) > 0 {
		isDigit := unicode.IsDigit(rune(s[0]))
		i := 0
		for i < len(s) && unicode.IsDigit(rune(s[i])) == isDigit {
			i++
		}
		run := s[:i]
		s = s[i:]
		if isDigit && len(run) <= 18 {
			var v int64
			for _, c := range run {
				v = v*10 + int64(c-'0')
			}
			tokens = append(tokens, token{value: v, numeric: true})
		} else {
			tokens = append(tokens, token{text: run})
		}
	}
	return tokens
}
