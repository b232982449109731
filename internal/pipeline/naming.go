package pipeline

import "regexp"

// dupExtension matches a doubled trailing extension like ".mp4.mp4".
var dupExtension = regexp.MustCompile(`(\.[A-Za-z0-9]+)(\.[A-Za-z0-9]+)$`)

// CleanFilename collapses duplicated trailing extensions
// ("lecture.mp4.mp4" -> "lecture.mp4"). Other names pass through unchanged.
func CleanFilename(name string) string {
	for {
		m := dupExtension.FindStringSubmatch(name)
		if m == nil || m[1] != m[2] {
			return name
		}
		name = name[:len(name)-len(m[2])]
	}
}
