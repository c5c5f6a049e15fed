package parser

import "regexp"

var (
	usageErrorRegexp     = regexp.MustCompile(`yt-dlp:\s+error:\s+(.+)`)
	missingContentRegexp = regexp.MustCompile(`ERROR:\s+\[youtube\]\s+([a-zA-Z0-9/.\-_]+):\s+Video unavailable`)
)

// ParseDownloaderStderr recognizes the downloader's two fatal-line shapes: a
// CLI usage complaint and a "content no longer available" notice. Returns
// (nil, false) for any other line, including ordinary verbose diagnostics.
func ParseDownloaderStderr(line string) (any, bool) {
	line = trimLine(line)

	if m := usageErrorRegexp.FindStringSubmatch(line); m != nil {
		return UsageError(m[1]), true
	}
	if m := missingContentRegexp.FindStringSubmatch(line); m != nil {
		return MissingContent(m[1]), true
	}
	return nil, false
}
