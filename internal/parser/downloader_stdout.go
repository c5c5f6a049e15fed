package parser

import (
	"regexp"
	"strconv"
)

var (
	downloadProgressRegexp = regexp.MustCompile(
		`@\[progress\]\s+eta=(\d+)?,elapsed=(\d+)?,downloaded_bytes=(\d+),total_bytes=(\d+),speed=(\d+)?`,
	)
	outputPathRegexp = regexp.MustCompile(`@\[after-move-path\]\s+(.+)$`)
)

// ParseDownloaderStdout recognizes the two lines the downloader's pinned
// progress template produces: a periodic progress update and the final
// moved-to path. Returns (nil, false) for any other line.
func ParseDownloaderStdout(line string) (any, bool) {
	line = trimLine(line)

	if m := downloadProgressRegexp.FindStringSubmatch(line); m != nil {
		return DownloadProgress{
			ETASeconds:      parseOptionalUint(m[1]),
			ElapsedSeconds:  parseOptionalUint(m[2]),
			DownloadedBytes: parseOptionalUint(m[3]),
			TotalBytes:      parseOptionalUint(m[4]),
			SpeedBytes:      parseOptionalUint(m[5]),
		}, true
	}
	if m := outputPathRegexp.FindStringSubmatch(line); m != nil {
		return OutputPath(m[1]), true
	}
	return nil, false
}

func parseOptionalUint(s string) *uint64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
