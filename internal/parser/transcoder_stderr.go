package parser

import (
	"regexp"
	"strconv"
)

var (
	transcodeProgressRegexp = regexp.MustCompile(
		`frame=\s*(\d+)\s+fps=\s*(\d+(?:\.\d+)?)\s+q=\s*(-?\d+(?:\.\d+)?)\s+size=\s*(\d+)(B|KiB|MiB|GiB)\s+` +
			`time=\s*((?:\d+:)+\d+(?:\.\d+)?)\s+bitrate=\s*(\d+(?:\.\d+)?)(bits|kbits|Mbits|Gbits)/s\s+speed=\s*(\d+(?:\.\d+)?)x`,
	)
	transcodeSourceInfoRegexp = regexp.MustCompile(
		`Duration:\s*((?:\d+:)+\d+(?:\.\d+)?),\s*start:\s*(\d+(?:\.\d+)?),\s*bitrate:\s*(\d+(?:\.\d+)?)\s*(b/s|kb/s|mb/s|gb/s)`,
	)
)

// ParseTranscoderStderr recognizes the transcoder's two informational line
// shapes: the periodic progress line and the per-stream "Duration: ..."
// summary line printed once per input stream at startup.
func ParseTranscoderStderr(line string) (any, bool) {
	line = trimLine(line)

	if m := transcodeProgressRegexp.FindStringSubmatch(line); m != nil {
		return parseTranscodeProgress(m), true
	}
	if m := transcodeSourceInfoRegexp.FindStringSubmatch(line); m != nil {
		return parseTranscodeSourceInfo(m), true
	}
	return nil, false
}

func parseTranscodeProgress(m []string) TranscodeProgress {
	var p TranscodeProgress

	if frame, err := strconv.ParseUint(m[1], 10, 64); err == nil {
		p.Frame = &frame
	}
	p.FPS = parseOptionalFloat(m[2])
	p.Q = parseOptionalFloat(m[3])

	if sizeValue, err := strconv.ParseFloat(m[4], 64); err == nil {
		if bytes, err := parseByteSize(sizeValue, m[5]); err == nil {
			p.SizeBytes = &bytes
		}
	}
	if t, err := ParseTime(m[6]); err == nil {
		p.TotalTimeTranscoded = &t
	}
	if bitValue, err := strconv.ParseFloat(m[7], 64); err == nil {
		if bits, err := parseBitSize(bitValue, m[8]); err == nil {
			p.SpeedBits = &bits
		}
	}
	p.SpeedFactor = parseOptionalFloat(m[9])

	return p
}

func parseTranscodeSourceInfo(m []string) TranscodeSourceInfo {
	var info TranscodeSourceInfo

	if t, err := ParseTime(m[1]); err == nil {
		info.Duration = &t
	}
	if t, err := ParseTime(m[2]); err == nil {
		info.StartTime = &t
	}
	if rateValue, err := strconv.ParseFloat(m[3], 64); err == nil {
		if bits, err := parseSourceBitrate(rateValue, m[4]); err == nil {
			info.SpeedBits = &bits
		}
	}

	return info
}
