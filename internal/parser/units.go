package parser

import "fmt"

// byteUnitMultiplier maps ffmpeg's binary-looking size suffixes to decimal
// multipliers ("1024KiB" is read as 1,024,000 bytes): the suffix name is the
// misnomer, not the scale.
var byteUnitMultiplier = map[string]float64{
	"B":   1,
	"KiB": 1_000,
	"MiB": 1_000_000,
	"GiB": 1_000_000_000,
}

// bitUnitMultiplier is the bitrate-suffix equivalent of byteUnitMultiplier.
var bitUnitMultiplier = map[string]float64{
	"bits":  1,
	"kbits": 1_000,
	"Mbits": 1_000_000,
	"Gbits": 1_000_000_000,
}

func parseByteSize(value float64, unit string) (uint64, error) {
	mult, ok := byteUnitMultiplier[unit]
	if !ok {
		return 0, fmt.Errorf("unknown byte unit %q", unit)
	}
	return uint64(value * mult), nil
}

func parseBitSize(value float64, unit string) (uint64, error) {
	mult, ok := bitUnitMultiplier[unit]
	if !ok {
		return 0, fmt.Errorf("unknown bit unit %q", unit)
	}
	return uint64(value * mult), nil
}

// sourceBitrateMultiplier covers the distinct "kb/s"-style suffixes ffmpeg
// uses in stream summary lines (as opposed to "kbits/s" in progress lines).
var sourceBitrateMultiplier = map[string]float64{
	"b/s":  1,
	"kb/s": 1_000,
	"mb/s": 1_000_000,
	"gb/s": 1_000_000_000,
}

func parseSourceBitrate(value float64, unit string) (uint64, error) {
	mult, ok := sourceBitrateMultiplier[unit]
	if !ok {
		return 0, fmt.Errorf("unknown bitrate unit %q", unit)
	}
	return uint64(value * mult), nil
}
