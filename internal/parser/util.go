package parser

import (
	"strconv"
	"strings"
)

func trimLine(line string) string {
	return strings.TrimRight(strings.TrimSpace(line), "\r\n")
}

func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
