package windows

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseColor accepts #RRGGBB (opaque) or #AARRGGBB and returns ARGB.
func ParseColor(s string) (uint32, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 6, 8:
	default:
		return 0, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	if len(hex) == 6 {
		v |= 0xFF000000
	}
	return uint32(v), nil
}

// FormatColor renders ARGB as #AARRGGBB.
func FormatColor(argb uint32) string {
	return fmt.Sprintf("#%08X", argb)
}

// RGB drops the alpha channel, giving a #RRGGBB string terminals understand.
func RGB(argb uint32) string {
	return fmt.Sprintf("#%06X", argb&0xFFFFFF)
}

// Alpha is the alpha channel in 0..255.
func Alpha(argb uint32) uint8 {
	return uint8(argb >> 24)
}
