package spectral

import (
	"fmt"
	"strings"
)

// Band is one of the seven named frequency ranges, in ascending order.
type Band int

const (
	SubBass Band = iota
	Bass
	LowMidrange
	Midrange
	UpperMidrange
	Presence
	Brilliance
)

// Range is the half-open [LoHz, HiHz) extent of a band.
type Range struct {
	Band Band
	LoHz float64
	HiHz float64
}

var ranges = [...]Range{
	{SubBass, 20, 60},
	{Bass, 60, 250},
	{LowMidrange, 250, 500},
	{Midrange, 500, 2000},
	{UpperMidrange, 2000, 4000},
	{Presence, 4000, 6000},
	{Brilliance, 6000, 20000},
}

var names = [...]string{
	"sub_bass",
	"bass",
	"low_midrange",
	"midrange",
	"upper_midrange",
	"presence",
	"brilliance",
}

// Bands returns the band table in ascending order.
func Bands() []Range {
	out := make([]Range, len(ranges))
	copy(out, ranges[:])
	return out
}

func (b Band) String() string {
	if b < 0 || int(b) >= len(names) {
		return fmt.Sprintf("band(%d)", int(b))
	}
	return names[b]
}

// Valid reports whether b names one of the seven bands.
func (b Band) Valid() bool {
	return b >= SubBass && b <= Brilliance
}

// ParseBand maps a band name such as "low_midrange" back to its Band.
func ParseBand(s string) (Band, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == key {
			return Band(i), nil
		}
	}
	return 0, fmt.Errorf("unknown frequency range %q", s)
}
