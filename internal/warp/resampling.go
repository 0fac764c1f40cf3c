package warp

import (
	"fmt"
	"strings"
)

// Resampling selects how source samples are interpolated.
type Resampling int

const (
	Bilinear Resampling = iota
	Nearest
)

func (r Resampling) String() string {
	switch r {
	case Bilinear:
		return "bilinear"
	case Nearest:
		return "nearest"
	}
	return fmt.Sprintf("Resampling(%d)", int(r))
}

// ParseResampling parses a resampling name.
func ParseResampling(s string) (Resampling, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bilinear":
		return Bilinear, nil
	case "nearest":
		return Nearest, nil
	}
	return 0, fmt.Errorf("unknown resampling %q (want bilinear or nearest)", s)
}
