package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// ratioSampler lets num out of every den events through. A zero ratio lets everything through.
type ratioSampler struct {
	ratio atomic.Uint64 // num<<32 | den
	seen  atomic.Uint64
}

func newRatioSampler(num, den int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(num, den)
	return s
}

// Set replaces the ratio and restarts the cycle.
func (s *ratioSampler) Set(num, den int) {
	if num <= 0 || den <= 0 {
		num, den = 0, 0
	}
	num = min(num, den)
	s.ratio.Store(uint64(num)<<32 | uint64(uint32(den)))
	s.seen.Store(0)
}

// Allow reports whether the next event is inside the sampled share of its cycle.
func (s *ratioSampler) Allow() bool {
	r := s.ratio.Load()
	num, den := r>>32, r&0xffffffff
	if num == 0 || den == 0 {
		return true
	}
	pos := (s.seen.Add(1) - 1) % den
	return pos < num
}

// parseRatio reads "n/d" or "d" (meaning 1/d). "off", "0" and malformed input yield 0/0.
func parseRatio(raw string) (int, int) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "", "off", "none":
		return 0, 0
	case "all":
		return 1, 1
	}
	if n, d, ok := strings.Cut(raw, "/"); ok {
		num, err1 := strconv.Atoi(strings.TrimSpace(n))
		den, err2 := strconv.Atoi(strings.TrimSpace(d))
		if err1 != nil || err2 != nil {
			return 0, 0
		}
		return num, den
	}
	den, err := strconv.Atoi(raw)
	if err != nil || den <= 0 {
		return 0, 0
	}
	return 1, den
}
