package dht11

// sampler owns the timing-critical polling loops. Nothing in here allocates
// or logs.
type sampler struct {
	line   Line
	clock  Clock
	timing Timing
}

// waitWhile polls the line every tick µs while it reads lvl, spending at most
// *left polls. It reports whether the line left lvl before the budget ran out.
func (s *sampler) waitWhile(lvl Level, tick int, left *int) bool {
	for *left > 0 {
		if s.line.Level() != lvl {
			return true
		}
		s.clock.DelayMicros(tick)
		*left--
	}
	return false
}

// highPolls skips the low phase of a bit and counts the polls that see it
// high. Both phases share BitCap, so a stuck line costs at most BitCap ticks.
func (s *sampler) highPolls() int {
	left := s.timing.BitCap
	s.waitWhile(Low, s.timing.BitTickMicros, &left)
	before := left
	s.waitWhile(High, s.timing.BitTickMicros, &left)
	return before - left
}

// sampleBit classifies one pulse. A high phase of exactly BitThreshold polls
// is a 0.
func (s *sampler) sampleBit() byte {
	if s.highPolls() > s.timing.BitThreshold {
		return 1
	}
	return 0
}

// readByte assembles eight bits, most significant first.
func (s *sampler) readByte() byte {
	var b byte
	for i := 0; i < 8; i++ {
		b |= s.sampleBit() << (7 - i)
	}
	return b
}
