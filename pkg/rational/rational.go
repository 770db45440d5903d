// Package rational provides exact-arithmetic time values for the chart
// timeline. Musical time (Beats) and wall-clock time (Seconds) are distinct
// types on purpose: converting between them always goes through a tempo map,
// never through an implicit cast. Values are backed by big.Rat so that
// thousands of fine subdivisions (1/192 beat and below) accumulate no
// rounding error over a long timeline.
package rational

import "math/big"

// Seconds is an exact wall-clock duration or offset.
type Seconds struct {
	rat *big.Rat
}

// Beats is an exact musical-time offset, in quarter-note-equivalents.
type Beats struct {
	rat *big.Rat
}

// BPS is a tempo rate in beats per second.
type BPS struct {
	rat *big.Rat
}

// ratOf returns the backing rational, treating the zero value as 0/1.
func ratOf(r *big.Rat) *big.Rat {
	if r == nil {
		return new(big.Rat)
	}
	return r
}

// SecondsFromInt returns n as an exact Seconds value.
func SecondsFromInt(n int64) Seconds {
	return Seconds{rat: big.NewRat(n, 1)}
}

// SecondsFrac returns num/den as an exact Seconds value. den must be nonzero.
func SecondsFrac(num, den int64) Seconds {
	return Seconds{rat: big.NewRat(num, den)}
}

// SecondsFromFloat converts a float at the audio boundary into Seconds.
// The conversion is exact for the float's binary value.
func SecondsFromFloat(f float64) Seconds {
	r := new(big.Rat)
	if r.SetFloat64(f) == nil {
		// NaN/Inf collapse to zero; the audio backend never reports these.
		return Seconds{}
	}
	return Seconds{rat: r}
}

// BeatsFromInt returns n as an exact Beats value.
func BeatsFromInt(n int64) Beats {
	return Beats{rat: big.NewRat(n, 1)}
}

// BeatsFrac returns num/den as an exact Beats value. den must be nonzero.
func BeatsFrac(num, den int64) Beats {
	return Beats{rat: big.NewRat(num, den)}
}

// BPSFrac returns num/den beats per second.
func BPSFrac(num, den int64) BPS {
	return BPS{rat: big.NewRat(num, den)}
}

// BPSFromMicrosPerBeat converts a MIDI set-tempo value (microseconds per
// quarter note) into a beats-per-second rate.
func BPSFromMicrosPerBeat(micros int64) BPS {
	return BPS{rat: big.NewRat(1_000_000, micros)}
}

func (s Seconds) Add(o Seconds) Seconds {
	return Seconds{rat: new(big.Rat).Add(ratOf(s.rat), ratOf(o.rat))}
}

func (s Seconds) Sub(o Seconds) Seconds {
	return Seconds{rat: new(big.Rat).Sub(ratOf(s.rat), ratOf(o.rat))}
}

// Cmp compares s and o, returning -1, 0 or +1.
func (s Seconds) Cmp(o Seconds) int {
	return ratOf(s.rat).Cmp(ratOf(o.rat))
}

// Float64 leaves exact arithmetic; only the render and audio boundaries
// should call it.
func (s Seconds) Float64() float64 {
	f, _ := ratOf(s.rat).Float64()
	return f
}

func (s Seconds) String() string {
	return ratOf(s.rat).RatString() + "s"
}

// MulBPS converts a duration into the beats it spans at a constant rate.
func (s Seconds) MulBPS(r BPS) Beats {
	return Beats{rat: new(big.Rat).Mul(ratOf(s.rat), ratOf(r.rat))}
}

func (b Beats) Add(o Beats) Beats {
	return Beats{rat: new(big.Rat).Add(ratOf(b.rat), ratOf(o.rat))}
}

func (b Beats) Sub(o Beats) Beats {
	return Beats{rat: new(big.Rat).Sub(ratOf(b.rat), ratOf(o.rat))}
}

// MulInt scales b by an integer factor (measure spans, beat counts).
func (b Beats) MulInt(n int64) Beats {
	return Beats{rat: new(big.Rat).Mul(ratOf(b.rat), big.NewRat(n, 1))}
}

// Cmp compares b and o, returning -1, 0 or +1.
func (b Beats) Cmp(o Beats) int {
	return ratOf(b.rat).Cmp(ratOf(o.rat))
}

// Sign returns -1, 0 or +1 according to the sign of b.
func (b Beats) Sign() int {
	return ratOf(b.rat).Sign()
}

// Float64 leaves exact arithmetic; only the render boundary should call it.
func (b Beats) Float64() float64 {
	f, _ := ratOf(b.rat).Float64()
	return f
}

func (b Beats) String() string {
	return ratOf(b.rat).RatString() + "b"
}

// DivBPS converts a beat span into the seconds it takes at a constant rate.
// r must be nonzero.
func (b Beats) DivBPS(r BPS) Seconds {
	return Seconds{rat: new(big.Rat).Quo(ratOf(b.rat), ratOf(r.rat))}
}

// Cmp compares two tempo rates.
func (r BPS) Cmp(o BPS) int {
	return ratOf(r.rat).Cmp(ratOf(o.rat))
}

// IsZero reports whether the rate is zero (an unusable tempo).
func (r BPS) IsZero() bool {
	return ratOf(r.rat).Sign() == 0
}

// Float64 leaves exact arithmetic; display only.
func (r BPS) Float64() float64 {
	f, _ := ratOf(r.rat).Float64()
	return f
}

func (r BPS) String() string {
	return ratOf(r.rat).RatString() + "bps"
}
