package analysis

import "math"

// Levels summarizes the amplitude of a signal.
type Levels struct {
	Frames int     `json:"frames"`
	Peak   float64 `json:"peak"`
	RMS    float64 `json:"rms"`
	Power  float64 `json:"power"`
}

// Measure returns peak, RMS and mean-square power of x.
func Measure(x []float64) Levels {
	l := Levels{Frames: len(x)}
	if len(x) == 0 {
		return l
	}
	l.Peak = Peak(x)
	l.Power = Power(x)
	l.RMS = math.Sqrt(l.Power)
	return l
}

// Peak returns max(|x|).
func Peak(x []float64) float64 {
	var p float64
	for _, v := range x {
		if a := math.Abs(v); a > p {
			p = a
		}
	}
	return p
}

// Power returns the mean squared amplitude of x.
func Power(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum / float64(len(x))
}

// RMS is the square root of Power.
func RMS(x []float64) float64 {
	return math.Sqrt(Power(x))
}

// Variance returns the population variance of x.
func Variance(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))
	var sum float64
	for _, v := range x {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(x))
}

// SNRDB returns 10*log10(power(signal)/power(noise)). A silent noise
// signal yields +Inf, a silent signal -Inf.
func SNRDB(signal []float64, noise []float64) float64 {
	ps := Power(signal)
	pn := Power(noise)
	if pn <= 0 {
		return math.Inf(1)
	}
	if ps <= 0 {
		return math.Inf(-1)
	}
	return 10.0 * math.Log10(ps/pn)
}

// DBToPowerRatio converts a level in dB to a linear power ratio.
func DBToPowerRatio(db float64) float64 {
	return math.Pow(10.0, db/10.0)
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

// PeakDBFS returns the peak level of x in dBFS, floored at -240 dB.
func PeakDBFS(x []float64) float64 {
	return linToDB(Peak(x))
}

// IsSilent reports whether no sample of x exceeds threshold in magnitude.
func IsSilent(x []float64, threshold float64) bool {
	return Peak(x) <= threshold
}
