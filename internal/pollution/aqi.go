package pollution

import "math"

// MaxAQI is the top of the AQI scale.
const MaxAQI = 500

// breakpoint is one linear segment of the PM2.5 AQI curve.
type breakpoint struct {
	concLow, concHigh float64
	aqiLow, aqiHigh   float64
}

// pm25Breakpoints follow the EPA PM2.5 table, with each segment starting at
// the previous segment's upper concentration.
var pm25Breakpoints = []breakpoint{
	{0, 12, 0, 50},
	{12, 35.4, 50, 100},
	{35.4, 55.4, 100, 150},
	{55.4, 150.4, 150, 200},
	{150.4, 250.4, 200, 300},
	{250.4, 500.4, 300, 500},
}

// AQI derives the air quality index from a PM2.5 concentration (µg/m³).
// The result is rounded half-up and clamped to [0, MaxAQI].
func AQI(pm25 float64) int {
	if pm25 <= 0 || math.IsNaN(pm25) {
		return 0
	}

	bp := pm25Breakpoints[len(pm25Breakpoints)-1]
	for _, b := range pm25Breakpoints {
		if pm25 <= b.concHigh {
			bp = b
			break
		}
	}

	aqi := bp.aqiLow + (bp.aqiHigh-bp.aqiLow)/(bp.concHigh-bp.concLow)*(pm25-bp.concLow)
	return clamp(roundHalfUp(aqi), 0, MaxAQI)
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Floor(v*p+0.5) / p
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
