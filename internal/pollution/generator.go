package pollution

import (
	"math/rand/v2"
	"sync"
	"time"
)

// draw is the uniform range a pollutant is sampled from before scaling.
type draw struct {
	base, spread float64
}

var (
	drawPM25 = draw{15, 40}
	drawPM10 = draw{25, 80}
	drawCO   = draw{0.5, 2}
	drawNO2  = draw{20, 60}
	drawO3   = draw{30, 100}
	drawSO2  = draw{5, 20}

	drawTemperature = draw{15, 20}
	drawHumidity    = draw{40, 40}
	drawVisibility  = draw{5, 15}
)

// Time variation bounds applied to every pollutant in one draw.
const (
	minTimeVariation  = 0.8
	timeVariationSpan = 0.4
)

// Generator synthesises readings from a pseudo-random source.
// It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// GeneratorConfig holds configuration for a Generator.
type GeneratorConfig struct {
	// Source is the random source. If nil, a randomly seeded PCG is used.
	Source rand.Source

	// Now returns the current time. Default: time.Now
	Now func() time.Time
}

// NewGenerator creates a new generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	src := cfg.Source
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Generator{
		rng: rand.New(src),
		now: now,
	}
}

// NewSeededGenerator creates a deterministic generator for seed.
func NewSeededGenerator(seed uint64, now func() time.Time) *Generator {
	return NewGenerator(GeneratorConfig{
		Source: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
		Now:    now,
	})
}

// Generate produces a new reading for region. Unknown regions use
// DefaultMultiplier. The AQI and status derive from the PM2.5 value of the
// same draw.
func (g *Generator) Generate(region string) Reading {
	g.mu.Lock()
	defer g.mu.Unlock()

	scale := Multiplier(region) * (minTimeVariation + g.rng.Float64()*timeVariationSpan)

	pm25 := float64(roundHalfUp(g.sample(drawPM25) * scale))
	r := Reading{
		Region: region,
		PM25:   pm25,
		PM10:   float64(roundHalfUp(g.sample(drawPM10) * scale)),
		CO:     roundTo(g.sample(drawCO)*scale, 1),
		NO2:    float64(roundHalfUp(g.sample(drawNO2) * scale)),
		O3:     float64(roundHalfUp(g.sample(drawO3) * scale)),
		SO2:    float64(roundHalfUp(g.sample(drawSO2) * scale)),

		Temperature: float64(roundHalfUp(g.sample(drawTemperature))),
		Humidity:    float64(roundHalfUp(g.sample(drawHumidity))),
		Visibility:  float64(roundHalfUp(g.sample(drawVisibility))),

		LastUpdated: g.now().UTC().Truncate(time.Millisecond),
	}
	r.AQI = AQI(pm25)
	r.Status = StatusFor(r.AQI)
	return r
}

func (g *Generator) sample(d draw) float64 {
	return d.base + g.rng.Float64()*d.spread
}
