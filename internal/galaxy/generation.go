// Package galaxy generates a starting sector using layered simplex noise.
// Sampling planets along a spiral gives each one independent prosperity,
// industry, and mineral fields, from which the planet's classification and
// starting pools are derived.
package galaxy

import (
	"fmt"
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/voidtrader/internal/empire"
)

// GenConfig holds sector generation parameters.
type GenConfig struct {
	Seed    int64 // Random seed (0 = random)
	Planets int   // Number of planets to found
}

// DefaultGenConfig returns a reasonable starting sector.
func DefaultGenConfig() GenConfig {
	return GenConfig{Seed: 0, Planets: 8}
}

// Blueprint describes one generated planet before it is founded in the
// simulation.
type Blueprint struct {
	Name    string
	Type    empire.PlanetType
	Loyalty float64
	Pools   empire.Amounts
}

// Generate lays out the sector: one blueprint per planet, deterministic for
// a given seed.
func Generate(cfg GenConfig) []Blueprint {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	if cfg.Planets <= 0 {
		cfg.Planets = DefaultGenConfig().Planets
	}

	// Three noise generators for independent layers.
	prosperity := opensimplex.NewNormalized(seed)
	industry := opensimplex.NewNormalized(seed + 1)
	minerals := opensimplex.NewNormalized(seed + 2)

	rng := rand.New(rand.NewSource(seed + 100))

	out := make([]Blueprint, 0, cfg.Planets)
	used := make(map[string]bool)

	for i := 0; i < cfg.Planets; i++ {
		// Planets sit along a spiral arm; each step moves outward and
		// around, so successive samples land in distinct noise regions.
		angle := float64(i) * 2.39996 // Golden angle keeps samples spread out.
		radius := 2.0 + float64(i)*1.7
		x := radius * math.Cos(angle)
		y := radius * math.Sin(angle)

		// Multi-octave noise for uneven, natural-looking spreads.
		wealth := octaveNoise(prosperity, x, y, 4, 0.08, 0.5)
		output := octaveNoise(industry, x, y, 3, 0.06, 0.5)
		ore := octaveNoise(minerals, x, y, 3, 0.05, 0.5)

		t := deriveType(wealth, output, ore)
		name := pickName(rng, used)

		out = append(out, Blueprint{
			Name:    name,
			Type:    t,
			Loyalty: 40 + wealth*40, // Prosperous worlds start more loyal.
			Pools: empire.Amounts{
				Wealth:    math.Round(200 + wealth*800),
				Industry:  math.Round(100 + output*600),
				Resources: math.Round(100 + ore*700),
			},
		})
	}

	return out
}

// deriveType classifies a planet from its environmental fields.
func deriveType(wealth, output, ore float64) empire.PlanetType {
	switch {
	case ore > 0.65:
		return empire.MiningWorld
	case output > 0.6:
		return empire.ForgeWorld
	case wealth < 0.25 && output > 0.4:
		return empire.HiveWorld
	case wealth < 0.2:
		return empire.DeathWorld
	default:
		return empire.AgriWorld
	}
}

var (
	nameHeads = []string{"Vel", "Kar", "Thal", "Ost", "Mor", "Sab", "Dra", "Hel", "Nov", "Cal", "Fen", "Lux"}
	nameTails = []string{"danis", "oth", "heim", "ara", "ione", "axis", "urn", "ia Prime", "gard", "ex", "una", "ost Reach"}
)

// pickName builds a two-part name, suffixing a numeral when the combination
// repeats within a sector.
func pickName(rng *rand.Rand, used map[string]bool) string {
	for {
		name := nameHeads[rng.Intn(len(nameHeads))] + nameTails[rng.Intn(len(nameTails))]
		if !used[name] {
			used[name] = true
			return name
		}
		for n := 2; ; n++ {
			numbered := fmt.Sprintf("%s %d", name, n)
			if !used[numbered] {
				used[numbered] = true
				return numbered
			}
		}
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// TypeCounts returns the classification distribution of a generated sector.
func TypeCounts(bps []Blueprint) map[empire.PlanetType]int {
	counts := make(map[empire.PlanetType]int)
	for _, bp := range bps {
		counts[bp.Type]++
	}
	return counts
}
