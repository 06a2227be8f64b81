package core

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// DefaultMaxLuminance is the luminance a generated color must exceed. Against
// a maximum possible luminance of 255 this leaves most of the RGB cube
// acceptable, so rejection sampling terminates quickly.
const DefaultMaxLuminance = 80

// colorMaxAttempts bounds the rejection loop. At sane thresholds it is never
// reached; if it is, the brightest sample seen wins.
const colorMaxAttempts = 10000

// ColorAssigner produces random display colors whose perceptual luminance
// 0.4R + 0.2G + 0.4B exceeds a threshold, so names stay readable on a dark
// background. Colors are not guaranteed distinct between users.
type ColorAssigner struct {
	maxLuminance float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewColorAssigner constructs an assigner with the given luminance threshold.
// A threshold at or above 255 is unsatisfiable and is clamped to the default.
func NewColorAssigner(maxLuminance float64) *ColorAssigner {
	if maxLuminance <= 0 || maxLuminance >= 255 {
		maxLuminance = DefaultMaxLuminance
	}
	return &ColorAssigner{
		maxLuminance: maxLuminance,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Generate returns a css-style `rgb(R, G, B)` color satisfying the threshold.
func (a *ColorAssigner) Generate() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var bestR, bestG, bestB int
	bestLum := -1.0

	for i := 0; i < colorMaxAttempts; i++ {
		r := a.rng.Intn(256)
		g := a.rng.Intn(256)
		b := a.rng.Intn(256)
		lum := luminance(r, g, b)
		if lum > a.maxLuminance {
			return formatRGB(r, g, b)
		}
		if lum > bestLum {
			bestR, bestG, bestB, bestLum = r, g, b, lum
		}
	}
	return formatRGB(bestR, bestG, bestB)
}

func luminance(r, g, b int) float64 {
	return 0.4*float64(r) + 0.2*float64(g) + 0.4*float64(b)
}

func formatRGB(r, g, b int) string {
	return fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)
}
