package runtime

import "math/rand"

// PRNG wraps math/rand.Rand to implement awk's rand()/srand() pair:
// srand(x) seeds and returns the *previous* seed, and an un-seeded
// program starts from the fixed seed 0, so its rand() sequence is the
// same on every run.
type PRNG struct {
	r        *rand.Rand
	lastSeed int64
}

func NewPRNG() *PRNG {
	const startupSeed = 0
	return &PRNG{r: rand.New(rand.NewSource(startupSeed)), lastSeed: startupSeed}
}

func (p *PRNG) Float() float64 { return p.r.Float64() }

func (p *PRNG) Seed(seed int64) int64 {
	prev := p.lastSeed
	p.lastSeed = seed
	p.r = rand.New(rand.NewSource(seed))
	return prev
}
