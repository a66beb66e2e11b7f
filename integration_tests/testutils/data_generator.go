//go:build integration

package testutils

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// TestDataGenerator produces randomized but well-formed game identities for
// integration tests. Seeded runs reproduce the same identities.
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewTestDataGenerator creates a generator, seeding from the clock unless an
// explicit seed is given.
func NewTestDataGenerator(seed ...int64) *TestDataGenerator {
	var s int64
	if len(seed) > 0 {
		s = seed[0]
	} else {
		s = time.Now().UnixNano()
	}

	return &TestDataGenerator{
		faker: gofakeit.New(uint64(s)),
		seed:  s,
	}
}

// Seed returns the seed in use, so a failing run can be replayed.
func (g *TestDataGenerator) Seed() int64 {
	return g.seed
}

// GenerateSteamID produces a classic STEAM_X:Y:Z identity.
func (g *TestDataGenerator) GenerateSteamID() string {
	return fmt.Sprintf("STEAM_0:%d:%d", g.faker.Number(0, 1), g.faker.Number(1, 99999999))
}

// GeneratePlayerName produces a display name of the kind game servers see.
func (g *TestDataGenerator) GeneratePlayerName() string {
	return g.faker.Gamertag()
}

// GeneratePrivateAddress produces an RFC 1918 address, which the enrichment
// pipeline skips.
func (g *TestDataGenerator) GeneratePrivateAddress() string {
	return fmt.Sprintf("10.%d.%d.%d", g.faker.Number(0, 255), g.faker.Number(0, 255), g.faker.Number(1, 254))
}
