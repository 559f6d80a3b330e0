// internal/session/idgen.go
package session

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Id strategies accepted by NewIDGenerator.
const (
	StrategyTimestamp = "timestamp"
	StrategyUUID      = "uuid"
	StrategyNanoID    = "nanoid"
	StrategyCounter   = "counter"
)

const timestampLayout = "20060102150405"

// IDGenerator mints new session ids.
type IDGenerator interface {
	NewID() string
}

// NewIDGenerator returns the generator for strategy.
func NewIDGenerator(strategy string) (IDGenerator, error) {
	switch strategy {
	case "", StrategyTimestamp:
		return NewTimestampGenerator(time.Now), nil
	case StrategyUUID:
		return UUIDGenerator{}, nil
	case StrategyNanoID:
		return NanoIDGenerator{}, nil
	case StrategyCounter:
		return NewCounterGenerator(time.Now()), nil
	default:
		return nil, fmt.Errorf("unknown session id strategy %q", strategy)
	}
}

// TimestampGenerator yields YYYYMMDDhhmmss followed by a random number in
// [0, 999]. Two ids minted in the same second may collide.
type TimestampGenerator struct {
	now  func() time.Time
	rand func() int
}

func NewTimestampGenerator(now func() time.Time) *TimestampGenerator {
	return &TimestampGenerator{
		now:  now,
		rand: func() int { return rand.IntN(1000) },
	}
}

func (g *TimestampGenerator) NewID() string {
	return fmt.Sprintf("%s%d", g.now().UTC().Format(timestampLayout), g.rand())
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

type NanoIDGenerator struct{}

func (NanoIDGenerator) NewID() string {
	id, err := gonanoid.New()
	if err != nil {
		return uuid.NewString()
	}
	return id
}

// CounterGenerator is unique within one process; the start stamp keeps
// ids apart across restarts.
type CounterGenerator struct {
	prefix string
	n      atomic.Uint64
}

func NewCounterGenerator(start time.Time) *CounterGenerator {
	return &CounterGenerator{prefix: start.UTC().Format(timestampLayout)}
}

func (g *CounterGenerator) NewID() string {
	return fmt.Sprintf("%s-%06d", g.prefix, g.n.Add(1))
}
