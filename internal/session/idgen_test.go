// internal/session/idgen_test.go
package session

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampGenerator(t *testing.T) {
	at := time.Date(2024, 3, 9, 7, 5, 1, 0, time.UTC)
	gen := NewTimestampGenerator(func() time.Time { return at })

	gen.rand = func() int { return 42 }
	assert.Equal(t, "2024030907050142", gen.NewID())

	gen.rand = func() int { return 999 }
	assert.Equal(t, "20240309070501999", gen.NewID())

	gen = NewTimestampGenerator(func() time.Time { return at })
	pattern := regexp.MustCompile(`^20240309070501\d{1,3}$`)
	for i := 0; i < 100; i++ {
		assert.Regexp(t, pattern, gen.NewID())
	}
}

func TestCounterGenerator(t *testing.T) {
	gen := NewCounterGenerator(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "20240101000000-000001", gen.NewID())
	assert.Equal(t, "20240101000000-000002", gen.NewID())
}

func TestNewIDGenerator(t *testing.T) {
	for _, strategy := range []string{"", StrategyTimestamp, StrategyUUID, StrategyNanoID, StrategyCounter} {
		t.Run(strategy, func(t *testing.T) {
			gen, err := NewIDGenerator(strategy)
			require.NoError(t, err)

			seen := map[string]bool{}
			for i := 0; i < 20; i++ {
				id := gen.NewID()
				assert.NoError(t, ValidateID(id))
				seen[id] = true
			}
			if strategy == StrategyUUID || strategy == StrategyNanoID || strategy == StrategyCounter {
				assert.Len(t, seen, 20)
			}
		})
	}

	_, err := NewIDGenerator("sequential")
	assert.Error(t, err)
}
