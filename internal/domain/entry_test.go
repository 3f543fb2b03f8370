package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyString(t *testing.T) {
	key := Key{ResourceID: "case1", Index: 3}
	assert.Equal(t, "case1#3", key.String())
}

func TestEntryFreshness(t *testing.T) {
	created := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	ent := Entry{
		URL:       "https://signed.example/a",
		CreatedAt: created,
		TTL:       3 * time.Minute,
	}

	assert.Equal(t, created.Add(3*time.Minute), ent.ExpiresAt())
	assert.True(t, ent.Fresh(created))
	assert.True(t, ent.Fresh(created.Add(179*time.Second)))
	assert.False(t, ent.Fresh(created.Add(3*time.Minute)))
	assert.False(t, ent.Fresh(created.Add(time.Hour)))
}
