package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/finch/internal/domain"
)

func TestIssuer_Reissue(t *testing.T) {
	issuer := NewIssuer(120)
	keys := []domain.Key{
		{ResourceID: "case1", Index: 0},
		{ResourceID: "case1", Index: 1},
	}

	res, err := issuer.Reissue(context.Background(), keys)
	require.NoError(t, err)
	assert.Equal(t, 120, res.ExpirySeconds)
	require.Len(t, res.Items, 2)

	seen := make(map[string]bool)
	for i, item := range res.Items {
		assert.Equal(t, keys[i], item.Key)
		assert.True(t, item.Success)
		assert.Contains(t, item.URL, "case1")
		assert.False(t, seen[item.URL], "urls must be unique")
		seen[item.URL] = true
	}
}

func TestIssuer_FailNext(t *testing.T) {
	issuer := NewIssuer(120)
	key := domain.Key{ResourceID: "case1", Index: 0}
	issuer.FailNext(key, 2)

	for attempt := 0; attempt < 2; attempt++ {
		res, err := issuer.Reissue(context.Background(), []domain.Key{key})
		require.NoError(t, err)
		require.Len(t, res.Items, 1)
		assert.False(t, res.Items[0].Success)
		assert.NotEmpty(t, res.Items[0].Error)
	}

	// Scripted failures are consumed; the third attempt succeeds.
	res, err := issuer.Reissue(context.Background(), []domain.Key{key})
	require.NoError(t, err)
	assert.True(t, res.Items[0].Success)
	assert.NotEmpty(t, res.Items[0].URL)
}
