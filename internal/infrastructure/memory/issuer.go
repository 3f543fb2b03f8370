package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/sp3dr4/finch/internal/domain"
)

// Issuer hands out fake signed URLs without a remote service. Used in
// development mode and in tests.
type Issuer struct {
	mu            sync.Mutex
	serial        int
	expirySeconds int
	failures      map[domain.Key]int
}

func NewIssuer(expirySeconds int) *Issuer {
	return &Issuer{
		expirySeconds: expirySeconds,
		failures:      make(map[domain.Key]int),
	}
}

// FailNext makes the next n reissues of key report a per-key failure.
func (i *Issuer) FailNext(key domain.Key, n int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.failures[key] = n
}

func (i *Issuer) Reissue(_ context.Context, keys []domain.Key) (*domain.ReissueResult, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	result := &domain.ReissueResult{ExpirySeconds: i.expirySeconds}
	for _, k := range keys {
		if left := i.failures[k]; left > 0 {
			i.failures[k] = left - 1
			result.Items = append(result.Items, domain.Reissued{
				Key:   k,
				Error: "issuance unavailable",
			})
			continue
		}
		i.serial++
		result.Items = append(result.Items, domain.Reissued{
			Key:     k,
			Success: true,
			URL: fmt.Sprintf("https://cdn.finch.invalid/%s/%d?sig=%06d&exp=%d",
				k.ResourceID, k.Index, i.serial, i.expirySeconds),
		})
	}
	return result, nil
}
