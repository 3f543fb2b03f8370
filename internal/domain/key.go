package domain

import "fmt"

// Key identifies one URL slot: a resource plus the position of the
// asset within it. Stable for the lifetime of the resource.
type Key struct {
	ResourceID string
	Index      int
}

func (k Key) String() string {
	return fmt.Sprintf("%s#%d", k.ResourceID, k.Index)
}
