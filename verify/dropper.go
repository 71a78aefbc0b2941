package verify

import (
	"slices"

	"github.com/sarchlab/spadverify/api"
)

// FenceDropper forwards every call to Port except the fences whose index,
// counted from 0, is listed in Skip.
type FenceDropper struct {
	api.Port
	Skip []int

	count int
}

// Fence forwards the fence unless it is one to skip.
func (d *FenceDropper) Fence() {
	n := d.count
	d.count++

	if slices.Contains(d.Skip, n) {
		return
	}

	d.Port.Fence()
}
