package rti

import (
	"github.com/gonmpc/rti/arena"
	"github.com/gonmpc/rti/dims"
	"github.com/gonmpc/rti/iterate"
	"github.com/gonmpc/rti/stats"
)

// Memory is the arena-backed portion of the driver's state: the
// current iterate, the LEVEL_A backup iterate (spec.md §9's "an
// implementer may offer a snapshot/restore helper using an additional
// pre-allocated iterate slot"), and the statistics ring. qp.In/qp.Out
// are deliberately excluded: they wrap gonum/mat matrices which
// allocate on their own terms, so a literal zero-heap-allocation
// contract across the whole driver would need a gonum-compatible
// arena-backed matrix type. Iterate and the stats ring — the state
// that persists across the steady-state control cycle — are the
// pieces spec.md §9's REDESIGN FLAGS explicitly calls out for the
// typed bump allocator, and those are what this type arena-backs.
type Memory struct {
	Iterate *iterate.Iterate
	Backup  *iterate.Iterate
	Stats   *stats.Table

	IsFirstCall bool
	Iter        int
	Status      int
}

// MemoryCalculateSize returns the arena footprint of NewMemoryInArena.
func MemoryCalculateSize(d dims.Dims, statRows int, extQPRes, logNLPRes bool) int {
	return 2*iterate.Size(d) + stats.Size(statRows, stats.N(extQPRes, logNLPRes))
}

// NewMemoryInArena carves a Memory out of a, zero-initialized, with
// nlp_status = READY and is_first_call = true (spec.md §8's
// memory_assign invariant).
func NewMemoryInArena(a *arena.Arena, d dims.Dims, statRows int, extQPRes, logNLPRes bool) *Memory {
	return &Memory{
		Iterate:     iterate.NewInArena(a, d),
		Backup:      iterate.NewInArena(a, d),
		Stats:       stats.NewInArena(a, statRows, stats.N(extQPRes, logNLPRes), extQPRes, logNLPRes),
		IsFirstCall: true,
		Status:      StatusReady,
	}
}
