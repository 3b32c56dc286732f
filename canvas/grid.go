package canvas

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/w3hc/xszc/errors"
)

// SnapshotSource is the contract-read capability the store depends on.
// The chain package provides the production implementation; tests inject
// fakes.
type SnapshotSource interface {
	// Max returns the grid half-width. The full side length is 2*max+1.
	Max(ctx context.Context) (int64, error)
	// AllPixels returns the full pixel matrix, rows running from y=max
	// down to y=-max and columns from x=-max up to x=max.
	AllPixels(ctx context.Context) ([][]uint8, error)
}

// Affordance is the derived tri-state submission affordance. Exactly one
// pending cell may be submitted at a time; anything more only offers reset.
type Affordance int

const (
	// AffordanceNone: working copy matches the snapshot, nothing to do.
	AffordanceNone Affordance = iota
	// AffordanceSubmit: exactly one on-grid cell differs from the snapshot.
	AffordanceSubmit
	// AffordanceReset: two or more cells differ; only reset is offered.
	AffordanceReset
	// AffordanceOffGrid: the single pending cell lies outside the
	// contract's current bounds. Nothing to submit; shown distinctly.
	AffordanceOffGrid
)

func (a Affordance) String() string {
	switch a {
	case AffordanceNone:
		return "none"
	case AffordanceSubmit:
		return "submit"
	case AffordanceReset:
		return "reset"
	case AffordanceOffGrid:
		return "off-grid"
	default:
		return "unknown"
	}
}

// Store holds the authoritative grid snapshot last read from the contract
// and the locally mutated working copy, and tracks the set of cells where
// the two disagree. There is exactly one writer (the UI's logical thread);
// the mutex exists because snapshot loads complete on arbitrary goroutines.
type Store struct {
	source SnapshotSource

	fetchSeq atomic.Uint64

	mu         sync.Mutex
	appliedSeq uint64
	loaded     bool
	max        int64
	snapshot   map[Coord]Color
	working    map[Coord]Color
	modified   map[Coord]struct{}
}

// NewStore creates an empty store backed by the given snapshot source.
func NewStore(source SnapshotSource) *Store {
	return &Store{
		source:   source,
		snapshot: make(map[Coord]Color),
		working:  make(map[Coord]Color),
		modified: make(map[Coord]struct{}),
	}
}

// LoadSnapshot fetches the authoritative grid state and replaces the
// snapshot wholesale, discarding the working copy and the modified set.
// Each fetch is tagged with a monotonically increasing sequence number;
// a fetch that completes after a later-started one has already applied is
// discarded, so a stale snapshot can never overwrite a fresher one.
func (s *Store) LoadSnapshot(ctx context.Context) error {
	seq := s.fetchSeq.Add(1)

	max, err := s.source.Max(ctx)
	if err != nil {
		return errors.Wrap(errors.Wrap(errors.ErrLoad, err.Error()), "reading grid size")
	}
	pixels, err := s.source.AllPixels(ctx)
	if err != nil {
		return errors.Wrap(errors.Wrap(errors.ErrLoad, err.Error()), "reading pixel matrix")
	}

	snap := snapshotFromMatrix(pixels, max)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.appliedSeq {
		// An overlapping, later-started load already applied.
		return nil
	}
	s.appliedSeq = seq
	s.loaded = true
	s.max = max
	s.snapshot = snap
	s.working = cloneCells(snap)
	s.modified = make(map[Coord]struct{})
	return nil
}

// ReconcileAfterConfirmation refreshes the authoritative state after a
// relay submission confirmed on-chain. Callers must invoke it only after
// the relay response is received.
func (s *Store) ReconcileAfterConfirmation(ctx context.Context) error {
	return s.LoadSnapshot(ctx)
}

// ApplyLocalEdit advances a cell's working-copy color through the fixed
// cycle and returns the new color. Cycling a cell back to its snapshot
// value removes it from the modified set.
func (s *Store) ApplyLocalEdit(c Coord) Color {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.working[c].Next()
	if next == Empty {
		delete(s.working, c)
	} else {
		s.working[c] = next
	}

	if next == s.snapshot[c] {
		delete(s.modified, c)
	} else {
		s.modified[c] = struct{}{}
	}
	return next
}

// Reset discards all local edits, restoring the working copy to the last
// loaded snapshot.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.working = cloneCells(s.snapshot)
	s.modified = make(map[Coord]struct{})
}

// Affordance derives the submission affordance from the modified set.
func (s *Store) Affordance() Affordance {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch len(s.modified) {
	case 0:
		return AffordanceNone
	case 1:
		for c := range s.modified {
			if !s.onGridLocked(c) {
				return AffordanceOffGrid
			}
		}
		return AffordanceSubmit
	default:
		return AffordanceReset
	}
}

// PendingEdit returns the single pending cell and its working-copy color.
// ok is false unless exactly one cell is modified.
func (s *Store) PendingEdit() (c Coord, color Color, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.modified) != 1 {
		return Coord{}, Empty, false
	}
	for pending := range s.modified {
		return pending, s.working[pending], true
	}
	return Coord{}, Empty, false
}

// OnGrid reports whether the cell lies inside the contract's current
// bounds. The positive boundary is exclusive: with max=8, x=7 is the last
// on-grid column and x=8 is off the grid.
func (s *Store) OnGrid(c Coord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onGridLocked(c)
}

func (s *Store) onGridLocked(c Coord) bool {
	if !s.loaded {
		return false
	}
	return c.X >= -s.max && c.X < s.max && c.Y >= -s.max && c.Y < s.max
}

// WorkingColor returns the working-copy color of a cell.
func (s *Store) WorkingColor(c Coord) Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working[c]
}

// SnapshotColor returns the authoritative color of a cell.
func (s *Store) SnapshotColor(c Coord) Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot[c]
}

// ModifiedCount returns the cardinality of the modified set.
func (s *Store) ModifiedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.modified)
}

// ModifiedKeys returns the modified set as display keys, for UI and logs.
func (s *Store) ModifiedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.modified))
	for c := range s.modified {
		keys = append(keys, c.String())
	}
	return keys
}

// Max returns the grid half-width from the last loaded snapshot.
func (s *Store) Max() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.max
}

// Loaded reports whether a snapshot has been loaded at least once.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// WorkingCells returns a copy of the non-empty working-copy cells, for
// rendering.
func (s *Store) WorkingCells() map[Coord]Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCells(s.working)
}

// snapshotFromMatrix converts the contract's row-major pixel matrix into a
// sparse cell map. Row 0 is y=max, column 0 is x=-max; zero (Empty) entries
// are skipped so the sparse-store invariant holds by construction.
func snapshotFromMatrix(pixels [][]uint8, max int64) map[Coord]Color {
	cells := make(map[Coord]Color)
	for row := range pixels {
		y := max - int64(row)
		for col := range pixels[row] {
			if pixels[row][col] == 0 {
				continue
			}
			x := -max + int64(col)
			cells[Coord{X: x, Y: y}] = Color(pixels[row][col])
		}
	}
	return cells
}

func cloneCells(cells map[Coord]Color) map[Coord]Color {
	out := make(map[Coord]Color, len(cells))
	for c, color := range cells {
		out[c] = color
	}
	return out
}
