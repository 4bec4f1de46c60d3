package ordering_test

import (
	"context"
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/rezkam/boardly/internal/application/ordering"
	"github.com/rezkam/boardly/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Random create/reorder/move/delete sequences are checked after every step
// against a plain slice model: same order, unique positions, no gaps, and
// rejected operations change nothing.
func TestEngine_RandomOperationsKeepPositionsDense(t *testing.T) {
	for _, seed := range []uint64{1, 7, 42, 1337} {
		t.Run(fmt.Sprintf("cards/seed=%d", seed), func(t *testing.T) {
			runRandomOperations(t, newCardHarness(t, "l1", "l2", "l3"), seed)
		})
		t.Run(fmt.Sprintf("lists/seed=%d", seed), func(t *testing.T) {
			runRandomOperations(t, newListHarness(t, "b1", "b2", "b3"), seed)
		})
	}
}

func runRandomOperations[T domain.Positioned](t *testing.T, h *harness[T], seed uint64) {
	const (
		steps       = 150
		maxChildren = 6
	)
	ctx := context.Background()
	e := h.engine(ordering.StaticLimits{h.kind: maxChildren}, fastRetry)
	rng := rand.New(rand.NewPCG(seed, seed*31+7))

	model := make(map[string][]string)
	parentOf := make(map[string]string)
	next := 0

	for step := range steps {
		parent := h.parents[rng.IntN(len(h.parents))]
		existing := slices.Sorted(maps.Keys(parentOf))
		op := rng.IntN(5)
		if len(existing) == 0 {
			op = 0
		}

		switch op {
		case 0: // create
			id := fmt.Sprintf("n%d", next)
			next++
			_, err := e.Create(ctx, h.newChild(id, parent))
			if len(model[parent]) >= maxChildren {
				require.ErrorIs(t, err, domain.ErrLimitExceeded, "step %d", step)
				break
			}
			require.NoError(t, err, "step %d", step)
			model[parent] = append(model[parent], id)
			parentOf[id] = parent

		case 1: // reorder within own container, including the "append" bound
			id := existing[rng.IntN(len(existing))]
			src := parentOf[id]
			n := len(model[src])
			pos := rng.IntN(n + 1)
			_, err := e.Reorder(ctx, id, pos)
			require.NoError(t, err, "step %d", step)
			model[src] = moveWithin(model[src], id, min(pos, n-1))

		case 2: // move, possibly into the same container
			id := existing[rng.IntN(len(existing))]
			src := parentOf[id]
			if parent == src {
				n := len(model[src])
				pos := rng.IntN(n + 1)
				_, err := e.Move(ctx, id, parent, pos)
				require.NoError(t, err, "step %d", step)
				model[src] = moveWithin(model[src], id, min(pos, n-1))
				break
			}
			targetCount := len(model[parent])
			pos := rng.IntN(targetCount + 1)
			_, err := e.Move(ctx, id, parent, pos)
			if targetCount >= maxChildren {
				require.ErrorIs(t, err, domain.ErrLimitExceeded, "step %d", step)
				break
			}
			require.NoError(t, err, "step %d", step)
			model[src] = remove(model[src], id)
			model[parent] = slices.Insert(model[parent], pos, id)
			parentOf[id] = parent

		case 3: // delete
			id := existing[rng.IntN(len(existing))]
			require.NoError(t, e.Delete(ctx, id), "step %d", step)
			model[parentOf[id]] = remove(model[parentOf[id]], id)
			delete(parentOf, id)

		case 4: // invalid targets are rejected and leave everything as is
			id := existing[rng.IntN(len(existing))]
			n := len(model[parentOf[id]])
			_, err := e.Reorder(ctx, id, n+1+rng.IntN(3))
			require.ErrorIs(t, err, domain.ErrPositionOutOfRange, "step %d", step)
			_, err = e.Reorder(ctx, id, -1-rng.IntN(3))
			require.ErrorIs(t, err, domain.ErrPositionInvalid, "step %d", step)
		}

		for _, p := range h.parents {
			want := model[p]
			if want == nil {
				want = []string{}
			}
			require.Equal(t, want, h.order(t, e, p), "step %d parent %s", step, p)
			h.requireDense(t, e, p)
		}
	}
}

func moveWithin(order []string, id string, to int) []string {
	order = remove(order, id)
	return slices.Insert(order, to, id)
}

func remove(order []string, id string) []string {
	i := slices.Index(order, id)
	return slices.Delete(slices.Clone(order), i, i+1)
}

// Moving a child to its current position writes nothing and bumps no version.
func TestEngine_NoOpMove(t *testing.T) {
	t.Run("cards", func(t *testing.T) { testNoOpMove(t, newCardHarness(t, "l1")) })
	t.Run("lists", func(t *testing.T) { testNoOpMove(t, newListHarness(t, "b1")) })
}

func testNoOpMove[T domain.Positioned](t *testing.T, h *harness[T]) {
	ctx := context.Background()
	rec := &recorder{}
	e := ordering.NewEngine(recording(h.tx, rec), ordering.Config{Kind: h.kind, Retry: fastRetry})
	parent := h.parents[0]
	ids := h.fill(t, e, parent, "x", 4)
	before := h.versions(t, e, parent)
	writes := rec.writeCount()

	for i, id := range ids {
		child, err := e.Reorder(ctx, id, i)
		require.NoError(t, err)
		assert.Equal(t, before[id], child.Slot().Version)

		_, err = e.Move(ctx, id, parent, i)
		require.NoError(t, err)
		_, err = e.Move(ctx, id, "", i)
		require.NoError(t, err)
	}
	// The last child asked to go to "the end" is already there.
	_, err := e.Reorder(ctx, ids[3], 4)
	require.NoError(t, err)

	assert.Equal(t, writes, rec.writeCount())
	assert.Equal(t, before, h.versions(t, e, parent))
}

// Moving X from p to q and back restores the original order.
func TestEngine_RoundTripMove(t *testing.T) {
	t.Run("cards", func(t *testing.T) { testRoundTrip(t, newCardHarness(t, "l1")) })
	t.Run("lists", func(t *testing.T) { testRoundTrip(t, newListHarness(t, "b1")) })
}

func testRoundTrip[T domain.Positioned](t *testing.T, h *harness[T]) {
	ctx := context.Background()
	e := h.engine(nil, fastRetry)
	parent := h.parents[0]
	original := h.fill(t, e, parent, "x", 5)

	for p := range original {
		for q := range original {
			id := original[p]
			_, err := e.Reorder(ctx, id, q)
			require.NoError(t, err)
			_, err = e.Reorder(ctx, id, p)
			require.NoError(t, err)
			require.Equal(t, original, h.order(t, e, parent), "round trip %d -> %d", p, q)
		}
	}
	h.requireDense(t, e, parent)
}

// Create, clone and cross-container move into a full container fail with
// LimitExceeded and leave the container unchanged.
func TestEngine_CapacityIsEnforced(t *testing.T) {
	t.Run("cards", func(t *testing.T) { testCapacity(t, newCardHarness(t, "l1", "l2")) })
	t.Run("lists", func(t *testing.T) { testCapacity(t, newListHarness(t, "b1", "b2")) })
}

func testCapacity[T domain.Positioned](t *testing.T, h *harness[T]) {
	ctx := context.Background()
	e := h.engine(ordering.StaticLimits{h.kind: 3}, fastRetry)
	full, other := h.parents[0], h.parents[1]
	h.fill(t, e, full, "f", 3)
	h.fill(t, e, other, "o", 1)
	fullBefore := h.versions(t, e, full)
	otherBefore := h.versions(t, e, other)

	_, err := e.Create(ctx, h.newChild("extra", full))
	assert.ErrorIs(t, err, domain.ErrLimitExceeded)

	build := func(_ T, parentID string, position int) (T, error) {
		return h.newChild("copy", parentID), nil
	}
	_, err = e.Clone(ctx, "f0", "", build)
	assert.ErrorIs(t, err, domain.ErrLimitExceeded)
	_, err = e.Clone(ctx, "o0", full, build)
	assert.ErrorIs(t, err, domain.ErrLimitExceeded)

	for pos := range 4 {
		_, err = e.Move(ctx, "o0", full, pos)
		assert.ErrorIs(t, err, domain.ErrLimitExceeded, "position %d", pos)
	}

	assert.Equal(t, fullBefore, h.versions(t, e, full))
	assert.Equal(t, otherBefore, h.versions(t, e, other))
	assert.Equal(t, []string{"f0", "f1", "f2"}, h.order(t, e, full))
}
