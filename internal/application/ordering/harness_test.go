package ordering_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rezkam/boardly/internal/application/board"
	"github.com/rezkam/boardly/internal/application/ordering"
	"github.com/rezkam/boardly/internal/domain"
	"github.com/rezkam/boardly/internal/infrastructure/persistence/memory"
	"github.com/stretchr/testify/require"
)

// fastRetry keeps conflict backoff short in tests.
var fastRetry = ordering.RetryConfig{MaxRetries: 5, BaseDelay: time.Millisecond}

// harness drives one container kind through the same generic assertions.
type harness[T domain.Positioned] struct {
	name     string
	kind     domain.ContainerKind
	store    *memory.Store
	tx       ordering.Transactor[T]
	newChild func(id, parentID string) T
	parents  []string
}

func (h *harness[T]) engine(limits ordering.StaticLimits, retry ordering.RetryConfig) *ordering.Engine[T] {
	return ordering.NewEngine(h.tx, ordering.Config{Kind: h.kind, Limits: limits, Retry: retry})
}

func (h *harness[T]) order(t *testing.T, e *ordering.Engine[T], parentID string) []string {
	t.Helper()
	children, err := e.Layout(context.Background(), parentID)
	require.NoError(t, err)
	out := make([]string, len(children))
	for i, c := range children {
		out[i] = c.Slot().ID
	}
	return out
}

func (h *harness[T]) versions(t *testing.T, e *ordering.Engine[T], parentID string) map[string]int {
	t.Helper()
	children, err := e.Layout(context.Background(), parentID)
	require.NoError(t, err)
	out := make(map[string]int, len(children))
	for _, c := range children {
		out[c.Slot().ID] = c.Slot().Version
	}
	return out
}

// requireDense fails unless the positions of parentID are exactly 0..n-1.
func (h *harness[T]) requireDense(t *testing.T, e *ordering.Engine[T], parentID string) {
	t.Helper()
	children, err := e.Layout(context.Background(), parentID)
	require.NoError(t, err)
	seen := make(map[int]string, len(children))
	for i, c := range children {
		slot := c.Slot()
		if other, dup := seen[slot.Position]; dup {
			t.Fatalf("%s and %s share position %d in %s", other, slot.ID, slot.Position, parentID)
		}
		seen[slot.Position] = slot.ID
		require.Equal(t, i, slot.Position, "gap in %s: %v", parentID, h.order(t, e, parentID))
	}
}

// fill appends children named <prefix>0..<prefix>n-1 to parentID.
func (h *harness[T]) fill(t *testing.T, e *ordering.Engine[T], parentID, prefix string, n int) []string {
	t.Helper()
	out := make([]string, n)
	for i := range n {
		id := fmt.Sprintf("%s%d", prefix, i)
		_, err := e.Create(context.Background(), h.newChild(id, parentID))
		require.NoError(t, err)
		out[i] = id
	}
	return out
}

// newCardHarness seeds a board with the given lists.
func newCardHarness(t *testing.T, listIDs ...string) *harness[*domain.Card] {
	t.Helper()
	store := memory.NewStore()
	seedBoard(t, store, "b1")
	lists := ordering.NewEngine(board.ListTransactor(store), ordering.Config{Kind: domain.KindBoardLists})
	for _, id := range listIDs {
		_, err := lists.Create(context.Background(), &domain.BoardList{ID: id, BoardID: "b1", Title: id})
		require.NoError(t, err)
	}
	return &harness[*domain.Card]{
		name:  "cards",
		kind:  domain.KindCards,
		store: store,
		tx:    board.CardTransactor(store),
		newChild: func(id, parentID string) *domain.Card {
			return &domain.Card{ID: id, ListID: parentID, Title: id}
		},
		parents: listIDs,
	}
}

// newListHarness seeds the given boards.
func newListHarness(t *testing.T, boardIDs ...string) *harness[*domain.BoardList] {
	t.Helper()
	store := memory.NewStore()
	for _, id := range boardIDs {
		seedBoard(t, store, id)
	}
	return &harness[*domain.BoardList]{
		name:  "lists",
		kind:  domain.KindBoardLists,
		store: store,
		tx:    board.ListTransactor(store),
		newChild: func(id, parentID string) *domain.BoardList {
			return &domain.BoardList{ID: id, BoardID: parentID, Title: id}
		},
		parents: boardIDs,
	}
}

func seedBoard(t *testing.T, store *memory.Store, id string) {
	t.Helper()
	err := store.Atomic(context.Background(), func(repo board.Repository) error {
		_, err := repo.CreateBoard(context.Background(), &domain.Board{ID: id, Title: id, CreatedAt: time.Now().UTC()})
		return err
	})
	require.NoError(t, err)
}

// recordingRepo counts writes and can hold count reads at a barrier so two
// units observe the same state before either writes.
type recordingRepo[T domain.Positioned] struct {
	ordering.Repository[T]
	rec *recorder
}

type recorder struct {
	mu      sync.Mutex
	writes  int
	gate    chan struct{} // non-nil while armed
	arrived int
	parties int
}

// arm makes the next parties count reads block until all of them arrived.
func (r *recorder) arm(parties int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gate = make(chan struct{})
	r.arrived = 0
	r.parties = parties
}

func (r *recorder) wait() {
	r.mu.Lock()
	gate := r.gate
	if gate == nil {
		r.mu.Unlock()
		return
	}
	r.arrived++
	if r.arrived == r.parties {
		close(gate)
		r.gate = nil
	}
	r.mu.Unlock()
	<-gate
}

func (r *recorder) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

func (r *recordingRepo[T]) CountByParent(ctx context.Context, parentID string) (int, error) {
	n, err := r.Repository.CountByParent(ctx, parentID)
	r.rec.wait()
	return n, err
}

func (r *recordingRepo[T]) Insert(ctx context.Context, child T) error {
	r.rec.mu.Lock()
	r.rec.writes++
	r.rec.mu.Unlock()
	return r.Repository.Insert(ctx, child)
}

func (r *recordingRepo[T]) SaveAll(ctx context.Context, children []T) error {
	r.rec.mu.Lock()
	r.rec.writes += len(children)
	r.rec.mu.Unlock()
	return r.Repository.SaveAll(ctx, children)
}

func (r *recordingRepo[T]) Delete(ctx context.Context, child T) error {
	r.rec.mu.Lock()
	r.rec.writes++
	r.rec.mu.Unlock()
	return r.Repository.Delete(ctx, child)
}

func recording[T domain.Positioned](inner ordering.Transactor[T], rec *recorder) ordering.Transactor[T] {
	return ordering.TransactorFunc[T](func(ctx context.Context, fn func(repo ordering.Repository[T]) error) error {
		return inner.Atomic(ctx, func(repo ordering.Repository[T]) error {
			return fn(&recordingRepo[T]{Repository: repo, rec: rec})
		})
	})
}
