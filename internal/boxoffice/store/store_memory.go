package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"sync"

	"boxoffice/internal/boxoffice/models"
	"boxoffice/internal/boxoffice/ports"
	"boxoffice/internal/ledger"
	id "boxoffice/pkg/domain"
	dErrors "boxoffice/pkg/domain-errors"
	"boxoffice/pkg/platform/sentinel"
)

// ErrIDSpaceExhausted is returned when a sequence counter cannot advance.
var ErrIDSpaceExhausted = errors.New("identifier space exhausted")

type state struct {
	shows    map[id.ShowID]models.Show
	passes   map[id.PassID]models.Pass
	indexes  map[id.ShowID][]id.PassID
	pool     models.Pool
	lastShow id.ShowID
	lastPass id.PassID
}

// InMemoryStore keeps registry state in process. One mutex serializes every
// transaction; writes go to an overlay that is merged only after the ledger
// batch commits.
type InMemoryStore struct {
	mu     sync.RWMutex
	state  *state
	ledger ledger.Participant
}

func NewInMemoryStore(participant ledger.Participant) *InMemoryStore {
	return &InMemoryStore{
		state: &state{
			shows:   make(map[id.ShowID]models.Show),
			passes:  make(map[id.PassID]models.Pass),
			indexes: make(map[id.ShowID][]id.PassID),
		},
		ledger: participant,
	}
}

func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(store ports.Store, ledger ports.Ledger) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch, err := s.ledger.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ledger batch: %w", err)
	}
	// Releases the ledger if fn panics. No-op once committed or rolled back.
	defer func() { _ = batch.Rollback() }()

	tx := newMemoryTx(s.state)
	if err := fn(tx, batch); err != nil {
		if rbErr := batch.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback ledger batch: %w", rbErr))
		}
		return err
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("commit ledger batch: %w", err)
	}
	tx.apply(s.state)
	return nil
}

func (s *InMemoryStore) View(ctx context.Context, fn func(store ports.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "read aborted: context cancelled")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(newMemoryTx(s.state))
}

// memoryTx reads through to the committed state and buffers its own writes.
type memoryTx struct {
	base     *state
	shows    map[id.ShowID]models.Show
	passes   map[id.PassID]models.Pass
	indexes  map[id.ShowID][]id.PassID
	pool     *models.Pool
	lastShow id.ShowID
	lastPass id.PassID
}

func newMemoryTx(base *state) *memoryTx {
	return &memoryTx{
		base:     base,
		shows:    make(map[id.ShowID]models.Show),
		passes:   make(map[id.PassID]models.Pass),
		indexes:  make(map[id.ShowID][]id.PassID),
		lastShow: base.lastShow,
		lastPass: base.lastPass,
	}
}

func (t *memoryTx) apply(dst *state) {
	maps.Copy(dst.shows, t.shows)
	maps.Copy(dst.passes, t.passes)
	maps.Copy(dst.indexes, t.indexes)
	if t.pool != nil {
		dst.pool = *t.pool
	}
	dst.lastShow = t.lastShow
	dst.lastPass = t.lastPass
}

func (t *memoryTx) FindShow(_ context.Context, showID id.ShowID) (*models.Show, error) {
	show, ok := t.shows[showID]
	if !ok {
		show, ok = t.base.shows[showID]
	}
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &show, nil
}

func (t *memoryTx) FindPass(_ context.Context, passID id.PassID) (*models.Pass, error) {
	pass, ok := t.passes[passID]
	if !ok {
		pass, ok = t.base.passes[passID]
	}
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &pass, nil
}

func (t *memoryTx) FindShowIndex(_ context.Context, showID id.ShowID) (*models.ShowIndex, error) {
	ids, ok := t.indexes[showID]
	if !ok {
		ids = t.base.indexes[showID]
	}
	return &models.ShowIndex{ShowID: showID, PassIDs: slices.Clone(ids)}, nil
}

func (t *memoryTx) LoadPool(_ context.Context) (models.Pool, error) {
	if t.pool != nil {
		return *t.pool, nil
	}
	return t.base.pool, nil
}

func (t *memoryTx) NextShowID(_ context.Context) (id.ShowID, error) {
	if t.lastShow == math.MaxUint64 {
		return 0, ErrIDSpaceExhausted
	}
	t.lastShow++
	return t.lastShow, nil
}

func (t *memoryTx) NextPassID(_ context.Context) (id.PassID, error) {
	if t.lastPass == math.MaxUint64 {
		return 0, ErrIDSpaceExhausted
	}
	t.lastPass++
	return t.lastPass, nil
}

func (t *memoryTx) SaveShow(_ context.Context, show *models.Show) error {
	if show == nil || show.ID.IsNil() {
		return errors.New("save show: missing id")
	}
	t.shows[show.ID] = *show
	return nil
}

func (t *memoryTx) SavePass(_ context.Context, pass *models.Pass) error {
	if pass == nil || pass.ID.IsNil() {
		return errors.New("save pass: missing id")
	}
	t.passes[pass.ID] = *pass
	return nil
}

func (t *memoryTx) SaveShowIndex(_ context.Context, index *models.ShowIndex) error {
	if index == nil || index.ShowID.IsNil() {
		return errors.New("save show index: missing show id")
	}
	t.indexes[index.ShowID] = slices.Clone(index.PassIDs)
	return nil
}

func (t *memoryTx) SavePool(_ context.Context, pool models.Pool) error {
	t.pool = &pool
	return nil
}
