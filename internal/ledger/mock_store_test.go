package ledger

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"stockledger/internal/database"
	"stockledger/internal/model"
)

// mockStore is an in-memory Store with the same revision-guard contract as
// database.Database: writes conditioned on a stale Revision fail with
// database.ErrNoDocumentsModified, and creating a name that exists fails
// with a duplicate key error.
type mockStore struct {
	mu    sync.Mutex
	items map[string]model.Item
	order []string
	txns  []model.Transaction
	seq   int64

	// forceConflicts makes the next N guarded writes fail as if a
	// concurrent writer had moved the revision.
	forceConflicts int
}

func newMockStore() *mockStore {
	return &mockStore{items: map[string]model.Item{}}
}

func itemKey(ownerID primitive.ObjectID, name string) string {
	return ownerID.Hex() + "/" + name
}

func (m *mockStore) nextTime() primitive.DateTime {
	m.seq++
	return primitive.DateTime(m.seq)
}

func (m *mockStore) conflictInjected() bool {
	if m.forceConflicts > 0 {
		m.forceConflicts--
		return true
	}
	return false
}

func (m *mockStore) ItemFind(ctx context.Context, ownerID primitive.ObjectID, name string) (model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.items[itemKey(ownerID, name)]
	if !ok {
		return model.Item{}, errors.Wrapf(mongo.ErrNoDocuments, "error finding Item with name: %s", name)
	}
	return i, nil
}

func (m *mockStore) ItemCreateWithTransaction(ctx context.Context, i model.Item, t model.Transaction) (model.Item, model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := itemKey(i.OwnerID, i.Name)
	if _, ok := m.items[key]; ok {
		return model.Item{}, model.Transaction{},
			mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
	}
	i.ID = primitive.NewObjectID()
	i.Revision = 1
	i.UpdatedAt = m.nextTime()
	m.items[key] = i
	m.order = append(m.order, key)
	t.ID = primitive.NewObjectID()
	t.Time = i.UpdatedAt
	m.txns = append(m.txns, t)
	return i, t, nil
}

func (m *mockStore) ItemUpdateWithTransaction(ctx context.Context, i model.Item, t model.Transaction) (model.Item, model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := itemKey(i.OwnerID, i.Name)
	stored, ok := m.items[key]
	if m.conflictInjected() || !ok || stored.Revision != i.Revision {
		return model.Item{}, model.Transaction{}, database.ErrNoDocumentsModified
	}
	i.Revision++
	i.UpdatedAt = m.nextTime()
	m.items[key] = i
	t.ID = primitive.NewObjectID()
	t.Time = i.UpdatedAt
	m.txns = append(m.txns, t)
	return i, t, nil
}

func (m *mockStore) ItemUpdate(ctx context.Context, i model.Item) (model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := itemKey(i.OwnerID, i.Name)
	stored, ok := m.items[key]
	if m.conflictInjected() || !ok || stored.Revision != i.Revision {
		return model.Item{}, database.ErrNoDocumentsModified
	}
	i.Revision++
	i.UpdatedAt = m.nextTime()
	m.items[key] = i
	return i, nil
}

func (m *mockStore) ItemDeleteWithTransaction(ctx context.Context, i model.Item, t model.Transaction) (model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := itemKey(i.OwnerID, i.Name)
	stored, ok := m.items[key]
	if m.conflictInjected() || !ok || stored.Revision != i.Revision {
		return model.Transaction{}, database.ErrNoDocumentsModified
	}
	delete(m.items, key)
	for n, k := range m.order {
		if k == key {
			m.order = append(m.order[:n], m.order[n+1:]...)
			break
		}
	}
	t.ID = primitive.NewObjectID()
	t.Time = m.nextTime()
	m.txns = append(m.txns, t)
	return t, nil
}

func (m *mockStore) ItemsFindPage(ctx context.Context, ownerID primitive.ObjectID, namePrefix string, cursor string, pageSize int) ([]model.Item, string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, "", false, errors.Wrap(database.ErrInvalidCursor, cursor)
		}
		start = n + 1
	}
	var page []model.Item
	last := start
	for n := start; n < len(m.order); n++ {
		i := m.items[m.order[n]]
		if i.OwnerID != ownerID || !strings.HasPrefix(i.Name, namePrefix) {
			continue
		}
		page = append(page, i)
		last = n
		if len(page) == pageSize {
			break
		}
	}
	if len(page) < pageSize {
		return page, "", false, nil
	}
	return page, strconv.Itoa(last), true, nil
}

func (m *mockStore) ItemsFindAll(ctx context.Context, ownerID primitive.ObjectID) ([]model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []model.Item
	for _, key := range m.order {
		if i := m.items[key]; i.OwnerID == ownerID {
			items = append(items, i)
		}
	}
	return items, nil
}

func (m *mockStore) TransactionsFindPage(ctx context.Context, ownerID primitive.ObjectID, namePrefix string, cursor string, pageSize int) ([]model.Transaction, string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := len(m.txns) - 1
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, "", false, errors.Wrap(database.ErrInvalidCursor, cursor)
		}
		start = n - 1
	}
	var page []model.Transaction
	last := start
	for n := start; n >= 0; n-- {
		t := m.txns[n]
		if t.OwnerID != ownerID || !strings.HasPrefix(t.Name, namePrefix) {
			continue
		}
		page = append(page, t)
		last = n
		if len(page) == pageSize {
			break
		}
	}
	if len(page) < pageSize {
		return page, "", false, nil
	}
	return page, strconv.Itoa(last), true, nil
}

// ownerTxns returns the owner's ledger oldest first, the order Replay wants.
func (m *mockStore) ownerTxns(ownerID primitive.ObjectID) []model.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	var txns []model.Transaction
	for _, t := range m.txns {
		if t.OwnerID == ownerID {
			txns = append(txns, t)
		}
	}
	return txns
}

// mockFeed records every published Item set.
type mockFeed struct {
	mu        sync.Mutex
	published [][]model.Item
}

func (f *mockFeed) Publish(ownerID string, items []model.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, items)
}

func (f *mockFeed) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}
