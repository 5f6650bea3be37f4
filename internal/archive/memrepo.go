package archive

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/park285/nuclear-chess/pkg/viewdto"
)

// memrepo keeps records in process; it is used when no database is configured.
type memrepo struct {
	mu sync.RWMutex

	nextID int64
	byID   map[int64]*viewdto.GameRecord
	byUUID map[string]*viewdto.GameRecord
}

func NewMemoryRepository() Repository {
	return &memrepo{
		byID:   make(map[int64]*viewdto.GameRecord),
		byUUID: make(map[string]*viewdto.GameRecord),
	}
}

func (m *memrepo) InsertGame(_ context.Context, rec *viewdto.GameRecord) (int64, error) {
	if rec == nil {
		return 0, ErrDuplicateGame
	}
	key := strings.TrimSpace(rec.GameUUID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byUUID[key]; exists {
		return 0, ErrDuplicateGame
	}
	m.nextID++
	stored := clone(rec)
	stored.ID = m.nextID
	m.byID[stored.ID] = stored
	m.byUUID[key] = stored
	return stored.ID, nil
}

func (m *memrepo) GetGame(_ context.Context, id int64) (*viewdto.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.byID[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return clone(rec), nil
}

func (m *memrepo) GetRecentGames(_ context.Context, limit int) ([]*viewdto.GameRecord, error) {
	m.mu.RLock()
	items := make([]*viewdto.GameRecord, 0, len(m.byID))
	for _, rec := range m.byID {
		items = append(items, clone(rec))
	}
	m.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memrepo) Close() error { return nil }

func clone(rec *viewdto.GameRecord) *viewdto.GameRecord {
	c := *rec
	c.MovesUCI = append([]string(nil), rec.MovesUCI...)
	c.MovesSAN = append([]string(nil), rec.MovesSAN...)
	return &c
}
