package memory

import "sync"

// table — упорядоченная in-memory таблица с целочисленным первичным ключом.
// Наружу строки отдаются только копиями, поэтому изменения вызывающего кода
// не попадают в хранилище без явного update.
type table[T any] struct {
	mu       sync.RWMutex
	rows     []T
	id       func(T) int64
	setID    func(*T, int64)
	notFound error
}

func newTable[T any](id func(T) int64, setID func(*T, int64), notFound error, seed []T) *table[T] {
	rows := make([]T, len(seed))
	copy(rows, seed)
	return &table[T]{rows: rows, id: id, setID: setID, notFound: notFound}
}

func (t *table[T]) all() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]T, len(t.rows))
	copy(result, t.rows)
	return result
}

func (t *table[T]) where(match func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]T, 0)
	for _, row := range t.rows {
		if match(row) {
			result = append(result, row)
		}
	}
	return result
}

func (t *table[T]) find(id int64) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if idx := t.indexOf(id); idx >= 0 {
		return t.rows[idx], nil
	}
	var zero T
	return zero, t.notFound
}

// insert присваивает строке max(id)+1 (или 1 для пустой таблицы) и сохраняет копию.
func (t *table[T]) insert(row T) T {
	t.mu.Lock()
	defer t.mu.Unlock()

	var next int64 = 1
	for _, existing := range t.rows {
		if id := t.id(existing); id >= next {
			next = id + 1
		}
	}
	t.setID(&row, next)
	t.rows = append(t.rows, row)
	return row
}

func (t *table[T]) update(row T) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.indexOf(t.id(row))
	if idx < 0 {
		var zero T
		return zero, t.notFound
	}
	t.rows[idx] = row
	return row, nil
}

// remove удаляет строку и возвращает её последнее состояние.
func (t *table[T]) remove(id int64) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.indexOf(id)
	if idx < 0 {
		var zero T
		return zero, t.notFound
	}
	removed := t.rows[idx]
	t.rows = append(t.rows[:idx], t.rows[idx+1:]...)
	return removed, nil
}

func (t *table[T]) count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// indexOf вызывается под блокировкой.
func (t *table[T]) indexOf(id int64) int {
	for i, row := range t.rows {
		if t.id(row) == id {
			return i
		}
	}
	return -1
}

// page реализует наивный skip/take: отрицательный start трактуется как 0,
// pageSize <= 0 даёт пустую страницу.
func page[T any](rows []T, start, pageSize int) []T {
	if start < 0 {
		start = 0
	}
	if pageSize <= 0 || start >= len(rows) {
		return rows[:0]
	}
	if pageSize > len(rows)-start {
		return rows[start:]
	}
	return rows[start : start+pageSize]
}
