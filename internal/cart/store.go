package cart

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/WALKERIS/visionrpweb/internal/domain"
)

// Listener receives a snapshot after every mutation, in mutation order.
// Listeners run on the mutating goroutine and must not mutate the store.
type Listener func(domain.CartSnapshot)

// Store holds one visitor's cart. Mutations are serialized together with
// their notifications, so every listener sees snapshots in version order.
type Store struct {
	// notifyMu serializes mutate+notify; mu guards the state and is free
	// while listeners run so they can read the store.
	notifyMu sync.Mutex
	mu       sync.Mutex

	lines   []domain.CartLine
	locked  bool
	version uint64

	listeners map[uint64]Listener
	nextID    uint64
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{
		listeners: make(map[uint64]Listener),
		now:       time.Now,
	}
}

// AddItem appends v with quantity 1 or increments the existing line. The
// stored name, price and image are the ones captured on first add.
func (s *Store) AddItem(v domain.Vehicle) (domain.CartSnapshot, error) {
	if v.ID == "" || v.Price.IsNegative() {
		return s.Snapshot(), ErrInvalidItem
	}
	return s.mutate(func() error {
		if i := s.indexOf(v.ID); i >= 0 {
			s.lines[i].Quantity++
			return nil
		}
		s.lines = append(s.lines, domain.CartLine{
			VehicleID: v.ID,
			Name:      v.Name,
			Price:     v.Price,
			Image:     v.Image,
			Quantity:  1,
		})
		return nil
	})
}

// UpdateQuantity sets the line's quantity to max(0, quantity). Zero removes the line.
func (s *Store) UpdateQuantity(id string, quantity int) (domain.CartSnapshot, error) {
	return s.mutate(func() error {
		i := s.indexOf(id)
		if i < 0 {
			return ErrItemNotFound
		}
		if quantity <= 0 {
			s.removeAt(i)
			return nil
		}
		s.lines[i].Quantity = quantity
		return nil
	})
}

// RemoveItem deletes the line if present.
func (s *Store) RemoveItem(id string) (domain.CartSnapshot, error) {
	return s.mutate(func() error {
		if i := s.indexOf(id); i >= 0 {
			s.removeAt(i)
		}
		return nil
	})
}

func (s *Store) Clear() (domain.CartSnapshot, error) {
	return s.mutate(func() error {
		s.lines = nil
		return nil
	})
}

// Total is recomputed from the current lines on every call.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return total(s.lines)
}

// Count is the number of distinct lines with a positive quantity.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

func (s *Store) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Lock freezes the cart for checkout and returns the frozen snapshot.
// Locking an already locked cart returns the same contents.
func (s *Store) Lock() domain.CartSnapshot {
	snap, _ := s.mutateAlways(func() error {
		s.locked = true
		return nil
	})
	return snap
}

func (s *Store) Unlock() domain.CartSnapshot {
	snap, _ := s.mutateAlways(func() error {
		s.locked = false
		return nil
	})
	return snap
}

// CompleteCheckout empties the cart and releases the checkout lock in one step.
func (s *Store) CompleteCheckout() domain.CartSnapshot {
	snap, _ := s.mutateAlways(func() error {
		s.lines = nil
		s.locked = false
		return nil
	})
	return snap
}

// Restore replaces the contents of an empty, unlocked cart with lines, for
// example after a restart. Lines with a non-positive quantity are dropped.
func (s *Store) Restore(lines []domain.CartLine) (domain.CartSnapshot, error) {
	return s.mutate(func() error {
		if len(s.lines) > 0 {
			return nil
		}
		for _, l := range lines {
			if l.VehicleID == "" || l.Quantity <= 0 || s.indexOf(l.VehicleID) >= 0 {
				continue
			}
			s.lines = append(s.lines, l)
		}
		return nil
	})
}

// Subscribe registers l. The returned function removes it and is safe to call
// more than once.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

func (s *Store) mutate(fn func() error) (domain.CartSnapshot, error) {
	return s.apply(true, fn)
}

func (s *Store) mutateAlways(fn func() error) (domain.CartSnapshot, error) {
	return s.apply(false, fn)
}

func (s *Store) apply(respectLock bool, fn func() error) (domain.CartSnapshot, error) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if respectLock && s.locked {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrCartLocked
	}
	if err := fn(); err != nil {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, err
	}
	s.version++
	snap := s.snapshotLocked()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(cloneSnapshot(snap))
	}
	return snap, nil
}

func (s *Store) snapshotLocked() domain.CartSnapshot {
	lines := make([]domain.CartLine, len(s.lines))
	copy(lines, s.lines)
	return domain.CartSnapshot{
		Lines:      lines,
		Total:      total(s.lines),
		Count:      len(s.lines),
		Locked:     s.locked,
		Version:    s.version,
		CapturedAt: s.now(),
	}
}

func (s *Store) indexOf(id string) int {
	for i, l := range s.lines {
		if l.VehicleID == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeAt(i int) {
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
}

func total(lines []domain.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		if l.Quantity > 0 {
			sum = sum.Add(l.Subtotal())
		}
	}
	return sum
}

func cloneSnapshot(s domain.CartSnapshot) domain.CartSnapshot {
	s.Lines = append([]domain.CartLine(nil), s.Lines...)
	return s
}
