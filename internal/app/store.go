package app

import (
	"context"
	"fmt"
	"sync"
)

// Store owns every booking record. Callers only ever see copies.
type Store interface {
	Insert(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id string) (*Booking, error)
	// Update runs fn against a copy of the record and saves it only if fn returns nil.
	Update(ctx context.Context, id string, fn func(b *Booking) error) (*Booking, error)
	Len() int
}

// MemoryStore keeps bookings for the life of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	bookings map[string]*Booking
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bookings: make(map[string]*Booking)}
}

func (s *MemoryStore) Insert(_ context.Context, b *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bookings[b.BookingID]; exists {
		return fmt.Errorf("booking %s already exists", b.BookingID)
	}
	cp := *b
	s.bookings[b.BookingID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fn func(b *Booking) error) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	next := *b
	if err := fn(&next); err != nil {
		return nil, err
	}
	// id is the key and never changes
	next.BookingID = b.BookingID
	s.bookings[id] = &next

	out := next
	return &out, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bookings)
}
