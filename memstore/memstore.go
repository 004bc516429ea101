// Package memstore keeps used references and registrations in process memory, for local
// development and single-instance deployments without DynamoDB.
package memstore

import (
	"cmp"
	"context"
	"encoding/base64"
	"fmt"
	"slices"
	"sync"

	"github.com/cache-fest/festival-registration/registration"
)

var _ registration.UsedReferenceStore = &Store{}
var _ registration.Repository = &Store{}

type Store struct {
	mu            sync.RWMutex
	usedRefs      map[string]struct{}
	registrations map[string]registration.Registration
}

func New() *Store {
	return &Store{
		usedRefs:      map[string]struct{}{},
		registrations: map[string]registration.Registration{},
	}
}

func (s *Store) Contains(ctx context.Context, reference string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.usedRefs[reference]
	return ok, nil
}

// Add fails with a duplicate reference error when the reference is already recorded, so concurrent
// submissions of one reference cannot both succeed.
func (s *Store) Add(ctx context.Context, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usedRefs[reference]; ok {
		return registration.NewDuplicateReferenceError(reference, nil)
	}
	s.usedRefs[reference] = struct{}{}
	return nil
}

func (s *Store) Remove(ctx context.Context, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.usedRefs, reference)
	return nil
}

func (s *Store) SaveRegistration(ctx context.Context, reg registration.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg.SelectedEvents = slices.Clone(reg.SelectedEvents)
	s.registrations[reg.TransactionRef] = reg
	return nil
}

func (s *Store) GetRegistration(ctx context.Context, transactionRef string) (registration.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, ok := s.registrations[transactionRef]
	if !ok {
		return registration.Registration{}, registration.NewRegistrationDoesNotExistsError(
			fmt.Sprintf("Registration %q not found", transactionRef), nil)
	}
	reg.SelectedEvents = slices.Clone(reg.SelectedEvents)
	return reg, nil
}

// ListRegistrations pages newest first. The cursor is the last transaction reference returned.
func (s *Store) ListRegistrations(ctx context.Context, limit int32, cursor *string) (registration.ListRegistrationsResponse, error) {
	after := ""
	if cursor != nil {
		b, err := base64.URLEncoding.DecodeString(*cursor)
		if err != nil {
			return registration.ListRegistrationsResponse{}, registration.NewInvalidCursorError("Cursor is not valid", err)
		}
		after = string(b)
	}

	s.mu.RLock()
	all := make([]registration.Registration, 0, len(s.registrations))
	for _, reg := range s.registrations {
		all = append(all, reg)
	}
	s.mu.RUnlock()

	slices.SortFunc(all, func(a, b registration.Registration) int {
		if c := b.PaidAt.Compare(a.PaidAt); c != 0 {
			return c
		}
		return cmp.Compare(b.TransactionRef, a.TransactionRef)
	})

	start := 0
	if after != "" {
		i := slices.IndexFunc(all, func(r registration.Registration) bool { return r.TransactionRef == after })
		if i < 0 {
			return registration.ListRegistrationsResponse{}, registration.NewInvalidCursorError("Cursor does not point at a registration", nil)
		}
		start = i + 1
	}

	end := min(start+int(limit), len(all))
	page := all[start:end]

	resp := registration.ListRegistrationsResponse{
		Data:        page,
		HasNextPage: end < len(all),
	}
	if resp.HasNextPage && len(page) > 0 {
		next := base64.URLEncoding.EncodeToString([]byte(page[len(page)-1].TransactionRef))
		resp.Cursor = &next
	}
	return resp, nil
}
