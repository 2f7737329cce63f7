// Package reference stores the data a scan is checked against: registered
// locations, approved travel exceptions and biometric enrollments.
package reference

import (
	"context"
	"sync"
	"time"

	"doseguard/internal/verification/models"
	id "doseguard/pkg/domain"
	"doseguard/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu          sync.RWMutex
	locations   map[id.PatientID][]models.ReferenceLocation
	exceptions  map[id.PatientID][]models.TravelException
	enrollments map[id.PatientID]models.BiometricEnrollment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		locations:   make(map[id.PatientID][]models.ReferenceLocation),
		exceptions:  make(map[id.PatientID][]models.TravelException),
		enrollments: make(map[id.PatientID]models.BiometricEnrollment),
	}
}

func (s *InMemoryStore) SaveLocation(_ context.Context, loc models.ReferenceLocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[loc.PatientID] = append(s.locations[loc.PatientID], loc)
	return nil
}

func (s *InMemoryStore) SaveTravelException(_ context.Context, ex models.TravelException) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exceptions[ex.PatientID] = append(s.exceptions[ex.PatientID], ex)
	return nil
}

// SaveEnrollment replaces the patient's enrollment.
func (s *InMemoryStore) SaveEnrollment(_ context.Context, e models.BiometricEnrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrollments[e.PatientID] = e
	return nil
}

func (s *InMemoryStore) ActiveLocations(_ context.Context, patientID id.PatientID) ([]models.ReferenceLocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ReferenceLocation
	for _, loc := range s.locations[patientID] {
		if loc.Active {
			out = append(out, loc)
		}
	}
	return out, nil
}

// ApprovedTravelExceptions returns approved exceptions covering day's date.
func (s *InMemoryStore) ApprovedTravelExceptions(_ context.Context, patientID id.PatientID, day time.Time) ([]models.TravelException, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.TravelException
	for _, ex := range s.exceptions[patientID] {
		if ex.Approved && ex.CoversDate(day) {
			out = append(out, ex)
		}
	}
	return out, nil
}

// ActiveEnrollment returns sentinel.ErrNotFound when the patient has no
// active enrollment.
func (s *InMemoryStore) ActiveEnrollment(_ context.Context, patientID id.PatientID) (*models.BiometricEnrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.enrollments[patientID]
	if !ok || !e.Active {
		return nil, sentinel.ErrNotFound
	}
	return &e, nil
}
