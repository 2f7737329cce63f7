package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"doseguard/internal/verification/models"
	"doseguard/pkg/platform/sentinel"
)

// gatherEvidence loads the patient's reference data in parallel. day is the
// presentation time in the container's zone and selects travel exceptions.
func (s *Service) gatherEvidence(ctx context.Context, c *models.DoseContainer, day time.Time) (Evidence, error) {
	ctx, span := tracer.Start(ctx, "verification.gather_evidence")
	defer span.End()

	g, ctx := errgroup.WithContext(ctx)
	var ev Evidence

	g.Go(func() error {
		start := time.Now()
		locations, err := s.reference.ActiveLocations(ctx, c.PatientID)
		s.metrics.ObserveReferenceLatency("locations", time.Since(start))
		if err != nil {
			return err
		}
		ev.Locations = locations
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		exceptions, err := s.reference.ApprovedTravelExceptions(ctx, c.PatientID, day)
		s.metrics.ObserveReferenceLatency("travel_exceptions", time.Since(start))
		if err != nil {
			return err
		}
		ev.Exceptions = exceptions
		return nil
	})

	// A missing enrollment is not an error; the biometric check fails closed.
	g.Go(func() error {
		start := time.Now()
		enrollment, err := s.reference.ActiveEnrollment(ctx, c.PatientID)
		s.metrics.ObserveReferenceLatency("enrollment", time.Since(start))
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil
			}
			return err
		}
		ev.Enrollment = enrollment
		return nil
	})

	if err := g.Wait(); err != nil {
		recordSpanError(span, err)
		return Evidence{}, err
	}
	return ev, nil
}
