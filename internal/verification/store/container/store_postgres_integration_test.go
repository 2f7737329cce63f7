//go:build integration

package container_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"doseguard/internal/verification/models"
	"doseguard/internal/verification/store/container"
	id "doseguard/pkg/domain"
	"doseguard/pkg/platform/sentinel"
	txcontext "doseguard/pkg/platform/tx"
	"doseguard/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *container.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = container.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "compliance_alerts", "scan_attempts", "dose_containers")
	s.Require().NoError(err)
}

func newIssued(digest string) *models.DoseContainer {
	return &models.DoseContainer{
		ID:               id.NewContainerID(),
		CredentialDigest: digest,
		PatientID:        id.NewPatientID(),
		Medication:       "buprenorphine",
		DoseAmount:       8,
		DoseUnit:         "mg",
		Window:           models.DosingWindow{StartMinute: 360, EndMinute: 660},
		Timezone:         "America/Chicago",
		Status:           models.StatusIssued,
		IssuedAt:         time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	c := newIssued("digest-roundtrip")
	s.Require().NoError(s.store.Save(ctx, c))

	got, err := s.store.FindByCredentialDigest(ctx, "digest-roundtrip")
	s.Require().NoError(err)
	s.Equal(c.ID, got.ID)
	s.Equal(c.PatientID, got.PatientID)
	s.Equal(c.Window, got.Window)
	s.Equal("America/Chicago", got.Timezone)
	s.Equal(models.ComplianceUnknown, got.ComplianceStatus)
	s.Nil(got.ConsumedAt)

	s.ErrorIs(s.store.Save(ctx, newIssued("digest-roundtrip")), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestMarkConsumedStoresFinalFields() {
	ctx := context.Background()
	c := newIssued("digest-consume")
	s.Require().NoError(s.store.Save(ctx, c))

	scanID := id.NewScanID()
	at := time.Now().UTC().Truncate(time.Microsecond)
	err := s.store.MarkConsumed(ctx, c.ID, models.Consumption{
		ScanID:     scanID,
		ConsumedAt: at,
		Location:   &models.Point{Latitude: 41.88, Longitude: -87.63},
		Verified:   false,
	})
	s.Require().NoError(err)

	got, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusConsumed, got.Status)
	s.Equal(models.ComplianceNonCompliant, got.ComplianceStatus)
	s.Equal(scanID, *got.FinalScanID)
	s.False(*got.VerificationOutcome)
	s.True(at.Equal(*got.ConsumedAt))
	s.InDelta(41.88, got.ConsumedLocation.Latitude, 1e-9)

	err = s.store.MarkConsumed(ctx, c.ID, models.Consumption{ScanID: id.NewScanID(), ConsumedAt: at})
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

// TestConcurrentConsumeHasOneWinner races row-locked transactions against one container.
func (s *PostgresStoreSuite) TestConcurrentConsumeHasOneWinner() {
	ctx := context.Background()
	c := newIssued("digest-race")
	s.Require().NoError(s.store.Save(ctx, c))

	const goroutines = 25
	var wg sync.WaitGroup
	var wins, lost atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := txcontext.Run(ctx, s.postgres.DB, func(ctx context.Context) error {
				locked, err := s.store.FindForUpdate(ctx, c.ID)
				if err != nil {
					return err
				}
				if locked.Status != models.StatusIssued {
					return sentinel.ErrAlreadyUsed
				}
				return s.store.MarkConsumed(ctx, c.ID, models.Consumption{
					ScanID:     id.NewScanID(),
					ConsumedAt: time.Now(),
					Verified:   true,
				})
			})
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				lost.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(goroutines-1), lost.Load())
}

func (s *PostgresStoreSuite) TestNotFound() {
	_, err := s.store.FindByID(context.Background(), id.NewContainerID())
	s.ErrorIs(err, sentinel.ErrNotFound)

	err = s.store.MarkConsumed(context.Background(), id.NewContainerID(), models.Consumption{ScanID: id.NewScanID()})
	s.ErrorIs(err, sentinel.ErrNotFound)
}
