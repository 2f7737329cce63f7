package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doseguard/internal/verification/models"
	id "doseguard/pkg/domain"
)

func attempt(containerID id.ContainerID, reasons ...models.FailureReason) *models.ScanAttempt {
	return &models.ScanAttempt{
		ID:               id.NewScanID(),
		ContainerID:      containerID,
		ClaimedPatientID: id.NewPatientID(),
		PresentedAt:      time.Now(),
		Verified:         len(reasons) == 0,
		FailureReasons:   reasons,
		RecordedAt:       time.Now(),
	}
}

func TestInMemoryStore_AppendAndList(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	containerID := id.NewContainerID()

	first := attempt(containerID, models.ReasonWrongPatientScan)
	second := attempt(containerID)
	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, second))
	require.NoError(t, store.Append(ctx, attempt(id.NewContainerID())))

	got, err := store.ListByContainer(ctx, containerID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
	assert.Equal(t, 3, store.Count())
}

func TestInMemoryStore_AppendIsIdempotentPerScan(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	a := attempt(id.NewContainerID())

	require.NoError(t, store.Append(ctx, a))
	require.NoError(t, store.Append(ctx, a))
	assert.Equal(t, 1, store.Count())
}

func TestInMemoryStore_EntriesAreImmutable(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	a := attempt(id.NewContainerID(), models.ReasonTimeViolation)
	require.NoError(t, store.Append(ctx, a))

	a.FailureReasons[0] = models.ReasonLocationViolation
	got, err := store.ListByContainer(ctx, a.ContainerID)
	require.NoError(t, err)
	got[0].FailureReasons[0] = models.ReasonBiometricFailure

	again, err := store.ListByContainer(ctx, a.ContainerID)
	require.NoError(t, err)
	assert.Equal(t, []models.FailureReason{models.ReasonTimeViolation}, again[0].FailureReasons)
}
