package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"doseguard/internal/verification/alerts"
	"doseguard/internal/verification/models"
	"doseguard/internal/verification/service/mocks"
	id "doseguard/pkg/domain"
	dErrors "doseguard/pkg/domain-errors"
	audit "doseguard/pkg/platform/audit"
	"doseguard/pkg/platform/sentinel"
	"doseguard/pkg/requestcontext"
)

// =============================================================================
// Verification Service Test Suite
// =============================================================================
// Justification for unit tests: pre-check rejections must leave the container
// untouched and the retry loop must classify failures. Both are hard to
// observe through real stores.

type ServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	containers *mocks.MockContainerStore
	ledger     *mocks.MockScanLedger
	reference  *mocks.MockReferenceStore
	tx         *mocks.MockTxRunner
	emitter    *mocks.MockAlertEmitter
	digester   *mocks.MockDigester
	compliance *mocks.MockComplianceAuditor
	security   *mocks.MockSecurityAuditor
	service    *Service
	sleeps     []time.Duration
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.containers = mocks.NewMockContainerStore(s.ctrl)
	s.ledger = mocks.NewMockScanLedger(s.ctrl)
	s.reference = mocks.NewMockReferenceStore(s.ctrl)
	s.tx = mocks.NewMockTxRunner(s.ctrl)
	s.emitter = mocks.NewMockAlertEmitter(s.ctrl)
	s.digester = mocks.NewMockDigester(s.ctrl)
	s.compliance = mocks.NewMockComplianceAuditor(s.ctrl)
	s.security = mocks.NewMockSecurityAuditor(s.ctrl)

	svc, err := New(s.deps(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithComplianceAuditor(s.compliance),
		WithSecurityAuditor(s.security),
	)
	s.Require().NoError(err)
	s.sleeps = nil
	svc.sleep = func(_ context.Context, d time.Duration) error {
		s.sleeps = append(s.sleeps, d)
		return nil
	}
	s.service = svc

	s.digester.EXPECT().Digest(gomock.Any()).Return("digest").AnyTimes()
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) deps() Dependencies {
	return Dependencies{
		Containers: s.containers,
		Ledger:     s.ledger,
		Reference:  s.reference,
		Tx:         s.tx,
		Alerts:     s.emitter,
		Digester:   s.digester,
	}
}

func (s *ServiceSuite) ctx() context.Context {
	ctx := requestcontext.WithTime(context.Background(), time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC))
	return requestcontext.WithRequestID(ctx, "req-1")
}

func (s *ServiceSuite) expectEvidence(c *models.DoseContainer) {
	ev := homeEvidence(c.PatientID)
	s.reference.EXPECT().ActiveLocations(gomock.Any(), c.PatientID).Return(ev.Locations, nil)
	s.reference.EXPECT().ApprovedTravelExceptions(gomock.Any(), c.PatientID, gomock.Any()).Return(nil, nil)
	s.reference.EXPECT().ActiveEnrollment(gomock.Any(), c.PatientID).Return(ev.Enrollment, nil)
}

func passingRequest(c *models.DoseContainer) VerifyRequest {
	return VerifyRequest{
		Credential:       "cred",
		ClaimedPatientID: c.PatientID,
		Location:         &models.PresentedLocation{Point: north(50)},
		Biometric:        &models.BiometricCapture{Score: 90, Liveness: boolPtr(true)},
	}
}

func runFn(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }

func (s *ServiceSuite) TestNew() {
	s.Run("missing dependency returns error", func() {
		deps := s.deps()
		deps.Ledger = nil
		_, err := New(deps)
		s.Error(err)
	})

	s.Run("options apply", func() {
		policy := alerts.DefaultPolicy()
		svc, err := New(s.deps(), WithPolicy(policy), WithRetryPolicy(RetryPolicy{Attempts: 2}))
		s.NoError(err)
		s.Equal(2, svc.retry.Attempts)
		s.Equal(policy, svc.policy)
	})
}

func (s *ServiceSuite) TestValidation() {
	_, err := s.service.VerifyConsumption(s.ctx(), VerifyRequest{})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestUnknownCredential() {
	s.containers.EXPECT().FindByCredentialDigest(gomock.Any(), "digest").Return(nil, sentinel.ErrNotFound)
	s.security.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.SecurityEvent) {
		s.Equal(audit.EventInvalidCredential, e.Action)
		s.Equal("req-1", e.RequestID)
	})

	_, err := s.service.VerifyConsumption(s.ctx(), VerifyRequest{Credential: "nope", ClaimedPatientID: id.NewPatientID()})

	s.True(dErrors.HasCode(err, dErrors.CodeInvalidCredential))
}

func (s *ServiceSuite) TestRegistryFailureIsInternal() {
	s.containers.EXPECT().FindByCredentialDigest(gomock.Any(), "digest").Return(nil, errors.New("db down"))

	_, err := s.service.VerifyConsumption(s.ctx(), VerifyRequest{Credential: "c", ClaimedPatientID: id.NewPatientID()})

	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestWrongPatientShortCircuits() {
	c := morningContainer()
	claimed := id.NewPatientID()
	s.containers.EXPECT().FindByCredentialDigest(gomock.Any(), "digest").Return(c, nil)

	var recorded *models.ScanAttempt
	s.ledger.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, a *models.ScanAttempt) error {
		recorded = a
		return nil
	})
	var raised []models.ComplianceAlert
	s.emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, batch []models.ComplianceAlert) alerts.Outcome {
		raised = batch
		return alerts.Outcome{Stored: len(batch)}
	})
	s.security.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.SecurityEvent) {
		s.Equal(audit.EventPatientMismatch, e.Action)
		s.Equal(audit.SeverityCritical, e.Severity)
	})
	// No reference reads, no transaction, no container mutation.
	s.reference.EXPECT().ActiveLocations(gomock.Any(), gomock.Any()).Times(0)
	s.tx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).Times(0)
	s.containers.EXPECT().MarkConsumed(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	req := passingRequest(c)
	req.ClaimedPatientID = claimed
	_, err := s.service.VerifyConsumption(s.ctx(), req)

	s.True(dErrors.HasCode(err, dErrors.CodePatientMismatch))
	s.Require().NotNil(recorded)
	s.Equal([]models.FailureReason{models.ReasonWrongPatientScan}, recorded.FailureReasons)
	s.Equal(models.NotEvaluatedFactors(), recorded.Factors)
	s.Equal(claimed, recorded.ClaimedPatientID)
	s.Require().Len(raised, 1)
	s.Equal(models.SeverityCritical, raised[0].Severity)
	s.True(raised[0].RegulatorReportable)
	s.Equal(models.StatusIssued, c.Status)
}

func (s *ServiceSuite) TestWrongPatientAlertRaisedWhenLedgerDown() {
	c := morningContainer()
	s.containers.EXPECT().FindByCredentialDigest(gomock.Any(), "digest").Return(c, nil)
	s.ledger.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("connection refused")).Times(4)

	var raised []models.ComplianceAlert
	s.emitter.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, batch []models.ComplianceAlert) alerts.Outcome {
		raised = batch
		return alerts.Outcome{Queued: len(batch)}
	})
	s.security.EXPECT().Emit(gomock.Any(), gomock.Any())

	req := passingRequest(c)
	req.ClaimedPatientID = id.NewPatientID()
	_, err := s.service.VerifyConsumption(s.ctx(), req)

	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.Require().Len(raised, 1)
	s.Equal(models.ReasonWrongPatientScan, raised[0].Reason)
	s.True(raised[0].RegulatorReportable)
	s.Equal(models.StatusIssued, c.Status)
}

func (s *ServiceSuite) TestTerminalContainersRejectedWithoutWrites() {
	cases := []struct {
		name   string
		status models.ContainerStatus
		action audit.AuditEvent
		code   dErrors.Code
	}{
		{"consumed", models.StatusConsumed, audit.EventReplayedContainer, dErrors.CodeAlreadyConsumed},
		{"void", models.StatusVoid, audit.EventVoidContainer, dErrors.CodeContainerVoid},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			c := morningContainer()
			c.Status = tc.status
			s.containers.EXPECT().FindByCredentialDigest(gomock.Any(), "digest").Return(c, nil)
			s.security.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.SecurityEvent) {
				s.Equal(tc.action, e.Action)
			})

			_, err := s.service.VerifyConsumption(s.ctx(), passingRequest(c))

			s.True(dErrors.HasCode(err, tc.code))
		})
	}
}

func (s *ServiceSuite) TestReferenceFailureIsUnavailable() {
	c := morningContainer()
	s.containers.EXPECT().FindByCredentialDigest(gomock.Any(), "digest").Return(c, nil)
	s.reference.EXPECT().ActiveLocations(gomock.Any(), c.PatientID).Return(nil, errors.New("timeout"))
	s.reference.EXPECT().ApprovedTravelExceptions(gomock.Any(), c.PatientID, gomock.Any()).Return(nil, nil).AnyTimes()
	s.reference.EXPECT().ActiveEnrollment(gomock.Any(), c.PatientID).Return(nil, sentinel.ErrNotFound).AnyTimes()

	_, err := s.service.VerifyConsumption(s.ctx(), passingRequest(c))

	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *ServiceSuite) TestCommitRetriesThenSucceeds() {
	c := morningContainer()
	s.containers.EXPECT().FindByCredentialDigest(gomock.Any(), "digest").Return(c, nil)
	s.expectEvidence(c)

	gomock.InOrder(
		s.tx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).Return(errors.New("connection reset")),
		s.tx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).DoAndReturn(runFn),
	)
	issued := *c
	s.containers.EXPECT().FindForUpdate(gomock.Any(), c.ID).Return(&issued, nil)
	s.ledger.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
	s.compliance.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.ComplianceEvent) error {
		s.Equal(audit.EventContainerConsumed, e.Action)
		s.Equal("verified", e.Decision)
		return nil
	})
	s.containers.EXPECT().MarkConsumed(gomock.Any(), c.ID, gomock.Any()).Return(nil)

	res, err := s.service.VerifyConsumption(s.ctx(), passingRequest(c))

	s.Require().NoError(err)
	s.True(res.Verified)
	s.Equal(0, res.AlertsRaised)
	s.Equal(models.ComplianceCompliant, res.Container.ComplianceStatus)
	s.Equal([]time.Duration{50 * time.Millisecond}, s.sleeps)
}

func (s *ServiceSuite) TestCommitExhaustionIsUnavailable() {
	c := morningContainer()
	s.containers.EXPECT().FindByCredentialDigest(gomock.Any(), "digest").Return(c, nil)
	s.expectEvidence(c)
	s.tx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).Return(errors.New("connection reset")).Times(4)

	_, err := s.service.VerifyConsumption(s.ctx(), passingRequest(c))

	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.Equal([]time.Duration{50 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond}, s.sleeps)
}

func (s *ServiceSuite) TestLostRaceIsAlreadyConsumed() {
	c := morningContainer()
	s.containers.EXPECT().FindByCredentialDigest(gomock.Any(), "digest").Return(c, nil)
	s.expectEvidence(c)
	s.tx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).DoAndReturn(runFn)

	winner := *c
	winner.Status = models.StatusConsumed
	other := id.NewScanID()
	winner.FinalScanID = &other
	s.containers.EXPECT().FindForUpdate(gomock.Any(), c.ID).Return(&winner, nil)
	s.ledger.EXPECT().Append(gomock.Any(), gomock.Any()).Times(0)

	_, err := s.service.VerifyConsumption(s.ctx(), passingRequest(c))

	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyConsumed))
	s.Empty(s.sleeps, "terminal failures are not retried")
}

func (s *ServiceSuite) TestComplianceAuditFailureBlocksConsumption() {
	c := morningContainer()
	s.containers.EXPECT().FindByCredentialDigest(gomock.Any(), "digest").Return(c, nil)
	s.expectEvidence(c)
	s.tx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).DoAndReturn(runFn).Times(4)
	s.containers.EXPECT().FindForUpdate(gomock.Any(), c.ID).DoAndReturn(func(context.Context, id.ContainerID) (*models.DoseContainer, error) {
		issued := *c
		return &issued, nil
	}).Times(4)
	s.ledger.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil).Times(4)
	s.compliance.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("audit store down")).Times(4)
	s.containers.EXPECT().MarkConsumed(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := s.service.VerifyConsumption(s.ctx(), passingRequest(c))

	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *ServiceSuite) TestListScanAttempts() {
	s.Run("unknown container", func() {
		containerID := id.NewContainerID()
		s.containers.EXPECT().FindByID(gomock.Any(), containerID).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.ListScanAttempts(context.Background(), containerID)

		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("returns ledger", func() {
		c := morningContainer()
		attempts := []*models.ScanAttempt{{ID: id.NewScanID(), ContainerID: c.ID}}
		s.containers.EXPECT().FindByID(gomock.Any(), c.ID).Return(c, nil)
		s.ledger.EXPECT().ListByContainer(gomock.Any(), c.ID).Return(attempts, nil)

		got, err := s.service.ListScanAttempts(context.Background(), c.ID)

		s.Require().NoError(err)
		s.Equal(attempts, got)
	})
}
