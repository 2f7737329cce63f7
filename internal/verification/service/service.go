// Package service orchestrates dose verification: it resolves the scanned
// credential, scores the scan, records it and raises compliance alerts.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"doseguard/internal/verification/alerts"
	"doseguard/internal/verification/metrics"
	"doseguard/internal/verification/models"
	id "doseguard/pkg/domain"
	dErrors "doseguard/pkg/domain-errors"
	audit "doseguard/pkg/platform/audit"
	"doseguard/pkg/platform/sentinel"
	"doseguard/pkg/requestcontext"
)

var tracer = otel.Tracer("doseguard/internal/verification/service")

// RetryPolicy bounds in-process retries of the ledger commit.
type RetryPolicy struct {
	Attempts       int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func defaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 4, InitialBackoff: 50 * time.Millisecond, MaxBackoff: time.Second}
}

// Dependencies are the collaborators every Service needs.
type Dependencies struct {
	Containers ContainerStore
	Ledger     ScanLedger
	Reference  ReferenceStore
	Tx         TxRunner
	Alerts     AlertEmitter
	Digester   Digester
}

// Service holds no per-request state; everything lives in the stores.
type Service struct {
	containers ContainerStore
	ledger     ScanLedger
	reference  ReferenceStore
	tx         TxRunner
	alerts     AlertEmitter
	digester   Digester

	policy     alerts.Policy
	retry      RetryPolicy
	compliance ComplianceAuditor
	security   SecurityAuditor
	logger     *slog.Logger
	metrics    *metrics.Metrics
	sleep      func(context.Context, time.Duration) error
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPolicy(p alerts.Policy) Option {
	return func(s *Service) {
		if p != nil {
			s.policy = p
		}
	}
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *Service) {
		if p.Attempts > 0 {
			s.retry = p
		}
	}
}

func WithComplianceAuditor(a ComplianceAuditor) Option {
	return func(s *Service) {
		s.compliance = a
	}
}

func WithSecurityAuditor(a SecurityAuditor) Option {
	return func(s *Service) {
		s.security = a
	}
}

func New(deps Dependencies, opts ...Option) (*Service, error) {
	if deps.Containers == nil || deps.Ledger == nil || deps.Reference == nil ||
		deps.Tx == nil || deps.Alerts == nil || deps.Digester == nil {
		return nil, errors.New("verification service: all dependencies are required")
	}
	s := &Service{
		containers: deps.Containers,
		ledger:     deps.Ledger,
		reference:  deps.Reference,
		tx:         deps.Tx,
		alerts:     deps.Alerts,
		digester:   deps.Digester,
		policy:     alerts.DefaultPolicy(),
		retry:      defaultRetryPolicy(),
		logger:     slog.Default(),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// VerifyConsumption scores one scan of a dose container. Pre-check
// rejections are returned as coded errors; a scored failure is a normal
// result with Verified false.
func (s *Service) VerifyConsumption(ctx context.Context, req VerifyRequest) (*VerificationResult, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "verification.verify_consumption")
	defer span.End()

	result, err := s.verify(ctx, span, req)
	if err != nil {
		s.metrics.IncRejection(string(dErrors.CodeOf(err)))
		recordSpanError(span, err)
		return nil, err
	}
	s.metrics.IncOutcome(result.Verified)
	s.metrics.ObserveVerifyLatency(time.Since(start))
	span.SetAttributes(attribute.Bool("verification.verified", result.Verified))
	return result, nil
}

func (s *Service) verify(ctx context.Context, span trace.Span, req VerifyRequest) (*VerificationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	presentedAt := requestcontext.Now(ctx)

	c, err := s.containers.FindByCredentialDigest(ctx, s.digester.Digest(req.Credential))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.securityEvent(ctx, audit.EventInvalidCredential, "", "credential did not resolve", audit.SeverityWarning, req.Device)
			return nil, dErrors.New(dErrors.CodeInvalidCredential, "credential does not match any dose container")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve credential")
	}
	span.SetAttributes(attribute.String("container.id", c.ID.String()))

	if c.PatientID != req.ClaimedPatientID {
		return nil, s.rejectWrongPatient(ctx, c, req, presentedAt)
	}

	switch c.Status {
	case models.StatusConsumed:
		s.securityEvent(ctx, audit.EventReplayedContainer, c.ID.String(), "container already consumed", audit.SeverityWarning, req.Device)
		return nil, dErrors.New(dErrors.CodeAlreadyConsumed, "dose container already consumed")
	case models.StatusVoid:
		s.securityEvent(ctx, audit.EventVoidContainer, c.ID.String(), "container is void", audit.SeverityWarning, req.Device)
		return nil, dErrors.New(dErrors.CodeContainerVoid, "dose container is void")
	}

	loc, err := c.Location()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "container timezone is invalid")
	}
	localTime := presentedAt.In(loc)

	// Past the pre-checks the attempt runs to completion and is recorded even
	// if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	ev, err := s.gatherEvidence(ctx, c, localTime)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "reference data unavailable")
	}

	score := EvaluateScan(c, req, localTime, ev)
	s.recordFactorMetrics(score.Factors)

	attempt := s.newAttempt(ctx, c, req, presentedAt, score.Factors, score.Reasons, score.Verified)
	var consumedLocation *models.Point
	if req.Location != nil {
		p := req.Location.Point
		consumedLocation = &p
	}
	consumption := models.Consumption{
		ScanID:     attempt.ID,
		ConsumedAt: presentedAt,
		Location:   consumedLocation,
		Verified:   score.Verified,
	}

	if err := s.commit(ctx, c.ID, attempt, consumption); err != nil {
		return nil, err
	}
	c.ApplyConsumption(consumption)

	raised := s.emitAlerts(ctx, alerts.Scan{Container: c, Attempt: attempt, Zones: ev.Zones()})

	s.logger.InfoContext(ctx, "dose verification recorded",
		"request_id", attempt.RequestID,
		"container_id", c.ID.String(),
		"scan_id", attempt.ID.String(),
		"verified", score.Verified,
		"failure_reasons", score.Reasons,
		"alerts", raised,
	)

	return &VerificationResult{
		ScanID:         attempt.ID,
		Verified:       score.Verified,
		FailureReasons: score.Reasons,
		Factors:        score.Factors,
		Container:      summarize(c),
		Summary:        Summarize(score),
		AlertsRaised:   raised,
	}, nil
}

// rejectWrongPatient records the attempt and raises the wrong patient alert
// without evaluating any factor or touching the container.
func (s *Service) rejectWrongPatient(ctx context.Context, c *models.DoseContainer, req VerifyRequest, presentedAt time.Time) error {
	ctx = context.WithoutCancel(ctx)
	reasons := []models.FailureReason{models.ReasonWrongPatientScan}
	attempt := s.newAttempt(ctx, c, req, presentedAt, models.NotEvaluatedFactors(), reasons, false)

	err := s.withRetry(ctx, "record wrong patient scan", func(ctx context.Context) error {
		return s.ledger.Append(ctx, attempt)
	})

	// The alert goes out even when the ledger write failed.
	s.emitAlerts(ctx, alerts.Scan{Container: c, Attempt: attempt})
	s.securityEvent(ctx, audit.EventPatientMismatch, c.ID.String(), "claimed patient does not own container", audit.SeverityCritical, req.Device)
	if err != nil {
		s.logger.ErrorContext(ctx, "wrong patient scan not recorded",
			"request_id", attempt.RequestID,
			"container_id", c.ID.String(),
			"scan_id", attempt.ID.String(),
			"error", err,
		)
		return err
	}
	s.logger.WarnContext(ctx, "wrong patient scan rejected",
		"request_id", attempt.RequestID,
		"container_id", c.ID.String(),
		"scan_id", attempt.ID.String(),
	)
	return dErrors.New(dErrors.CodePatientMismatch, "claimed patient does not match the dose container")
}

// commit appends the ledger entry and consumes the container atomically,
// retrying infrastructure failures with exponential backoff.
func (s *Service) commit(ctx context.Context, containerID id.ContainerID, attempt *models.ScanAttempt, consumption models.Consumption) error {
	ctx, span := tracer.Start(ctx, "verification.commit")
	defer span.End()

	ctx = withContainerKey(ctx, containerID)
	err := s.withRetry(ctx, "commit scan attempt", func(ctx context.Context) error {
		return s.tx.RunInTx(ctx, func(ctx context.Context) error {
			return s.commitOnce(ctx, containerID, attempt, consumption)
		})
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeAlreadyConsumed, "dose container already consumed")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeContainerVoid, "dose container is void")
	default:
		recordSpanError(span, err)
		return err
	}
}

func (s *Service) commitOnce(ctx context.Context, containerID id.ContainerID, attempt *models.ScanAttempt, consumption models.Consumption) error {
	current, err := s.containers.FindForUpdate(ctx, containerID)
	if err != nil {
		return fmt.Errorf("lock container: %w", err)
	}
	switch current.Status {
	case models.StatusConsumed:
		// An earlier try of this same commit may have landed before its
		// acknowledgement was lost.
		if current.FinalScanID != nil && *current.FinalScanID == attempt.ID {
			return nil
		}
		return sentinel.ErrAlreadyUsed
	case models.StatusVoid:
		return sentinel.ErrInvalidState
	}

	if err := s.ledger.Append(ctx, attempt); err != nil {
		return fmt.Errorf("append scan attempt: %w", err)
	}
	if s.compliance != nil {
		decision := "verified"
		if !attempt.Verified {
			decision = "not_verified"
		}
		err := s.compliance.Emit(ctx, audit.ComplianceEvent{
			Timestamp:   attempt.RecordedAt,
			PatientID:   current.PatientID.String(),
			ContainerID: containerID.String(),
			ScanID:      attempt.ID.String(),
			Action:      audit.EventContainerConsumed,
			Decision:    decision,
			Reason:      joinReasons(attempt.FailureReasons),
			RequestID:   attempt.RequestID,
		})
		if err != nil {
			return err
		}
	}
	if err := s.containers.MarkConsumed(ctx, containerID, consumption); err != nil {
		return fmt.Errorf("consume container: %w", err)
	}
	return nil
}

// withRetry runs fn until it succeeds, fails terminally, or attempts run out.
// Exhausted retries surface as service_unavailable.
func (s *Service) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	backoff := s.retry.InitialBackoff
	var lastErr error
	for attempt := 1; attempt <= s.retry.Attempts; attempt++ {
		if attempt > 1 {
			s.metrics.IncCommitRetry()
			s.logger.WarnContext(ctx, "retrying after infrastructure failure",
				"operation", op,
				"attempt", attempt,
				"backoff", backoff.String(),
				"error", lastErr,
			)
			if err := s.sleep(ctx, backoff); err != nil {
				break
			}
			backoff = min(backoff*2, s.retry.MaxBackoff)
		}
		err := fn(ctx)
		if err == nil || isTerminal(err) {
			return err
		}
		lastErr = err
	}
	s.logger.ErrorContext(ctx, "giving up after infrastructure failures",
		"operation", op,
		"attempts", s.retry.Attempts,
		"error", lastErr,
	)
	return dErrors.Wrap(lastErr, dErrors.CodeUnavailable, "scan attempt could not be recorded")
}

// isTerminal reports errors that retrying cannot fix.
func isTerminal(err error) bool {
	return errors.Is(err, sentinel.ErrAlreadyUsed) ||
		errors.Is(err, sentinel.ErrInvalidState) ||
		errors.Is(err, sentinel.ErrNotFound)
}

func (s *Service) emitAlerts(ctx context.Context, scan alerts.Scan) int {
	batch := alerts.Build(s.policy, scan, time.Now())
	if len(batch) == 0 {
		return 0
	}
	ctx, span := tracer.Start(ctx, "verification.emit_alerts")
	defer span.End()

	out := s.alerts.Emit(ctx, batch)
	span.SetAttributes(
		attribute.Int("alerts.stored", out.Stored),
		attribute.Int("alerts.queued", out.Queued),
		attribute.Int("alerts.fallback", out.Fallback),
	)
	return len(batch)
}

func (s *Service) newAttempt(ctx context.Context, c *models.DoseContainer, req VerifyRequest, presentedAt time.Time,
	factors models.FactorResults, reasons []models.FailureReason, verified bool) *models.ScanAttempt {
	return &models.ScanAttempt{
		ID:               id.NewScanID(),
		ContainerID:      c.ID,
		ClaimedPatientID: req.ClaimedPatientID,
		Location:         req.Location,
		PresentedAt:      presentedAt,
		Biometric:        req.Biometric,
		SealPhotoRef:     req.SealPhotoRef,
		Device:           req.Device,
		Factors:          factors,
		Verified:         verified,
		FailureReasons:   reasons,
		RequestID:        requestcontext.RequestID(ctx),
		RecordedAt:       time.Now(),
	}
}

// ListScanAttempts returns the ledger for a container, oldest first.
func (s *Service) ListScanAttempts(ctx context.Context, containerID id.ContainerID) ([]*models.ScanAttempt, error) {
	if _, err := s.containers.FindByID(ctx, containerID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "dose container not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load dose container")
	}
	attempts, err := s.ledger.ListByContainer(ctx, containerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load scan attempts")
	}
	return attempts, nil
}

func (s *Service) securityEvent(ctx context.Context, action audit.AuditEvent, subject, reason string, severity audit.Severity, device models.DeviceInfo) {
	if s.security == nil {
		return
	}
	s.security.Emit(ctx, audit.SecurityEvent{
		Subject:   subject,
		Action:    action,
		Reason:    reason,
		IP:        requestcontext.ClientIP(ctx),
		DeviceID:  device.DeviceID,
		RequestID: requestcontext.RequestID(ctx),
		Severity:  severity,
	})
}

func (s *Service) recordFactorMetrics(f models.FactorResults) {
	s.metrics.IncFactorVerdict("location", string(f.Location.Verdict))
	s.metrics.IncFactorVerdict("time", string(f.Time.Verdict))
	s.metrics.IncFactorVerdict("biometric", string(f.Biometric.Verdict))
}

func joinReasons(reasons []models.FailureReason) string {
	names := make([]string, len(reasons))
	for i, r := range reasons {
		names[i] = string(r)
	}
	return strings.Join(names, ",")
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
