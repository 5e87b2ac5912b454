package workervisit

import (
	"context"
	"errors"
	"time"

	"fieldops/internal/domain"
	"fieldops/internal/modules/notify"
	"fieldops/internal/otp"
	"fieldops/internal/repository"

	"gorm.io/gorm"
)

// Service drives the worker-visit flow. Unlike appointments the OTP is
// issued as part of creation and the visit jumps from PENDING straight
// to COMPLETED when the count is submitted with a valid code.
type Service struct {
	visits       WorkerVisitRepository
	clients      ClientDirectory
	engineers    EngineerDirectory
	otp          *otp.Issuer
	events       EventPublisher
	adminContact string
}

func NewService(
	visits WorkerVisitRepository,
	clients ClientDirectory,
	engineers EngineerDirectory,
	issuer *otp.Issuer,
	events EventPublisher,
	adminContact string,
) *Service {
	return &Service{
		visits:       visits,
		clients:      clients,
		engineers:    engineers,
		otp:          issuer,
		events:       events,
		adminContact: adminContact,
	}
}

// Create persists the visit in PENDING with the OTP already issued.
// The code goes to the client's primary contact and, when configured,
// to the administrative alert contact as well.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.WorkerVisit, error) {
	client, err := s.clients.GetByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if !client.IsActive {
		return nil, ErrValidation
	}

	engineer, err := s.engineers.GetByID(ctx, req.EngineerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEngineerNotFound
		}
		return nil, err
	}
	if !engineer.IsActive {
		return nil, ErrValidation
	}
	if client.PrimaryContact == "" {
		return nil, ErrNoDestination
	}

	v := &domain.WorkerVisit{
		ClientID:    req.ClientID,
		EngineerID:  req.EngineerID,
		VisitDate:   req.VisitDate,
		SiteAddress: req.SiteAddress,
		Status:      domain.VisitPending,
	}

	destinations := []string{client.PrimaryContact}
	if s.adminContact != "" {
		destinations = append(destinations, s.adminContact)
	}

	// The visit id is assigned by the repository on insert, so the code
	// is dispatched keyed by client until then.
	st, err := s.otp.Issue(ctx, req.ClientID, otp.State{}, destinations...)
	if err != nil {
		return nil, err
	}
	v.OTP = st.Code
	v.OTPSentAt = st.SentAt
	v.OTPExpiresAt = st.ExpiresAt

	if err := s.visits.Create(ctx, v); err != nil {
		return nil, err
	}

	v.Client = client
	v.Engineer = engineer
	return v, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.WorkerVisit, error) {
	return s.get(ctx, id)
}

func (s *Service) List(ctx context.Context, f repository.WorkerVisitFilter) ([]domain.WorkerVisit, int64, error) {
	return s.visits.List(ctx, f)
}

func (s *Service) SummaryByClient(ctx context.Context, from, to time.Time) ([]repository.VisitSummaryRow, error) {
	return s.visits.SummaryByClient(ctx, from, to)
}

// ResendOTP re-issues the code for a PENDING visit under the same
// cooldown contract as appointments.
func (s *Service) ResendOTP(ctx context.Context, id string) (*domain.WorkerVisit, error) {
	v, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Status != domain.VisitPending {
		return nil, ErrInvalidState
	}

	client := v.Client
	if client == nil {
		client, err = s.clients.GetByID(ctx, v.ClientID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrClientNotFound
			}
			return nil, err
		}
	}
	if client.PrimaryContact == "" {
		return nil, ErrNoDestination
	}

	destinations := []string{client.PrimaryContact}
	if s.adminContact != "" {
		destinations = append(destinations, s.adminContact)
	}

	st, err := s.otp.Resend(ctx, v.ID, otpStateOf(v), destinations...)
	if err != nil {
		return nil, err
	}

	return s.commit(ctx, v, map[string]any{
		"otp":            *st.Code,
		"otp_sent_at":    *st.SentAt,
		"otp_expires_at": *st.ExpiresAt,
	})
}

// SubmitCount verifies the code and records the head count in one
// atomic transition: on success the visit goes straight to COMPLETED
// with the code cleared, so workerCount is set exactly once.
func (s *Service) SubmitCount(ctx context.Context, id string, req SubmitCountRequest) (*domain.WorkerVisit, error) {
	if req.WorkerCount < 1 {
		return nil, ErrValidation
	}

	v, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Status != domain.VisitPending {
		return nil, ErrInvalidState
	}

	st, err := s.otp.Verify(otpStateOf(v), req.OTP)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"status":         domain.VisitCompleted,
		"otp":            nil,
		"otp_sent_at":    nil,
		"otp_expires_at": nil,
		"verified_at":    *st.VerifiedAt,
		"worker_count":   req.WorkerCount,
	}
	if req.Remarks != nil {
		updates["remarks"] = *req.Remarks
	}

	updated, err := s.commit(ctx, v, updates)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.Publish(notify.EventWorkerCountSubmitted, map[string]any{
			"visitId":     updated.ID,
			"clientId":    updated.ClientID,
			"workerCount": req.WorkerCount,
		})
	}
	return updated, nil
}

func (s *Service) get(ctx context.Context, id string) (*domain.WorkerVisit, error) {
	v, err := s.visits.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (s *Service) commit(ctx context.Context, v *domain.WorkerVisit, updates map[string]any) (*domain.WorkerVisit, error) {
	ok, err := s.visits.UpdateGuarded(ctx, v.ID, v.UpdatedAt, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	return s.get(ctx, v.ID)
}

func otpStateOf(v *domain.WorkerVisit) otp.State {
	return otp.State{
		Code:       v.OTP,
		SentAt:     v.OTPSentAt,
		ExpiresAt:  v.OTPExpiresAt,
		VerifiedAt: v.VerifiedAt,
	}
}
