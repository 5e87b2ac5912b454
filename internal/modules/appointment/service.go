package appointment

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

// Service owns the appointment state machine:
//
//	SCHEDULED -> OTP_SENT -> VERIFIED -> COMPLETED
//
// with CANCELLED reachable from any non-terminal state. Every transition
// is a compare-and-swap against the updated_at snapshot read at the start
// of the call, so concurrent writers surface ErrConflict instead of both
// committing.
type Service struct {
	appointments AppointmentRepository
	clients      ClientDirectory
	engineers    EngineerDirectory
	otp          *otp.Issuer
	events       EventPublisher
	now          func() time.Time
}

func NewService(
	appointments AppointmentRepository,
	clients ClientDirectory,
	engineers EngineerDirectory,
	issuer *otp.Issuer,
	events EventPublisher,
) *Service {
	return &Service{
		appointments: appointments,
		clients:      clients,
		engineers:    engineers,
		otp:          issuer,
		events:       events,
		now:          time.Now,
	}
}

func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (*domain.Appointment, error) {
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

	// visitDate in the past is allowed: admins backfill visits.
	a := &domain.Appointment{
		ClientID:        req.ClientID,
		EngineerID:      req.EngineerID,
		VisitDate:       req.VisitDate,
		Purpose:         req.Purpose,
		SiteAddress:     req.SiteAddress,
		GoogleMapsLink:  req.GoogleMapsLink,
		OTPMobileNumber: req.OTPMobileNumber,
		Status:          domain.AppointmentScheduled,
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, err
	}

	a.Client = client
	a.Engineer = engineer
	return a, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Appointment, error) {
	return s.get(ctx, id)
}

func (s *Service) List(ctx context.Context, f repository.AppointmentFilter) ([]domain.Appointment, int64, error) {
	return s.appointments.List(ctx, f)
}

func (s *Service) Stats(ctx context.Context) (*repository.DashboardStats, error) {
	return s.appointments.Stats(ctx, s.now())
}

// Update edits descriptive fields; rejected once the verification flow
// has started.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*domain.Appointment, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != domain.AppointmentScheduled {
		return nil, ErrInvalidState
	}

	updates := map[string]any{}
	if req.VisitDate != nil {
		updates["visit_date"] = *req.VisitDate
	}
	if req.Purpose != nil {
		updates["purpose"] = *req.Purpose
	}
	if req.SiteAddress != nil {
		updates["site_address"] = *req.SiteAddress
	}
	if req.GoogleMapsLink != nil {
		updates["google_maps_link"] = *req.GoogleMapsLink
	}
	if req.OTPMobileNumber != nil {
		updates["otp_mobile_number"] = *req.OTPMobileNumber
	}
	if len(updates) == 0 {
		return a, nil
	}

	return s.commit(ctx, a, updates)
}

// SendOTP issues the verification code and moves SCHEDULED -> OTP_SENT.
// The code goes to the per-appointment override number when present,
// otherwise to the client's primary contact.
func (s *Service) SendOTP(ctx context.Context, id string) (*domain.Appointment, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != domain.AppointmentScheduled {
		return nil, ErrInvalidState
	}

	dest, err := s.destination(ctx, a)
	if err != nil {
		return nil, err
	}

	st, err := s.otp.Issue(ctx, a.ID, otpStateOf(a), dest)
	if err != nil {
		return nil, err
	}

	return s.commit(ctx, a, map[string]any{
		"status":         domain.AppointmentOTPSent,
		"otp":            *st.Code,
		"otp_sent_at":    *st.SentAt,
		"otp_expires_at": *st.ExpiresAt,
		"otp_attempts":   0,
	})
}

// ResendOTP re-issues a code while in OTP_SENT, subject to the cooldown.
// The new code supersedes the old one and resets the attempt counter.
func (s *Service) ResendOTP(ctx context.Context, id string) (*domain.Appointment, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != domain.AppointmentOTPSent {
		return nil, ErrInvalidState
	}

	dest, err := s.destination(ctx, a)
	if err != nil {
		return nil, err
	}

	st, err := s.otp.Resend(ctx, a.ID, otpStateOf(a), dest)
	if err != nil {
		return nil, err
	}

	return s.commit(ctx, a, map[string]any{
		"otp":            *st.Code,
		"otp_sent_at":    *st.SentAt,
		"otp_expires_at": *st.ExpiresAt,
		"otp_attempts":   0,
	})
}

// VerifyOTP checks the submitted code and moves OTP_SENT -> VERIFIED.
// A failed attempt persists the incremented counter; the CAS guard makes
// sure two concurrent verifications cannot both succeed.
func (s *Service) VerifyOTP(ctx context.Context, id, code string) (*domain.Appointment, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != domain.AppointmentOTPSent {
		return nil, ErrInvalidState
	}

	st, verifyErr := s.otp.Verify(otpStateOf(a), code)
	if verifyErr != nil {
		if st.Attempts != a.OTPAttempts {
			if _, err := s.commit(ctx, a, map[string]any{"otp_attempts": st.Attempts}); err != nil {
				return nil, err
			}
		}
		return nil, verifyErr
	}

	updated, err := s.commit(ctx, a, map[string]any{
		"status":         domain.AppointmentVerified,
		"otp":            nil,
		"otp_sent_at":    nil,
		"otp_expires_at": nil,
		"verified_at":    *st.VerifiedAt,
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.Publish(notify.EventAppointmentVerified, map[string]any{
			"appointmentId": updated.ID,
			"clientId":      updated.ClientID,
			"engineerId":    updated.EngineerID,
		})
	}
	return updated, nil
}

// SubmitFeedback finalizes a VERIFIED appointment; later submissions
// just overwrite the text while the appointment stays COMPLETED.
func (s *Service) SubmitFeedback(ctx context.Context, id, feedback string) (*domain.Appointment, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch a.Status {
	case domain.AppointmentVerified:
		return s.commit(ctx, a, map[string]any{
			"feedback": feedback,
			"status":   domain.AppointmentCompleted,
		})
	case domain.AppointmentCompleted:
		return s.commit(ctx, a, map[string]any{"feedback": feedback})
	default:
		return nil, ErrInvalidState
	}
}

// Cancel is the administrative override, legal from any non-terminal
// state.
func (s *Service) Cancel(ctx context.Context, id string) (*domain.Appointment, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status.Terminal() {
		return nil, ErrInvalidState
	}

	return s.commit(ctx, a, map[string]any{"status": domain.AppointmentCancelled})
}

func (s *Service) get(ctx context.Context, id string) (*domain.Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *Service) commit(ctx context.Context, a *domain.Appointment, updates map[string]any) (*domain.Appointment, error) {
	ok, err := s.appointments.UpdateGuarded(ctx, a.ID, a.UpdatedAt, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	return s.get(ctx, a.ID)
}

func (s *Service) destination(ctx context.Context, a *domain.Appointment) (string, error) {
	if a.OTPMobileNumber != nil && *a.OTPMobileNumber != "" {
		return *a.OTPMobileNumber, nil
	}

	client := a.Client
	if client == nil {
		var err error
		client, err = s.clients.GetByID(ctx, a.ClientID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", ErrClientNotFound
			}
			return "", err
		}
	}
	if client.PrimaryContact == "" {
		return "", ErrNoDestination
	}
	return client.PrimaryContact, nil
}

func otpStateOf(a *domain.Appointment) otp.State {
	return otp.State{
		Code:       a.OTP,
		SentAt:     a.OTPSentAt,
		ExpiresAt:  a.OTPExpiresAt,
		Attempts:   a.OTPAttempts,
		VerifiedAt: a.VerifiedAt,
	}
}
