package appointment

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"fieldops/internal/domain"
	"fieldops/internal/otp"
	"fieldops/internal/repository"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

var codePattern = regexp.MustCompile(`^\d{6}$`)

// memAppointments is an in-memory repository that applies guarded
// updates the same way the SQL layer does, so the full state machine
// can be driven end to end.
type memAppointments struct {
	mu             sync.Mutex
	items          map[string]*domain.Appointment
	failNextUpdate bool
}

func newMemAppointments() *memAppointments {
	return &memAppointments{items: map[string]*domain.Appointment{}}
}

func (m *memAppointments) Create(_ context.Context, a *domain.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = "apt-1"
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *memAppointments) GetByID(_ context.Context, id string) (*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAppointments) List(_ context.Context, _ repository.AppointmentFilter) ([]domain.Appointment, int64, error) {
	return nil, 0, nil
}

func (m *memAppointments) Stats(_ context.Context, _ time.Time) (*repository.DashboardStats, error) {
	return &repository.DashboardStats{}, nil
}

func (m *memAppointments) UpdateGuarded(_ context.Context, id string, readUpdatedAt time.Time, updates map[string]any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNextUpdate {
		m.failNextUpdate = false
		return false, nil
	}
	a, ok := m.items[id]
	if !ok || !a.UpdatedAt.Equal(readUpdatedAt) {
		return false, nil
	}
	for k, v := range updates {
		switch k {
		case "status":
			a.Status = v.(domain.AppointmentStatus)
		case "otp":
			if v == nil {
				a.OTP = nil
			} else {
				s := v.(string)
				a.OTP = &s
			}
		case "otp_sent_at":
			if v == nil {
				a.OTPSentAt = nil
			} else {
				t := v.(time.Time)
				a.OTPSentAt = &t
			}
		case "otp_expires_at":
			if v == nil {
				a.OTPExpiresAt = nil
			} else {
				t := v.(time.Time)
				a.OTPExpiresAt = &t
			}
		case "otp_attempts":
			a.OTPAttempts = v.(int)
		case "verified_at":
			t := v.(time.Time)
			a.VerifiedAt = &t
		case "feedback":
			s := v.(string)
			a.Feedback = &s
		case "visit_date":
			a.VisitDate = v.(time.Time)
		case "purpose":
			s := v.(string)
			a.Purpose = &s
		case "site_address":
			s := v.(string)
			a.SiteAddress = &s
		case "google_maps_link":
			s := v.(string)
			a.GoogleMapsLink = &s
		case "otp_mobile_number":
			s := v.(string)
			a.OTPMobileNumber = &s
		case "updated_at":
			a.UpdatedAt = v.(time.Time)
		}
	}
	return true, nil
}

type memClients struct {
	items map[string]*domain.Client
}

func (m *memClients) GetByID(_ context.Context, id string) (*domain.Client, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

type memEngineers struct {
	items map[string]*domain.Engineer
}

func (m *memEngineers) GetByID(_ context.Context, id string) (*domain.Engineer, error) {
	e, ok := m.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

type capturingSender struct {
	mu    sync.Mutex
	sends []string
	done  chan struct{}
}

func newCapturingSender() *capturingSender {
	return &capturingSender{done: make(chan struct{}, 16)}
}

func (s *capturingSender) Send(_ context.Context, destination, _ string) error {
	s.mu.Lock()
	s.sends = append(s.sends, destination)
	s.mu.Unlock()
	s.done <- struct{}{}
	return nil
}

func (s *capturingSender) wait(t *testing.T) {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("otp was never dispatched")
	}
}

type capturedEvent struct {
	Type string
	Data any
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (p *capturingPublisher) Publish(eventType string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{Type: eventType, Data: data})
}

type fixture struct {
	svc       *Service
	repo      *memAppointments
	sender    *capturingSender
	publisher *capturingPublisher
	clock     *time.Time
}

func (f *fixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func newFixture(t *testing.T, opts ...otp.Option) *fixture {
	t.Helper()
	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	sender := newCapturingSender()
	issuerOpts := append([]otp.Option{
		otp.WithMaxAttempts(3),
		otp.WithClock(func() time.Time { return clock }),
	}, opts...)
	issuer := otp.NewIssuer(sender, issuerOpts...)

	repo := newMemAppointments()
	clients := &memClients{items: map[string]*domain.Client{
		"cl-1": {ID: "cl-1", Name: "Acme Builders", PrimaryContact: "+971501112233", IsActive: true},
		"cl-2": {ID: "cl-2", Name: "Dormant LLC", PrimaryContact: "+971509998877", IsActive: false},
	}}
	engineers := &memEngineers{items: map[string]*domain.Engineer{
		"en-1": {ID: "en-1", Name: "Ravi", IsActive: true},
		"en-2": {ID: "en-2", Name: "Former", IsActive: false},
	}}
	publisher := &capturingPublisher{}

	svc := NewService(repo, clients, engineers, issuer, publisher)
	svc.now = func() time.Time { return clock }

	return &fixture{svc: svc, repo: repo, sender: sender, publisher: publisher, clock: &clock}
}

func (f *fixture) schedule(t *testing.T) *domain.Appointment {
	t.Helper()
	a, err := f.svc.Schedule(context.Background(), ScheduleRequest{
		ClientID:   "cl-1",
		EngineerID: "en-1",
		VisitDate:  f.clock.Add(48 * time.Hour),
	})
	assert.NoError(t, err)
	return a
}

func TestSchedule(t *testing.T) {
	f := newFixture(t)

	a := f.schedule(t)
	assert.Equal(t, domain.AppointmentScheduled, a.Status)
	assert.NotEmpty(t, a.ID)
	assert.Nil(t, a.OTP)

	_, err := f.svc.Schedule(context.Background(), ScheduleRequest{
		ClientID: "missing", EngineerID: "en-1", VisitDate: time.Now(),
	})
	assert.ErrorIs(t, err, ErrClientNotFound)

	_, err = f.svc.Schedule(context.Background(), ScheduleRequest{
		ClientID: "cl-2", EngineerID: "en-1", VisitDate: time.Now(),
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Schedule(context.Background(), ScheduleRequest{
		ClientID: "cl-1", EngineerID: "en-2", VisitDate: time.Now(),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSendOTP(t *testing.T) {
	f := newFixture(t)
	a := f.schedule(t)

	sent, err := f.svc.SendOTP(context.Background(), a.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.AppointmentOTPSent, sent.Status)
	assert.Equal(t, 0, sent.OTPAttempts)
	assert.NotNil(t, sent.OTPSentAt)
	assert.NotNil(t, sent.OTPExpiresAt)
	assert.Equal(t, 24*time.Hour, sent.OTPExpiresAt.Sub(*sent.OTPSentAt))

	stored, _ := f.repo.GetByID(context.Background(), a.ID)
	assert.NotNil(t, stored.OTP)
	assert.Regexp(t, codePattern, *stored.OTP)

	f.sender.wait(t)
	assert.Equal(t, []string{"+971501112233"}, f.sender.sends)

	// already OTP_SENT, a second send is not a valid transition
	_, err = f.svc.SendOTP(context.Background(), a.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSendOTPPrefersOverrideNumber(t *testing.T) {
	f := newFixture(t)
	override := "+971505555555"
	a, err := f.svc.Schedule(context.Background(), ScheduleRequest{
		ClientID:        "cl-1",
		EngineerID:      "en-1",
		VisitDate:       f.clock.Add(time.Hour),
		OTPMobileNumber: &override,
	})
	assert.NoError(t, err)

	_, err = f.svc.SendOTP(context.Background(), a.ID)
	assert.NoError(t, err)
	f.sender.wait(t)
	assert.Equal(t, []string{override}, f.sender.sends)
}

func TestVerifyOTPHappyPath(t *testing.T) {
	f := newFixture(t)
	a := f.schedule(t)
	_, err := f.svc.SendOTP(context.Background(), a.ID)
	assert.NoError(t, err)

	stored, _ := f.repo.GetByID(context.Background(), a.ID)
	verified, err := f.svc.VerifyOTP(context.Background(), a.ID, *stored.OTP)
	assert.NoError(t, err)
	assert.Equal(t, domain.AppointmentVerified, verified.Status)
	assert.Nil(t, verified.OTP)
	assert.Nil(t, verified.OTPSentAt)
	assert.Nil(t, verified.OTPExpiresAt)
	assert.NotNil(t, verified.VerifiedAt)

	assert.Len(t, f.publisher.events, 1)
	assert.Equal(t, "appointment_verified", f.publisher.events[0].Type)

	// verification succeeds at most once
	_, err = f.svc.VerifyOTP(context.Background(), a.ID, *stored.OTP)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestVerifyOTPAttemptCeiling(t *testing.T) {
	f := newFixture(t)
	a := f.schedule(t)
	_, err := f.svc.SendOTP(context.Background(), a.ID)
	assert.NoError(t, err)

	_, err = f.svc.VerifyOTP(context.Background(), a.ID, "000000")
	assert.ErrorIs(t, err, otp.ErrInvalidCode)
	_, err = f.svc.VerifyOTP(context.Background(), a.ID, "000000")
	assert.ErrorIs(t, err, otp.ErrInvalidCode)
	_, err = f.svc.VerifyOTP(context.Background(), a.ID, "000000")
	assert.ErrorIs(t, err, otp.ErrAttemptsExceeded)

	stored, _ := f.repo.GetByID(context.Background(), a.ID)
	assert.Equal(t, 3, stored.OTPAttempts)

	// even the correct code is rejected once the ceiling is hit
	_, err = f.svc.VerifyOTP(context.Background(), a.ID, *stored.OTP)
	assert.ErrorIs(t, err, otp.ErrAttemptsExceeded)
}

func TestResendOTP(t *testing.T) {
	f := newFixture(t)
	a := f.schedule(t)
	_, err := f.svc.SendOTP(context.Background(), a.ID)
	assert.NoError(t, err)
	f.sender.wait(t)

	before, _ := f.repo.GetByID(context.Background(), a.ID)
	_, err = f.svc.VerifyOTP(context.Background(), a.ID, "000000")
	assert.ErrorIs(t, err, otp.ErrInvalidCode)

	// inside the cooldown window
	f.advance(20 * time.Second)
	_, err = f.svc.ResendOTP(context.Background(), a.ID)
	var rl *otp.RateLimitedError
	assert.ErrorAs(t, err, &rl)
	assert.Equal(t, 40, rl.RetryAfterSeconds())

	f.advance(41 * time.Second)
	resent, err := f.svc.ResendOTP(context.Background(), a.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, resent.OTPAttempts)
	f.sender.wait(t)

	after, _ := f.repo.GetByID(context.Background(), a.ID)
	assert.True(t, after.OTPExpiresAt.After(*before.OTPExpiresAt))

	// the superseded code no longer verifies unless it collides
	if *before.OTP != *after.OTP {
		_, err = f.svc.VerifyOTP(context.Background(), a.ID, *before.OTP)
		assert.ErrorIs(t, err, otp.ErrInvalidCode)
	}

	_, err = f.svc.VerifyOTP(context.Background(), a.ID, *after.OTP)
	assert.NoError(t, err)
}

func TestResendResetsAttemptCeiling(t *testing.T) {
	f := newFixture(t)
	a := f.schedule(t)
	_, err := f.svc.SendOTP(context.Background(), a.ID)
	assert.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, _ = f.svc.VerifyOTP(context.Background(), a.ID, "000000")
	}
	_, err = f.svc.VerifyOTP(context.Background(), a.ID, "999999")
	assert.ErrorIs(t, err, otp.ErrAttemptsExceeded)

	f.advance(2 * time.Minute)
	_, err = f.svc.ResendOTP(context.Background(), a.ID)
	assert.NoError(t, err)

	stored, _ := f.repo.GetByID(context.Background(), a.ID)
	assert.Equal(t, 0, stored.OTPAttempts)
	_, err = f.svc.VerifyOTP(context.Background(), a.ID, *stored.OTP)
	assert.NoError(t, err)
}

func TestVerifyOTPExpired(t *testing.T) {
	f := newFixture(t)
	a := f.schedule(t)
	_, err := f.svc.SendOTP(context.Background(), a.ID)
	assert.NoError(t, err)

	stored, _ := f.repo.GetByID(context.Background(), a.ID)
	f.advance(24*time.Hour + time.Minute)

	_, err = f.svc.VerifyOTP(context.Background(), a.ID, *stored.OTP)
	assert.ErrorIs(t, err, otp.ErrExpired)
}

func TestVerifyOTPWrongState(t *testing.T) {
	f := newFixture(t)
	a := f.schedule(t)

	_, err := f.svc.VerifyOTP(context.Background(), a.ID, "123456")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSubmitFeedback(t *testing.T) {
	f := newFixture(t)
	a := f.schedule(t)

	// not yet verified
	_, err := f.svc.SubmitFeedback(context.Background(), a.ID, "great visit")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.svc.SendOTP(context.Background(), a.ID)
	assert.NoError(t, err)
	stored, _ := f.repo.GetByID(context.Background(), a.ID)
	_, err = f.svc.VerifyOTP(context.Background(), a.ID, *stored.OTP)
	assert.NoError(t, err)

	done, err := f.svc.SubmitFeedback(context.Background(), a.ID, "panel inspected")
	assert.NoError(t, err)
	assert.Equal(t, domain.AppointmentCompleted, done.Status)
	assert.Equal(t, "panel inspected", *done.Feedback)

	// completed appointments accept corrections without changing state
	redone, err := f.svc.SubmitFeedback(context.Background(), a.ID, "panel inspected, minor rust")
	assert.NoError(t, err)
	assert.Equal(t, domain.AppointmentCompleted, redone.Status)
	assert.Equal(t, "panel inspected, minor rust", *redone.Feedback)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	a := f.schedule(t)

	cancelled, err := f.svc.Cancel(context.Background(), a.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.AppointmentCancelled, cancelled.Status)

	_, err = f.svc.Cancel(context.Background(), a.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestUpdateOnlyWhileScheduled(t *testing.T) {
	f := newFixture(t)
	a := f.schedule(t)

	purpose := "substation survey"
	updated, err := f.svc.Update(context.Background(), a.ID, UpdateRequest{Purpose: &purpose})
	assert.NoError(t, err)
	assert.Equal(t, purpose, *updated.Purpose)

	_, err = f.svc.SendOTP(context.Background(), a.ID)
	assert.NoError(t, err)

	_, err = f.svc.Update(context.Background(), a.ID, UpdateRequest{Purpose: &purpose})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestConcurrentModificationConflict(t *testing.T) {
	f := newFixture(t)
	a := f.schedule(t)

	f.repo.failNextUpdate = true
	_, err := f.svc.Cancel(context.Background(), a.ID)
	assert.ErrorIs(t, err, ErrConflict)

	stored, _ := f.repo.GetByID(context.Background(), a.ID)
	assert.Equal(t, domain.AppointmentScheduled, stored.Status)
}

func TestGetNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, errors.Is(err, ErrConflict))
}
