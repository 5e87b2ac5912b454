package workervisit

import (
	"context"
	"sync"
	"testing"
	"time"

	"fieldops/internal/domain"
	"fieldops/internal/otp"
	"fieldops/internal/repository"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type memVisits struct {
	mu             sync.Mutex
	items          map[string]*domain.WorkerVisit
	failNextUpdate bool
}

func newMemVisits() *memVisits {
	return &memVisits{items: map[string]*domain.WorkerVisit{}}
}

func (m *memVisits) Create(_ context.Context, v *domain.WorkerVisit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == "" {
		v.ID = "wv-1"
	}
	v.CreatedAt = time.Now()
	v.UpdatedAt = v.CreatedAt
	cp := *v
	m.items[v.ID] = &cp
	return nil
}

func (m *memVisits) GetByID(_ context.Context, id string) (*domain.WorkerVisit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *memVisits) List(_ context.Context, _ repository.WorkerVisitFilter) ([]domain.WorkerVisit, int64, error) {
	return nil, 0, nil
}

func (m *memVisits) SummaryByClient(_ context.Context, _, _ time.Time) ([]repository.VisitSummaryRow, error) {
	return nil, nil
}

func (m *memVisits) UpdateGuarded(_ context.Context, id string, readUpdatedAt time.Time, updates map[string]any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNextUpdate {
		m.failNextUpdate = false
		return false, nil
	}
	v, ok := m.items[id]
	if !ok || !v.UpdatedAt.Equal(readUpdatedAt) {
		return false, nil
	}
	for k, val := range updates {
		switch k {
		case "status":
			v.Status = val.(domain.VisitStatus)
		case "otp":
			if val == nil {
				v.OTP = nil
			} else {
				s := val.(string)
				v.OTP = &s
			}
		case "otp_sent_at":
			if val == nil {
				v.OTPSentAt = nil
			} else {
				t := val.(time.Time)
				v.OTPSentAt = &t
			}
		case "otp_expires_at":
			if val == nil {
				v.OTPExpiresAt = nil
			} else {
				t := val.(time.Time)
				v.OTPExpiresAt = &t
			}
		case "verified_at":
			t := val.(time.Time)
			v.VerifiedAt = &t
		case "worker_count":
			n := val.(int)
			v.WorkerCount = &n
		case "remarks":
			s := val.(string)
			v.Remarks = &s
		case "updated_at":
			v.UpdatedAt = val.(time.Time)
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

func (s *capturingSender) waitFor(t *testing.T, n int) []string {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-s.done:
		case <-time.After(time.Second):
			t.Fatalf("expected %d otp dispatches", n)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sends))
	copy(out, s.sends)
	return out
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *capturingPublisher) Publish(eventType string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

type fixture struct {
	svc       *Service
	repo      *memVisits
	sender    *capturingSender
	publisher *capturingPublisher
	clock     *time.Time
}

func (f *fixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := time.Date(2026, 3, 12, 7, 30, 0, 0, time.UTC)
	sender := newCapturingSender()
	issuer := otp.NewIssuer(sender, otp.WithClock(func() time.Time { return clock }))

	repo := newMemVisits()
	clients := &memClients{items: map[string]*domain.Client{
		"cl-1": {ID: "cl-1", Name: "Acme Builders", PrimaryContact: "+971501112233", IsActive: true},
	}}
	engineers := &memEngineers{items: map[string]*domain.Engineer{
		"en-1": {ID: "en-1", Name: "Ravi", IsActive: true},
	}}
	publisher := &capturingPublisher{}

	svc := NewService(repo, clients, engineers, issuer, publisher, "+971500000001")
	return &fixture{svc: svc, repo: repo, sender: sender, publisher: publisher, clock: &clock}
}

func (f *fixture) create(t *testing.T) *domain.WorkerVisit {
	t.Helper()
	v, err := f.svc.Create(context.Background(), CreateRequest{
		ClientID:   "cl-1",
		EngineerID: "en-1",
		VisitDate:  f.clock.Add(24 * time.Hour),
	})
	assert.NoError(t, err)
	return v
}

func TestCreateIssuesOTPAtomically(t *testing.T) {
	f := newFixture(t)

	v := f.create(t)
	assert.Equal(t, domain.VisitPending, v.Status)
	assert.NotNil(t, v.OTP)
	assert.Len(t, *v.OTP, otp.CodeLength)
	assert.NotNil(t, v.OTPSentAt)
	assert.NotNil(t, v.OTPExpiresAt)
	assert.Nil(t, v.WorkerCount)

	// code is dispatched to the client and the admin contact
	sends := f.sender.waitFor(t, 2)
	assert.ElementsMatch(t, []string{"+971501112233", "+971500000001"}, sends)
}

func TestCreateRejectsUnknownReferences(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), CreateRequest{
		ClientID: "missing", EngineerID: "en-1", VisitDate: time.Now(),
	})
	assert.ErrorIs(t, err, ErrClientNotFound)

	_, err = f.svc.Create(context.Background(), CreateRequest{
		ClientID: "cl-1", EngineerID: "missing", VisitDate: time.Now(),
	})
	assert.ErrorIs(t, err, ErrEngineerNotFound)
}

func TestSubmitCountCompletesInOneCall(t *testing.T) {
	f := newFixture(t)
	v := f.create(t)

	remarks := "12 on scaffolding"
	stored, _ := f.repo.GetByID(context.Background(), v.ID)
	done, err := f.svc.SubmitCount(context.Background(), v.ID, SubmitCountRequest{
		WorkerCount: 12,
		OTP:         *stored.OTP,
		Remarks:     &remarks,
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.VisitCompleted, done.Status)
	assert.Equal(t, 12, *done.WorkerCount)
	assert.Equal(t, remarks, *done.Remarks)
	assert.NotNil(t, done.VerifiedAt)
	assert.Nil(t, done.OTP)

	assert.Equal(t, []string{"worker_count_submitted"}, f.publisher.events)

	// the count is set exactly once
	_, err = f.svc.SubmitCount(context.Background(), v.ID, SubmitCountRequest{
		WorkerCount: 15, OTP: "000000",
	})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSubmitCountWrongCodeHasNoCeiling(t *testing.T) {
	f := newFixture(t)
	v := f.create(t)

	for i := 0; i < 5; i++ {
		_, err := f.svc.SubmitCount(context.Background(), v.ID, SubmitCountRequest{
			WorkerCount: 8, OTP: "000000",
		})
		assert.ErrorIs(t, err, otp.ErrInvalidCode)
	}

	stored, _ := f.repo.GetByID(context.Background(), v.ID)
	assert.Equal(t, domain.VisitPending, stored.Status)
	assert.Nil(t, stored.WorkerCount)

	done, err := f.svc.SubmitCount(context.Background(), v.ID, SubmitCountRequest{
		WorkerCount: 8, OTP: *stored.OTP,
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.VisitCompleted, done.Status)
}

func TestSubmitCountExpired(t *testing.T) {
	f := newFixture(t)
	v := f.create(t)

	stored, _ := f.repo.GetByID(context.Background(), v.ID)
	f.advance(24*time.Hour + time.Second)

	_, err := f.svc.SubmitCount(context.Background(), v.ID, SubmitCountRequest{
		WorkerCount: 8, OTP: *stored.OTP,
	})
	assert.ErrorIs(t, err, otp.ErrExpired)
}

func TestSubmitCountRejectsNonPositiveCount(t *testing.T) {
	f := newFixture(t)
	v := f.create(t)

	_, err := f.svc.SubmitCount(context.Background(), v.ID, SubmitCountRequest{
		WorkerCount: 0, OTP: "123456",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestResendOTPCooldown(t *testing.T) {
	f := newFixture(t)
	v := f.create(t)
	f.sender.waitFor(t, 2)

	f.advance(30 * time.Second)
	_, err := f.svc.ResendOTP(context.Background(), v.ID)
	var rl *otp.RateLimitedError
	assert.ErrorAs(t, err, &rl)
	assert.Equal(t, 30, rl.RetryAfterSeconds())

	f.advance(31 * time.Second)
	resent, err := f.svc.ResendOTP(context.Background(), v.ID)
	assert.NoError(t, err)
	assert.NotNil(t, resent.OTP)
	sends := f.sender.waitFor(t, 2)
	assert.Len(t, sends, 4)

	stored, _ := f.repo.GetByID(context.Background(), v.ID)
	done, err := f.svc.SubmitCount(context.Background(), v.ID, SubmitCountRequest{
		WorkerCount: 20, OTP: *stored.OTP,
	})
	assert.NoError(t, err)
	assert.Equal(t, 20, *done.WorkerCount)
}

func TestSubmitCountConflict(t *testing.T) {
	f := newFixture(t)
	v := f.create(t)

	stored, _ := f.repo.GetByID(context.Background(), v.ID)
	f.repo.failNextUpdate = true
	_, err := f.svc.SubmitCount(context.Background(), v.ID, SubmitCountRequest{
		WorkerCount: 9, OTP: *stored.OTP,
	})
	assert.ErrorIs(t, err, ErrConflict)

	after, _ := f.repo.GetByID(context.Background(), v.ID)
	assert.Equal(t, domain.VisitPending, after.Status)
	assert.Nil(t, after.WorkerCount)
}
