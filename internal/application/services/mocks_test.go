package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/patientportal/internal/adapters/credentials"
	"github.com/zatekoja/patientportal/internal/application/services"
	"github.com/zatekoja/patientportal/internal/domain/entities"
	"github.com/zatekoja/patientportal/internal/domain/providers"
)

// Mocks

type MockClinicAPI struct {
	mock.Mock
}

func (m *MockClinicAPI) Login(ctx context.Context, login, password string) (string, error) {
	args := m.Called(ctx, login, password)
	return args.String(0), args.Error(1)
}

func (m *MockClinicAPI) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockClinicAPI) ListDoctors(ctx context.Context, token string) ([]entities.Doctor, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Doctor), args.Error(1)
}

func (m *MockClinicAPI) ListVisits(ctx context.Context, token string) ([]entities.Visit, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Visit), args.Error(1)
}

func (m *MockClinicAPI) GetVisit(ctx context.Context, token string, id int) (*entities.VisitDetail, error) {
	args := m.Called(ctx, token, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.VisitDetail), args.Error(1)
}

func (m *MockClinicAPI) CreateVisit(ctx context.Context, token string, req entities.AppointmentRequest) (*entities.BookingConfirmation, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BookingConfirmation), args.Error(1)
}

func (m *MockClinicAPI) GetProfile(ctx context.Context, token string) (*entities.Profile, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Profile), args.Error(1)
}

func (m *MockClinicAPI) UpdateProfile(ctx context.Context, token string, id int, update entities.ProfileUpdate) (*entities.Profile, error) {
	args := m.Called(ctx, token, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Profile), args.Error(1)
}

type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockCredentialStore) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockCredentialStore) Remove(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockDatePicker struct {
	mock.Mock
}

func (m *MockDatePicker) RequestDate(ctx context.Context, lowerBound, initial time.Time) (time.Time, bool, error) {
	args := m.Called(ctx, lowerBound, initial)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

type MockTimePicker struct {
	mock.Mock
}

func (m *MockTimePicker) RequestTime(ctx context.Context, initial time.Time, minuteInterval int) (time.Time, bool, error) {
	args := m.Called(ctx, initial, minuteInterval)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// Wednesday
var testNow = time.Date(2024, time.May, 15, 10, 20, 0, 0, time.UTC)

// newLoggedInSession returns a session whose store already holds token
func newLoggedInSession(t *testing.T, api providers.ClinicAPI, token string) *services.SessionService {
	t.Helper()
	store := credentials.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), providers.AccessTokenKey, token))
	return services.NewSessionService(api, store)
}

func newLoggedOutSession(api providers.ClinicAPI) *services.SessionService {
	return services.NewSessionService(api, credentials.NewMemoryStore())
}
