package premium

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/resume-builder/internal/models"
	"github.com/magabrotheeeer/resume-builder/internal/services/identity"
	"github.com/magabrotheeeer/resume-builder/internal/services/subscription"
)

type StoreMock struct{ mock.Mock }

func (m *StoreMock) FindActive(ctx context.Context, userID string) (*models.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *StoreMock) Latest(ctx context.Context, userID string) (*models.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *StoreMock) Create(ctx context.Context, userID string, planType models.PlanType,
	period models.PlanPeriod, externalID string) (*models.Subscription, error) {
	args := m.Called(ctx, userID, planType, period, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

type ResolverMock struct{ mock.Mock }

func (m *ResolverMock) Lookup(ctx context.Context, req identity.Request) (identity.Result, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(identity.Result), args.Error(1)
}

func newService(store Store, resolver Resolver) *Service {
	s := NewService(store, resolver, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return s
}

func TestService_IsPremium(t *testing.T) {
	ctx := context.Background()
	store := new(StoreMock)
	store.On("FindActive", ctx, "premium").Return(&models.Subscription{Status: models.StatusActive}, nil)
	store.On("FindActive", ctx, "free").Return(nil, nil)
	store.On("FindActive", ctx, "broken").Return(nil, errors.New("db down"))

	s := newService(store, nil)

	ok, err := s.IsPremium(ctx, "premium")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsPremium(ctx, "free")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.IsPremium(ctx, "broken")
	require.Error(t, err)

	details, err := s.SubscriptionDetails(ctx, "free")
	require.NoError(t, err)
	assert.Nil(t, details)
}

func TestService_Status(t *testing.T) {
	ctx := context.Background()
	store := new(StoreMock)
	latest := &models.Subscription{ID: "old", Status: models.StatusCanceled}
	store.On("FindActive", ctx, "u1").Return(nil, nil)
	store.On("Latest", ctx, "u1").Return(latest, nil)

	st, err := newService(store, nil).Status(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, st.Premium)
	assert.Nil(t, st.Subscription)
	assert.Equal(t, latest, st.Latest)
}

func TestService_ActivateDirect(t *testing.T) {
	ctx := context.Background()

	t.Run("creates yearly subscription", func(t *testing.T) {
		store := new(StoreMock)
		store.On("FindActive", ctx, "u1").Return(nil, nil)
		store.On("Create", ctx, "u1", models.PlanPremium, models.PeriodYearly, "direct-activation-1700000000000").
			Return(&models.Subscription{ID: "s1", Status: models.StatusActive}, nil)

		sub, already, err := newService(store, nil).ActivateDirect(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, already)
		assert.Equal(t, "s1", sub.ID)
	})

	t.Run("returns existing active subscription", func(t *testing.T) {
		store := new(StoreMock)
		store.On("FindActive", ctx, "u1").Return(&models.Subscription{ID: "s0", Status: models.StatusActive}, nil)

		sub, already, err := newService(store, nil).ActivateDirect(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, already)
		assert.Equal(t, "s0", sub.ID)
		store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("concurrent activation", func(t *testing.T) {
		store := new(StoreMock)
		store.On("FindActive", ctx, "u1").Return(nil, nil).Once()
		store.On("Create", ctx, "u1", models.PlanPremium, models.PeriodYearly, mock.Anything).
			Return(nil, subscription.ErrAlreadyActive)
		store.On("FindActive", ctx, "u1").Return(&models.Subscription{ID: "s2", Status: models.StatusActive}, nil).Once()

		sub, already, err := newService(store, nil).ActivateDirect(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, already)
		assert.Equal(t, "s2", sub.ID)
	})
}

func TestService_CheckEmail(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		setup        func(r *ResolverMock, s *StoreMock)
		wantResolved bool
		wantPremium  bool
		wantErr      bool
	}{
		{
			name: "premium user",
			setup: func(r *ResolverMock, s *StoreMock) {
				r.On("Lookup", ctx, identity.Request{Email: "Buyer@Example.com"}).
					Return(identity.Result{UserID: "u1", Strategy: identity.StrategyExact}, nil)
				s.On("FindActive", ctx, "u1").Return(&models.Subscription{
					ID: "sub-1", UserID: "u1", Status: models.StatusActive,
					PlanPeriod: models.PeriodYearly, ExternalSubscriptionID: "ext-1",
				}, nil)
			},
			wantResolved: true,
			wantPremium:  true,
		},
		{
			name: "unknown email",
			setup: func(r *ResolverMock, _ *StoreMock) {
				r.On("Lookup", ctx, mock.Anything).Return(identity.Result{}, identity.ErrUserNotFound)
			},
		},
		{
			name: "lookup failure",
			setup: func(r *ResolverMock, _ *StoreMock) {
				r.On("Lookup", ctx, mock.Anything).Return(identity.Result{}, identity.ErrLookup)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, s := new(ResolverMock), new(StoreMock)
			tt.setup(r, s)

			check, err := newService(s, r).CheckEmail(ctx, "Buyer@Example.com")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "buyer@example.com", check.Email)
			assert.Equal(t, tt.wantResolved, check.Resolved)
			assert.Equal(t, tt.wantPremium, check.Premium)

			raw, err := json.Marshal(check)
			require.NoError(t, err)
			for _, secret := range []string{"u1", "sub-1", "ext-1"} {
				assert.NotContains(t, string(raw), secret)
			}
		})
	}
}
