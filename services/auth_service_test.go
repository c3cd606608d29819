package services

import (
	"chat-desk/domain"
	"chat-desk/errors"
	"chat-desk/mocks"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newAuthService(t *testing.T) (*AuthService, *mocks.MockSessionStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	session := mocks.NewMockSessionStore(ctrl)
	svc := NewAuthService(logs.GetLoggerFromLevel(slog.LevelDebug), session, "123456", time.Millisecond)
	return svc, session
}

func TestAuthService_RequestOTP(t *testing.T) {
	t.Run("should accept a phone number with spaces", func(t *testing.T) {
		req := require.New(t)
		svc, _ := newAuthService(t)

		err := svc.RequestOTP(context.Background(), "+1", "555 123 4567")

		req.NoError(err)
	})

	t.Run("should reject malformed phone numbers", func(t *testing.T) {
		for _, phone := range []string{"", "123456", "1234567890123456", "555-123-4567", "+15551234567", "abcdefgh"} {
			req := require.New(t)
			svc, _ := newAuthService(t)

			err := svc.RequestOTP(context.Background(), "+1", phone)

			req.ErrorIs(err, errors.ErrValidation, "phone=%q", phone)
		}
	})

	t.Run("should require a country code", func(t *testing.T) {
		req := require.New(t)
		svc, _ := newAuthService(t)

		err := svc.RequestOTP(context.Background(), "", "5551234567")

		req.ErrorIs(err, errors.ErrValidation)
	})

	t.Run("should stop waiting when the context ends", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		svc := NewAuthService(slog.Default(), mocks.NewMockSessionStore(ctrl), "123456", time.Minute)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := svc.RequestOTP(ctx, "+1", "5551234567")

		req.ErrorIs(err, context.Canceled)
		_, err = svc.VerifyOTP(context.Background(), "123456")
		req.ErrorIs(err, errors.ErrOTPNotRequested)
	})
}

func TestAuthService_VerifyOTP(t *testing.T) {
	t.Run("should log the user in with the right code", func(t *testing.T) {
		req := require.New(t)
		svc, session := newAuthService(t)
		req.NoError(svc.RequestOTP(context.Background(), "+33", "6 12 34 56 78"))

		var loggedIn domain.User
		session.EXPECT().
			Login(gomock.Any()).
			Do(func(user domain.User) { loggedIn = user }).
			Times(1)

		user, err := svc.VerifyOTP(context.Background(), "123456")

		req.NoError(err)
		req.Equal(user, loggedIn)
		req.NotEmpty(user.ID)
		req.Equal("612345678", user.Phone)
		req.Equal("+33", user.CountryCode)
		req.True(user.IsAuthenticated)

		// Then the code cannot be replayed
		_, err = svc.VerifyOTP(context.Background(), "123456")
		req.ErrorIs(err, errors.ErrOTPNotRequested)
	})

	t.Run("should refuse a wrong code and keep the request", func(t *testing.T) {
		req := require.New(t)
		svc, session := newAuthService(t)
		req.NoError(svc.RequestOTP(context.Background(), "+1", "5551234567"))
		session.EXPECT().Login(gomock.Any()).Times(1)

		_, err := svc.VerifyOTP(context.Background(), "654321")
		req.ErrorIs(err, errors.ErrInvalidOTP)

		_, err = svc.VerifyOTP(context.Background(), "123456")
		req.NoError(err)
	})

	t.Run("should validate the code shape before anything else", func(t *testing.T) {
		svc, session := newAuthService(t)
		session.EXPECT().Login(gomock.Any()).Times(0)

		for _, otp := range []string{"", "12345", "1234567", "12a456"} {
			_, err := svc.VerifyOTP(context.Background(), otp)
			require.ErrorIs(t, err, errors.ErrValidation, "otp=%q", otp)
		}
	})

	t.Run("should require a prior request", func(t *testing.T) {
		req := require.New(t)
		svc, _ := newAuthService(t)

		_, err := svc.VerifyOTP(context.Background(), "123456")

		req.ErrorIs(err, errors.ErrOTPNotRequested)
	})
}

func TestAuthService_Logout(t *testing.T) {
	req := require.New(t)
	svc, session := newAuthService(t)
	req.NoError(svc.RequestOTP(context.Background(), "+1", "5551234567"))
	session.EXPECT().Logout().Times(1)

	svc.Logout()

	_, err := svc.VerifyOTP(context.Background(), "123456")
	req.ErrorIs(err, errors.ErrOTPNotRequested)
}
