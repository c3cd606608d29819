package services

import (
	"chat-desk/domain"
	"chat-desk/errors"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

type IAuthService interface {
	RequestOTP(ctx context.Context, countryCode, phone string) error
	VerifyOTP(ctx context.Context, otp string) (domain.User, error)
	Logout()
}

type otpRequest struct {
	CountryCode string `validate:"required,startswith=+,max=8"`
	Phone       string `validate:"required,number,min=7,max=15"`
}

type otpCheck struct {
	OTP string `validate:"required,len=6,number"`
}

// AuthService runs the phone + OTP login. Nothing is sent for real:
// the code is fixed by configuration and the delivery is a delay.
type AuthService struct {
	mu      sync.Mutex
	log     *slog.Logger
	session SessionStore
	code    string
	delay   time.Duration
	wait    func(ctx context.Context, d time.Duration) error
	pending *otpRequest
}

func NewAuthService(log *slog.Logger, session SessionStore, code string, delay time.Duration) *AuthService {
	return &AuthService{log: log, session: session, code: code, delay: delay, wait: sleepContext}
}

// RequestOTP validates the phone number and simulates sending a code to it.
// Spaces in the phone number are ignored.
func (s *AuthService) RequestOTP(ctx context.Context, countryCode, phone string) error {
	request := otpRequest{
		CountryCode: strings.TrimSpace(countryCode),
		Phone:       strings.ReplaceAll(phone, " ", ""),
	}
	if err := validate.Struct(request); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}

	if err := s.wait(ctx, s.delay); err != nil {
		return err
	}

	s.mu.Lock()
	s.pending = &request
	s.mu.Unlock()
	s.log.Info("OTP sent", "country", request.CountryCode, "phone", domain.FormatPhone(request.Phone))
	return nil
}

// VerifyOTP checks the code against the last request and opens the session.
func (s *AuthService) VerifyOTP(ctx context.Context, otp string) (domain.User, error) {
	check := otpCheck{OTP: strings.TrimSpace(otp)}
	if err := validate.Struct(check); err != nil {
		return domain.User{}, fmt.Errorf("%w: otp must be 6 digits", errors.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return domain.User{}, errors.ErrOTPNotRequested
	}
	if ctx.Err() != nil {
		return domain.User{}, ctx.Err()
	}
	if check.OTP != s.code {
		s.log.Warn("Wrong OTP submitted", "phone", domain.FormatPhone(s.pending.Phone))
		return domain.User{}, errors.ErrInvalidOTP
	}

	user := domain.User{
		ID:              uuid.Must(uuid.NewV7()).String(),
		Phone:           s.pending.Phone,
		CountryCode:     s.pending.CountryCode,
		IsAuthenticated: true,
	}
	s.pending = nil
	s.session.Login(user)
	return user, nil
}

func (s *AuthService) Logout() {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
	s.session.Logout()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
