package errors

import "fmt"

var (
	ErrValidation  = fmt.Errorf("validation failed")
	ErrNotFound    = fmt.Errorf("chatroom not found")
	ErrPersistence = fmt.Errorf("persistence failed")

	ErrReplyPending         = fmt.Errorf("a reply is already pending for this chatroom")
	ErrReplyQueueFull       = fmt.Errorf("reply queue is full")
	ErrInvalidOTP           = fmt.Errorf("invalid otp")
	ErrOTPNotRequested      = fmt.Errorf("no otp has been requested")
	ErrCountriesUnavailable = fmt.Errorf("failed to load countries")
	ErrKeyNotFound          = fmt.Errorf("key not found")
	ErrWorkerPanic          = fmt.Errorf("worker panic")
)
