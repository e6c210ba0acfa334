package api

import (
	"net/http"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"
)

// StatusError is an error carrying the HTTP status returned to the client
type StatusError struct {
	status      int
	userMessage string
	err         error
}

// NewBadRequestError creates a 400 error whose message is shown to the client
func NewBadRequestError(err error) *StatusError {
	return &StatusError{
		status:      http.StatusBadRequest,
		userMessage: err.Error(),
		err:         err,
	}
}

// ErrorToStatusError maps a raffle error onto an HTTP status.
// Internal errors never leak their message to the client.
func ErrorToStatusError(err error) *StatusError {
	if se, ok := err.(*StatusError); ok {
		return se
	}

	status := http.StatusInternalServerError
	switch entities.KindOf(err) {
	case entities.ErrorKindValidation:
		status = http.StatusBadRequest
	case entities.ErrorKindConflict:
		status = http.StatusConflict
	case entities.ErrorKindNotFound:
		status = http.StatusNotFound
	case entities.ErrorKindUnauthorized:
		status = http.StatusForbidden
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	return &StatusError{status: status, userMessage: msg, err: err}
}

func (e *StatusError) Status() int {
	return e.status
}

func (e *StatusError) UserMessage() string {
	return e.userMessage
}

func (e *StatusError) Error() string {
	return e.err.Error()
}

func (e *StatusError) Unwrap() error {
	return e.err
}
