package domain

import (
	"errors"

	"github.com/google/uuid"
)

// DefaultErrorTitle is the alert title used for failed loads.
const DefaultErrorTitle = "An Error Occurred"

// AppError is the user-facing form of a failure.
type AppError struct {
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
}

// userMessager is implemented by errors that carry a presentable message.
type userMessager interface {
	UserMessage() string
}

// NewAppError converts err into an AppError. Errors that know their user
// message supply it; anything else falls back to err.Error().
func NewAppError(title string, err error) AppError {
	msg := "Unknown error"
	if err != nil {
		msg = err.Error()
		var um userMessager
		if errors.As(err, &um) {
			msg = um.UserMessage()
		}
	}
	if title == "" {
		title = DefaultErrorTitle
	}
	return AppError{ID: uuid.New(), Title: title, Message: msg}
}

func (e AppError) Error() string {
	return e.Title + ": " + e.Message
}
