package session

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/pixabay-gallery/pkg/pixabay"
)

// Severity of a user-visible notice.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityInfo  Severity = "info"
)

// PositionTopRight is the corner every notice is shown in.
const PositionTopRight = "topRight"

// Notice is a user-visible message.
type Notice struct {
	Severity Severity `json:"severity"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Position string   `json:"position"`
}

// Notice messages.
const (
	MsgEmptyQuery = "Please enter a search query."
	MsgNoImages   = "No images found!"
	MsgEnd        = "We're sorry, but you've reached the end of search results."
	MsgNoResponse = "No response received from the server."
	MsgGeneric    = "An error occurred. Please try again later."
)

func errorNotice(msg string) Notice {
	return Notice{Severity: SeverityError, Title: "Error", Message: msg, Position: PositionTopRight}
}

func endNotice() Notice {
	return Notice{Severity: SeverityInfo, Title: "End", Message: MsgEnd, Position: PositionTopRight}
}

// failureNotice maps a fetch or render failure to the notice shown for it.
func failureNotice(err error) Notice {
	var svcErr *pixabay.ServiceError
	var netErr *pixabay.NetworkError
	switch {
	case errors.As(err, &svcErr):
		return errorNotice(fmt.Sprintf("Server error: %d", svcErr.StatusCode))
	case errors.As(err, &netErr):
		return errorNotice(MsgNoResponse)
	default:
		return errorNotice(MsgGeneric)
	}
}
