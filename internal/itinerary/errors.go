package itinerary

import "errors"

// Fixed messages surfaced through Store.Err.
const (
	MsgFetchFailed  = "Failed to fetch itineraries"
	MsgCreateFailed = "Failed to add itinerary"
	MsgUpdateFailed = "Failed to update itinerary"
	MsgDeleteFailed = "Failed to delete itinerary"
)

var (
	ErrNotLoggedIn  = errors.New("User not logged in")
	ErrInvalidDraft = errors.New("invalid itinerary")
)

// OpError is a rejected lifecycle operation. Error returns only the fixed
// message; the remote cause stays reachable through Unwrap.
type OpError struct {
	Op      string
	Message string
	Err     error
}

func (e *OpError) Error() string { return e.Message }

func (e *OpError) Unwrap() error { return e.Err }
