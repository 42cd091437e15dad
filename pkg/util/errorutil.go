package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes for ticket lifecycle failures.
const (
	CodeAlreadyOpen          = "ALREADY_OPEN"
	CodeUnknownOption        = "UNKNOWN_OPTION"
	CodeNoCategoryConfigured = "NO_CATEGORY_CONFIGURED"
	CodeNotATicketChannel    = "NOT_A_TICKET_CHANNEL"
	CodeNoTicketFound        = "NO_TICKET_FOUND"
	CodeMultipleOpenTickets  = "MULTIPLE_OPEN_TICKETS"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewAlreadyOpen signals creation blocked by an existing valid open ticket.
// The surviving channel id travels in Details so the caller can point the
// requester at the existing channel.
func NewAlreadyOpen(ticketID int64, channelID string) error {
	return NewDomainError(CodeAlreadyOpen, "a ticket is already open for this user", http.StatusConflict, map[string]any{
		"ticket_id":  ticketID,
		"channel_id": channelID,
	})
}

// NewUnknownOption signals a selection with no matching ticket option.
func NewUnknownOption(value string) error {
	return NewDomainError(CodeUnknownOption, "unknown ticket option", http.StatusBadRequest, map[string]any{
		"value": value,
	})
}

// NewNoCategoryConfigured signals a guild without ticket configuration.
func NewNoCategoryConfigured(guildID string) error {
	return NewDomainError(CodeNoCategoryConfigured, "no ticket options configured for this guild", http.StatusBadRequest, map[string]any{
		"guild_id": guildID,
	})
}

// NewNotATicketChannel signals closure attempted on a non-ticket channel.
func NewNotATicketChannel(channelID string) error {
	return NewDomainError(CodeNotATicketChannel, "channel has no open ticket", http.StatusNotFound, map[string]any{
		"channel_id": channelID,
	})
}

// NewNoTicketFound signals forced closure for a user with no ticket history.
func NewNoTicketFound(guildID, userID string) error {
	return NewDomainError(CodeNoTicketFound, "no ticket found for user", http.StatusNotFound, map[string]any{
		"guild_id": guildID,
		"user_id":  userID,
	})
}

// NewMultipleOpenTickets surfaces the data anomaly where more than one open
// ticket survives reconciliation for the same (guild, user) pair. The engine
// does not arbitrate; the operator has to.
func NewMultipleOpenTickets(guildID, userID string, count int) error {
	return NewDomainError(CodeMultipleOpenTickets, "multiple open tickets survived reconciliation", http.StatusInternalServerError, map[string]any{
		"guild_id": guildID,
		"user_id":  userID,
		"count":    count,
	})
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries the given domain error code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
