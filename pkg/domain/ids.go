// Package domain provides typed identifiers shared across all modules.
//
// IDs are distinct UUID types so the compiler rejects cross-entity mixups
// (passing a DocumentID where a PropertyID is expected). Parse helpers
// enforce the trust-boundary invariant: IDs must be valid, non-empty,
// non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "landreg/pkg/domain-errors"
)

type (
	UserID         uuid.UUID
	PropertyID     uuid.UUID
	DocumentID     uuid.UUID
	PaymentID      uuid.UUID
	DisputeID      uuid.UUID
	NotificationID uuid.UUID
)

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id PropertyID) String() string     { return uuid.UUID(id).String() }
func (id DocumentID) String() string     { return uuid.UUID(id).String() }
func (id PaymentID) String() string      { return uuid.UUID(id).String() }
func (id DisputeID) String() string      { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id PropertyID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id PaymentID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id DisputeID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText keeps IDs as canonical UUID strings in JSON and logs.
func (id UserID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id PropertyID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id DocumentID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id PaymentID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id DisputeID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id NotificationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *PropertyID) UnmarshalText(b []byte) error {
	parsed, err := ParsePropertyID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *DocumentID) UnmarshalText(b []byte) error {
	parsed, err := ParseDocumentID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *PaymentID) UnmarshalText(b []byte) error {
	parsed, err := ParsePaymentID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *DisputeID) UnmarshalText(b []byte) error {
	parsed, err := ParseDisputeID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *NotificationID) UnmarshalText(b []byte) error {
	parsed, err := ParseNotificationID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func NewUserID() UserID                 { return UserID(uuid.New()) }
func NewPropertyID() PropertyID         { return PropertyID(uuid.New()) }
func NewDocumentID() DocumentID         { return DocumentID(uuid.New()) }
func NewPaymentID() PaymentID           { return PaymentID(uuid.New()) }
func NewDisputeID() DisputeID           { return DisputeID(uuid.New()) }
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }

// parseUUID rejects empty strings, malformed UUIDs, and the nil UUID.
func parseUUID(raw, what string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", what)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid UUID", what)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be the nil UUID", what)
	}
	return parsed, nil
}

func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user_id")
	return UserID(parsed), err
}

func ParsePropertyID(raw string) (PropertyID, error) {
	parsed, err := parseUUID(raw, "property_id")
	return PropertyID(parsed), err
}

func ParseDocumentID(raw string) (DocumentID, error) {
	parsed, err := parseUUID(raw, "document_id")
	return DocumentID(parsed), err
}

func ParsePaymentID(raw string) (PaymentID, error) {
	parsed, err := parseUUID(raw, "payment_id")
	return PaymentID(parsed), err
}

func ParseDisputeID(raw string) (DisputeID, error) {
	parsed, err := parseUUID(raw, "dispute_id")
	return DisputeID(parsed), err
}

func ParseNotificationID(raw string) (NotificationID, error) {
	parsed, err := parseUUID(raw, "notification_id")
	return NotificationID(parsed), err
}
