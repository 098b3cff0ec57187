package domain

import "github.com/google/uuid"

// Defined types do not inherit uuid.UUID's encoding methods, so each ID
// implements encoding.TextMarshaler/TextUnmarshaler to round-trip as the
// canonical UUID string in JSON and SQL scans.

func (id UserID) MarshalText() ([]byte, error)  { return []byte(uuid.UUID(id).String()), nil }
func (id *UserID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(id), b) }

func (id AuctionID) MarshalText() ([]byte, error)  { return []byte(uuid.UUID(id).String()), nil }
func (id *AuctionID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(id), b) }

func (id ItemID) MarshalText() ([]byte, error)  { return []byte(uuid.UUID(id).String()), nil }
func (id *ItemID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(id), b) }

func (id BidID) MarshalText() ([]byte, error)  { return []byte(uuid.UUID(id).String()), nil }
func (id *BidID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(id), b) }

func (id NotificationID) MarshalText() ([]byte, error) {
	return []byte(uuid.UUID(id).String()), nil
}
func (id *NotificationID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(id), b) }

func unmarshalID(dst *uuid.UUID, b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*dst = u
	return nil
}
