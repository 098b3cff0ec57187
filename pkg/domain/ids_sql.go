package domain

import (
	"database/sql/driver"

	"github.com/google/uuid"
)

// database/sql support. Values are stored as canonical UUID strings, which
// postgres accepts for uuid columns; scans delegate to uuid.UUID.

func (id UserID) Value() (driver.Value, error)  { return uuid.UUID(id).String(), nil }
func (id *UserID) Scan(src any) error           { return (*uuid.UUID)(id).Scan(src) }

func (id AuctionID) Value() (driver.Value, error) { return uuid.UUID(id).String(), nil }
func (id *AuctionID) Scan(src any) error          { return (*uuid.UUID)(id).Scan(src) }

func (id ItemID) Value() (driver.Value, error) { return uuid.UUID(id).String(), nil }
func (id *ItemID) Scan(src any) error          { return (*uuid.UUID)(id).Scan(src) }

func (id BidID) Value() (driver.Value, error) { return uuid.UUID(id).String(), nil }
func (id *BidID) Scan(src any) error          { return (*uuid.UUID)(id).Scan(src) }

func (id NotificationID) Value() (driver.Value, error) { return uuid.UUID(id).String(), nil }
func (id *NotificationID) Scan(src any) error          { return (*uuid.UUID)(id).Scan(src) }
