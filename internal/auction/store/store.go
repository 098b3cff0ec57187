package store

import (
	"context"

	"bidhall/internal/auction/models"
	id "bidhall/pkg/domain"
)

// Store persists auctions. Implementations return sentinel errors
// (pkg/platform/sentinel) which services translate into coded domain errors.
type Store interface {
	Create(ctx context.Context, a *models.Auction) error
	FindByID(ctx context.Context, auctionID id.AuctionID) (*models.Auction, error)
	// Execute atomically loads the auction, runs fn against it, and persists
	// the result when fn returns nil. The lock (mutex or FOR UPDATE) is held
	// for the whole callback so validation and mutation cannot interleave
	// with a concurrent writer.
	Execute(ctx context.Context, auctionID id.AuctionID, fn func(*models.Auction) error) (*models.Auction, error)
}

// MembershipStore persists (auction, user) memberships.
type MembershipStore interface {
	// Add inserts a membership; sentinel.ErrAlreadyExists when the user is
	// already a member of the auction.
	Add(ctx context.Context, m *models.Membership) error
	Find(ctx context.Context, auctionID id.AuctionID, userID id.UserID) (*models.Membership, error)
	ListByAuction(ctx context.Context, auctionID id.AuctionID) ([]*models.Membership, error)
	UpdateRole(ctx context.Context, auctionID id.AuctionID, userID id.UserID, role models.Role) error
	Remove(ctx context.Context, auctionID id.AuctionID, userID id.UserID) error
}
