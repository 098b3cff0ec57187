package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"bidhall/internal/auction/authz"
	"bidhall/internal/auction/models"
	"bidhall/internal/auction/store"
	"bidhall/internal/events"
	itemstore "bidhall/internal/item/store"
	"bidhall/internal/notification"
	id "bidhall/pkg/domain"
	dErrors "bidhall/pkg/domain-errors"
	"bidhall/pkg/platform/sentinel"
	"bidhall/pkg/platform/tx"
	"bidhall/pkg/requestcontext"
)

// Notifier creates in-app notifications with email fan-out.
type Notifier interface {
	Notify(ctx context.Context, req notification.Request) (*notification.Notification, error)
}

// Service implements auction and membership operations, including the close
// cascade that ends every open item and determines winners.
type Service struct {
	auctions    store.Store
	memberships store.MembershipStore
	items       itemstore.Store
	runner      tx.Runner
	notifier    Notifier
	bus         *events.Bus
	logger      *slog.Logger
}

func NewService(auctions store.Store, memberships store.MembershipStore, items itemstore.Store, runner tx.Runner, notifier Notifier, bus *events.Bus, logger *slog.Logger) *Service {
	return &Service{
		auctions:    auctions,
		memberships: memberships,
		items:       items,
		runner:      runner,
		notifier:    notifier,
		bus:         bus,
		logger:      logger,
	}
}

// CreateRequest describes a new auction. The creating user becomes the OWNER
// member in the same operation.
type CreateRequest struct {
	OwnerID          id.UserID
	OwnerEmail       string
	OwnerDisplayName string
	Name             string
	JoinPolicy       models.JoinPolicy
	BidderVisibility models.BidderVisibility
	ItemEndMode      models.ItemEndMode
	MemberCanInvite  bool
	EndsAt           *time.Time
}

// CreateAuction creates the auction and its OWNER membership.
func (s *Service) CreateAuction(ctx context.Context, req CreateRequest) (*models.Auction, error) {
	now := requestcontext.Now(ctx)

	auction, err := models.NewAuction(id.NewAuctionID(), req.OwnerID, req.Name, req.JoinPolicy, req.BidderVisibility, req.ItemEndMode, req.MemberCanInvite, req.EndsAt, now)
	if err != nil {
		return nil, err
	}
	owner, err := models.NewMembership(auction.ID, req.OwnerID, req.OwnerEmail, req.OwnerDisplayName, models.RoleOwner, now)
	if err != nil {
		return nil, err
	}

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.auctions.Create(ctx, auction); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create auction")
		}
		if err := s.memberships.Add(ctx, owner); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create owner membership")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "auction created",
		"auction_id", auction.ID,
		"owner_id", auction.OwnerID,
	)
	return auction, nil
}

// GetAuction returns one auction. Any authenticated user may view an auction
// so they can decide whether to join.
func (s *Service) GetAuction(ctx context.Context, auctionID id.AuctionID) (*models.Auction, error) {
	return s.loadAuction(ctx, auctionID)
}

// UpdateRequest carries partial auction edits; nil fields are unchanged.
type UpdateRequest struct {
	AuctionID id.AuctionID
	ActorID   id.UserID

	Name             *string
	JoinPolicy       *models.JoinPolicy
	BidderVisibility *models.BidderVisibility
	ItemEndMode      *models.ItemEndMode
	MemberCanInvite  *bool
	EndsAt           *time.Time
}

// UpdateAuction edits auction policies and scheduling. An ended auction is
// immutable; an end date can only be set to a future instant.
func (s *Service) UpdateAuction(ctx context.Context, req UpdateRequest) (*models.Auction, error) {
	now := requestcontext.Now(ctx)

	member, err := s.findMembership(ctx, req.AuctionID, req.ActorID)
	if err != nil {
		return nil, err
	}
	if member == nil || !member.Role.IsStaff() {
		return nil, dErrors.New(dErrors.CodeForbidden, "auction management requires an owner or admin role")
	}

	updated, err := s.auctions.Execute(ctx, req.AuctionID, func(live *models.Auction) error {
		if live.IsEnded(now) {
			return dErrors.New(dErrors.CodeConflict, "auction has ended")
		}
		if req.Name != nil {
			name := *req.Name
			if name == "" {
				return dErrors.New(dErrors.CodeValidation, "auction name cannot be empty")
			}
			if len(name) > 128 {
				return dErrors.New(dErrors.CodeValidation, "auction name must be 128 characters or less")
			}
			live.Name = name
		}
		if req.JoinPolicy != nil {
			live.JoinPolicy = *req.JoinPolicy
		}
		if req.BidderVisibility != nil {
			live.BidderVisibility = *req.BidderVisibility
		}
		if req.ItemEndMode != nil {
			live.ItemEndMode = *req.ItemEndMode
		}
		if req.MemberCanInvite != nil {
			live.MemberCanInvite = *req.MemberCanInvite
		}
		if req.EndsAt != nil {
			if !req.EndsAt.After(now) {
				return dErrors.New(dErrors.CodeValidation, "auction end must be in the future")
			}
			items, err := s.items.ListByAuction(ctx, live.ID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list items")
			}
			for _, it := range items {
				if it.EndsAt != nil && it.EndsAt.After(*req.EndsAt) {
					return dErrors.New(dErrors.CodeConflict, "auction end cannot be earlier than an item's end date")
				}
			}
			live.EndsAt = req.EndsAt
		}
		live.UpdatedAt = now
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "auction not found")
		}
		return nil, err
	}
	return updated, nil
}

// Join adds the caller as a BIDDER member of an open auction. The owner is
// notified once per successful join.
func (s *Service) Join(ctx context.Context, auctionID id.AuctionID, userID id.UserID, email, displayName string) (*models.Membership, error) {
	now := requestcontext.Now(ctx)

	auction, err := s.loadAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if auction.JoinPolicy != models.JoinOpen {
		return nil, dErrors.New(dErrors.CodeForbidden, "this auction is invite-only")
	}
	if auction.IsEnded(now) {
		return nil, dErrors.New(dErrors.CodeConflict, "auction has ended")
	}

	member, err := models.NewMembership(auctionID, userID, email, displayName, models.RoleBidder, now)
	if err != nil {
		return nil, err
	}
	if err := s.addMember(ctx, member); err != nil {
		return nil, err
	}

	s.announceJoin(ctx, auction, member)
	return member, nil
}

// InviteRequest describes a membership granted by an existing member.
type InviteRequest struct {
	AuctionID   id.AuctionID
	ActorID     id.UserID
	UserID      id.UserID
	Email       string
	DisplayName string
	Role        models.Role
}

// Invite adds a membership with the given role. OWNER cannot be granted.
func (s *Service) Invite(ctx context.Context, req InviteRequest) (*models.Membership, error) {
	now := requestcontext.Now(ctx)

	auction, err := s.loadAuction(ctx, req.AuctionID)
	if err != nil {
		return nil, err
	}
	actor, err := s.findMembership(ctx, req.AuctionID, req.ActorID)
	if err != nil {
		return nil, err
	}
	if !authz.CanInvite(auction, actor) {
		return nil, dErrors.New(dErrors.CodeForbidden, "not allowed to invite members")
	}
	if auction.IsEnded(now) {
		return nil, dErrors.New(dErrors.CodeConflict, "auction has ended")
	}
	if req.Role == models.RoleOwner {
		return nil, dErrors.New(dErrors.CodeValidation, "the owner role cannot be granted")
	}

	member, err := models.NewMembership(req.AuctionID, req.UserID, req.Email, req.DisplayName, req.Role, now)
	if err != nil {
		return nil, err
	}
	if err := s.addMember(ctx, member); err != nil {
		return nil, err
	}

	s.announceJoin(ctx, auction, member)
	return member, nil
}

// ChangeRole reassigns a member's role. The OWNER role is never granted or
// taken this way, and actors cannot edit their own role.
func (s *Service) ChangeRole(ctx context.Context, auctionID id.AuctionID, actorID, targetID id.UserID, role models.Role) error {
	if role == models.RoleOwner {
		return dErrors.New(dErrors.CodeValidation, "the owner role cannot be granted")
	}
	actor, target, err := s.loadPair(ctx, auctionID, actorID, targetID)
	if err != nil {
		return err
	}
	if !authz.CanChangeRole(actor, target) {
		return dErrors.New(dErrors.CodeForbidden, "not allowed to change this member's role")
	}
	if err := s.memberships.UpdateRole(ctx, auctionID, targetID, role); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update role")
	}
	return nil
}

// RemoveMember removes a member from the auction. The OWNER cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, auctionID id.AuctionID, actorID, targetID id.UserID) error {
	actor, target, err := s.loadPair(ctx, auctionID, actorID, targetID)
	if err != nil {
		return err
	}
	if !authz.CanRemoveMember(actor, target) {
		return dErrors.New(dErrors.CodeForbidden, "not allowed to remove this member")
	}
	if err := s.memberships.Remove(ctx, auctionID, targetID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove member")
	}
	return nil
}

// ListMembers returns the auction's members in join order. Membership is
// required to view.
func (s *Service) ListMembers(ctx context.Context, viewerID id.UserID, auctionID id.AuctionID) ([]*models.Membership, error) {
	if _, err := s.loadAuction(ctx, auctionID); err != nil {
		return nil, err
	}
	viewer, err := s.findMembership(ctx, auctionID, viewerID)
	if err != nil {
		return nil, err
	}
	if viewer == nil {
		return nil, dErrors.New(dErrors.CodeForbidden, "auction membership required")
	}
	members, err := s.memberships.ListByAuction(ctx, auctionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list members")
	}
	return members, nil
}

// ItemWinner is one item's close outcome. WinnerID and Amount are nil for
// items that received no bids.
type ItemWinner struct {
	ItemID   id.ItemID
	ItemName string
	WinnerID *id.UserID
	Amount   *decimal.Decimal
}

// CloseResult reports a close call's outcome. AlreadyClosed distinguishes the
// idempotent replay, which recomputes winners but triggers no side effects.
type CloseResult struct {
	Auction       *models.Auction
	AlreadyClosed bool
	Winners       []ItemWinner
}

// CloseAuction ends the auction and every open item in one transaction
// boundary, then determines winners and notifies each one. Closing an
// already-ended auction returns the same winner list without re-notifying.
func (s *Service) CloseAuction(ctx context.Context, actorID id.UserID, auctionID id.AuctionID) (*CloseResult, error) {
	now := requestcontext.Now(ctx)

	auction, err := s.loadAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	actor, err := s.findMembership(ctx, auctionID, actorID)
	if err != nil {
		return nil, err
	}
	if !authz.CanCloseAuction(actor) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the auction owner can close it")
	}

	if auction.IsEnded(now) {
		winners, err := s.collectWinners(ctx, auctionID)
		if err != nil {
			return nil, err
		}
		return &CloseResult{Auction: auction, AlreadyClosed: true, Winners: winners}, nil
	}

	var closed *models.Auction
	var applied bool
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		applied = false
		closed, err = s.auctions.Execute(ctx, auctionID, func(live *models.Auction) error {
			if live.IsEnded(now) {
				// Lost the race to another closer; replay idempotently.
				return nil
			}
			live.ApplyClose(now)
			applied = true
			return nil
		})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to close auction")
		}
		if !applied {
			return nil
		}
		ended, err := s.items.EndAllOpen(ctx, auctionID, now)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to end items")
		}
		s.logger.InfoContext(ctx, "auction close cascade",
			"auction_id", auctionID,
			"items_ended", ended,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	winners, err := s.collectWinners(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	// The winner notification belongs to whichever closer actually flipped
	// the auction; a racing closer that found it already ended only reports.
	if !applied {
		return &CloseResult{Auction: closed, AlreadyClosed: true, Winners: winners}, nil
	}

	s.bus.Emit(ctx, events.AuctionClosed, events.AuctionClosedEvent{
		AuctionID: auctionID,
		ClosedAt:  now,
	})
	s.notifyWinners(ctx, closed, winners)

	return &CloseResult{Auction: closed, Winners: winners}, nil
}

func (s *Service) collectWinners(ctx context.Context, auctionID id.AuctionID) ([]ItemWinner, error) {
	items, err := s.items.ListByAuction(ctx, auctionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list items")
	}
	winners := make([]ItemWinner, 0, len(items))
	for _, it := range items {
		w := ItemWinner{ItemID: it.ID, ItemName: it.Name}
		if it.CurrentBidderID != nil && it.CurrentBid != nil {
			winnerID := *it.CurrentBidderID
			amount := *it.CurrentBid
			w.WinnerID = &winnerID
			w.Amount = &amount
		}
		winners = append(winners, w)
	}
	return winners, nil
}

func (s *Service) notifyWinners(ctx context.Context, auction *models.Auction, winners []ItemWinner) {
	auctionID := auction.ID
	for _, w := range winners {
		if w.WinnerID == nil {
			continue
		}
		member, err := s.findMembership(ctx, auctionID, *w.WinnerID)
		if err != nil || member == nil {
			continue
		}
		itemID := w.ItemID
		if _, err := s.notifier.Notify(ctx, notification.Request{
			Kind:           notification.KindAuctionWon,
			RecipientID:    *w.WinnerID,
			RecipientEmail: member.Email,
			Title:          "You won an auction item",
			Body:           fmt.Sprintf("You won %q with %s.", w.ItemName, w.Amount.String()),
			AuctionID:      &auctionID,
			ItemID:         &itemID,
			TemplateData: map[string]string{
				"item_name":    w.ItemName,
				"amount":       w.Amount.String(),
				"auction_name": auction.Name,
			},
		}); err != nil {
			s.logger.ErrorContext(ctx, "winner notification failed",
				"item_id", w.ItemID,
				"recipient", *w.WinnerID,
				"error", err,
			)
		}
	}
}

func (s *Service) addMember(ctx context.Context, member *models.Membership) error {
	if err := s.memberships.Add(ctx, member); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return dErrors.New(dErrors.CodeConflict, "user is already a member of this auction")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to add member")
	}
	return nil
}

func (s *Service) announceJoin(ctx context.Context, auction *models.Auction, member *models.Membership) {
	s.bus.Emit(ctx, events.MemberJoined, events.MemberJoinedEvent{
		AuctionID:  auction.ID,
		UserID:     member.UserID,
		MemberName: member.DisplayName,
		JoinedAt:   member.JoinedAt,
	})

	owner, err := s.findMembership(ctx, auction.ID, auction.OwnerID)
	if err != nil || owner == nil {
		return
	}
	auctionID := auction.ID
	memberName := member.DisplayName
	if memberName == "" {
		memberName = "A new member"
	}
	if _, err := s.notifier.Notify(ctx, notification.Request{
		Kind:           notification.KindMemberJoined,
		RecipientID:    auction.OwnerID,
		RecipientEmail: owner.Email,
		Title:          "New member joined",
		Body:           fmt.Sprintf("%s joined %s.", memberName, auction.Name),
		AuctionID:      &auctionID,
		TemplateData: map[string]string{
			"member_name":  memberName,
			"auction_name": auction.Name,
		},
	}); err != nil {
		s.logger.ErrorContext(ctx, "member joined notification failed",
			"auction_id", auction.ID,
			"member_id", member.UserID,
			"error", err,
		)
	}
}

func (s *Service) loadPair(ctx context.Context, auctionID id.AuctionID, actorID, targetID id.UserID) (*models.Membership, *models.Membership, error) {
	if _, err := s.loadAuction(ctx, auctionID); err != nil {
		return nil, nil, err
	}
	actor, err := s.findMembership(ctx, auctionID, actorID)
	if err != nil {
		return nil, nil, err
	}
	target, err := s.findMembership(ctx, auctionID, targetID)
	if err != nil {
		return nil, nil, err
	}
	if target == nil {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, "member not found")
	}
	return actor, target, nil
}

func (s *Service) loadAuction(ctx context.Context, auctionID id.AuctionID) (*models.Auction, error) {
	a, err := s.auctions.FindByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "auction not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load auction")
	}
	return a, nil
}

func (s *Service) findMembership(ctx context.Context, auctionID id.AuctionID, userID id.UserID) (*models.Membership, error) {
	m, err := s.memberships.Find(ctx, auctionID, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load membership")
	}
	return m, nil
}
