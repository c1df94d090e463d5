package workflow

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/muchiri/planvote-go/models"
)

// EventStore is the slice of event persistence the workflow mutates.
// AppendVote and SetFinalizedDate are conditional single-document
// updates: they return false when the document no longer satisfies the
// precondition, which is how racing writers lose.
type EventStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
	AddInvitee(ctx context.Context, eventID, userID primitive.ObjectID) error
	AppendVote(ctx context.Context, eventID, userID primitive.ObjectID, day string) (bool, error)
	SetFinalizedDate(ctx context.Context, eventID primitive.ObjectID, fd models.FinalizedDate) (bool, error)
}

// GroupStore upserts the derived voter group for an event. AddMember
// must be idempotent and must never create a second group for the same
// event.
type GroupStore interface {
	AddMember(ctx context.Context, eventID, userID primitive.ObjectID) (primitive.ObjectID, error)
}

// BadgeChecker evaluates badge eligibility. Calls are idempotent and
// side-effect only.
type BadgeChecker interface {
	CheckSpeedyVoterBadge(ctx context.Context, userID primitive.ObjectID) error
	CheckTopPlannerBadge(ctx context.Context, userID primitive.ObjectID) error
}

// Notifier delivers a notification to a single user.
type Notifier interface {
	Notify(ctx context.Context, userID primitive.ObjectID, title, message string) error
}

// Service orchestrates invite acceptance, vote casting, and one-time
// date finalization. Badge checks and notification dispatch run as
// fire-and-forget tasks whose failures never reach the caller.
type Service struct {
	events   EventStore
	groups   GroupStore
	badges   BadgeChecker
	notifier Notifier

	// sideEffectTimeout bounds each background badge check and each
	// per-recipient notification call.
	sideEffectTimeout time.Duration

	wg sync.WaitGroup
}

func New(events EventStore, groups GroupStore, badges BadgeChecker, notifier Notifier) *Service {
	return &Service{
		events:            events,
		groups:            groups,
		badges:            badges,
		notifier:          notifier,
		sideEffectTimeout: 10 * time.Second,
	}
}

// AcceptInvite idempotently adds userID to the event's invited set.
func (s *Service) AcceptInvite(ctx context.Context, eventID, userID primitive.ObjectID) error {
	if eventID.IsZero() {
		return ErrMissingEventID
	}
	return s.events.AddInvitee(ctx, eventID, userID)
}

// VoteResult is returned from a successful CastVote.
type VoteResult struct {
	VoteCount int
	GroupID   primitive.ObjectID
}

// CastVote validates the preconditions in order (first failure wins)
// and appends the vote with a conditional update, so two racing votes
// by the same user cannot both succeed. On success the voter is added
// to the event's group and a speedy-voter badge check is kicked off in
// the background.
func (s *Service) CastVote(ctx context.Context, eventID primitive.ObjectID, selectedDate string, userID primitive.ObjectID) (VoteResult, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return VoteResult{}, err
	}

	if event.CreatedBy == userID {
		return VoteResult{}, ErrCreatorCannotVote
	}
	if !event.IsInvited(userID) {
		return VoteResult{}, ErrNotInvited
	}
	if selectedDate == "" {
		return VoteResult{}, ErrMissingDate
	}

	day, err := ParseDay(selectedDate)
	if err != nil {
		return VoteResult{}, ErrInvalidDate
	}
	if _, ok := event.DateOption(day); !ok {
		return VoteResult{}, ErrInvalidDate
	}
	if event.HasVoted(userID) {
		return VoteResult{}, ErrAlreadyVoted
	}

	ok, err := s.events.AppendVote(ctx, eventID, userID, day)
	if err != nil {
		return VoteResult{}, err
	}
	if !ok {
		// Lost a race with another vote by the same user.
		return VoteResult{}, ErrAlreadyVoted
	}

	groupID, err := s.groups.AddMember(ctx, eventID, userID)
	if err != nil {
		return VoteResult{}, err
	}

	s.inBackground(func(ctx context.Context) {
		if err := s.badges.CheckSpeedyVoterBadge(ctx, userID); err != nil {
			log.Printf("speedy voter badge check failed for %s: %v", userID.Hex(), err)
		}
	})

	return VoteResult{VoteCount: len(event.Votes) + 1, GroupID: groupID}, nil
}

// FinalizeDate performs the one-time, irreversible date selection.
//
// The already-finalized guard runs before the creator check. That
// matches the long-standing API behavior even though it tells a
// non-owner whether the event is locked.
func (s *Service) FinalizeDate(ctx context.Context, eventID primitive.ObjectID, selectedDate string, userID primitive.ObjectID) (models.FinalizedDate, error) {
	if selectedDate == "" {
		return models.FinalizedDate{}, ErrMissingDate
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return models.FinalizedDate{}, err
	}

	if event.FinalizedDate.IsSet() {
		return models.FinalizedDate{}, ErrAlreadyFinalized
	}
	if event.CreatedBy != userID {
		return models.FinalizedDate{}, ErrNotCreator
	}

	day, err := ParseDay(selectedDate)
	if err != nil {
		return models.FinalizedDate{}, ErrInvalidDate
	}
	option, ok := event.DateOption(day)
	if !ok {
		return models.FinalizedDate{}, ErrInvalidDate
	}

	fd := models.FinalizedDate{Date: day, TimeSlot: option.TimeSlot}

	applied, err := s.events.SetFinalizedDate(ctx, eventID, fd)
	if err != nil {
		return models.FinalizedDate{}, err
	}
	if !applied {
		return models.FinalizedDate{}, ErrAlreadyFinalized
	}

	title := "Event is Confirmed!"
	message := fmt.Sprintf("The event %s has been finalized for %s. See you there!", event.Name, day)

	// Fan out to everyone who voted for the winning day. Each recipient
	// gets an independent call; one failure never blocks the rest.
	for _, vote := range VotersFor(event.Votes, day) {
		voterID := vote.User
		s.inBackground(func(ctx context.Context) {
			if err := s.notifier.Notify(ctx, voterID, title, message); err != nil {
				log.Printf("finalize notification to %s failed: %v", voterID.Hex(), err)
			}
		})
	}

	return fd, nil
}

// VotersByDate returns the votes cast for one candidate day. Creator
// only: the full breakdown is not exposed to invitees.
func (s *Service) VotersByDate(ctx context.Context, eventID primitive.ObjectID, selectedDate string, userID primitive.ObjectID) ([]models.Vote, string, error) {
	if selectedDate == "" {
		return nil, "", ErrMissingDate
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, "", err
	}
	if event.CreatedBy != userID {
		return nil, "", ErrNotCreator
	}

	day, err := ParseDay(selectedDate)
	if err != nil {
		return nil, "", ErrInvalidDate
	}

	return VotersFor(event.Votes, day), day, nil
}

// inBackground runs fn detached from the request context, bounded by
// the side-effect timeout.
func (s *Service) inBackground(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.sideEffectTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// Wait blocks until in-flight background side effects finish. Called
// during shutdown so pending notifications are not dropped.
func (s *Service) Wait() {
	s.wg.Wait()
}
