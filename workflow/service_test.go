package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/muchiri/planvote-go/models"
)

// fakeEventStore is an in-memory EventStore that mirrors the
// conditional-update semantics of the real one.
type fakeEventStore struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Event
}

func newFakeEventStore(events ...*models.Event) *fakeEventStore {
	s := &fakeEventStore{byID: make(map[primitive.ObjectID]*models.Event)}
	for _, e := range events {
		s.byID[e.ID] = e
	}
	return s
}

func (s *fakeEventStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *fakeEventStore) AddInvitee(ctx context.Context, eventID, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[eventID]
	if !ok {
		return ErrEventNotFound
	}
	if !e.IsInvited(userID) {
		e.InvitedUsers = append(e.InvitedUsers, userID)
	}
	return nil
}

func (s *fakeEventStore) AppendVote(ctx context.Context, eventID, userID primitive.ObjectID, day string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[eventID]
	if !ok || e.HasVoted(userID) {
		return false, nil
	}
	e.Votes = append(e.Votes, models.Vote{User: userID, Date: day})
	return true, nil
}

func (s *fakeEventStore) SetFinalizedDate(ctx context.Context, eventID primitive.ObjectID, fd models.FinalizedDate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[eventID]
	if !ok || e.FinalizedDate.IsSet() {
		return false, nil
	}
	e.FinalizedDate = &fd
	return true, nil
}

type fakeGroupStore struct {
	mu      sync.Mutex
	byEvent map[primitive.ObjectID]*models.Group
}

func newFakeGroupStore() *fakeGroupStore {
	return &fakeGroupStore{byEvent: make(map[primitive.ObjectID]*models.Group)}
}

func (s *fakeGroupStore) AddMember(ctx context.Context, eventID, userID primitive.ObjectID) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.byEvent[eventID]
	if !ok {
		g = &models.Group{ID: primitive.NewObjectID(), EventID: eventID}
		s.byEvent[eventID] = g
	}
	for _, m := range g.Members {
		if m == userID {
			return g.ID, nil
		}
	}
	g.Members = append(g.Members, userID)
	return g.ID, nil
}

func (s *fakeGroupStore) members(eventID primitive.ObjectID) []primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.byEvent[eventID]
	if !ok {
		return nil
	}
	return append([]primitive.ObjectID(nil), g.Members...)
}

type fakeBadgeChecker struct {
	mu          sync.Mutex
	speedyCalls []primitive.ObjectID
}

func (b *fakeBadgeChecker) CheckSpeedyVoterBadge(ctx context.Context, userID primitive.ObjectID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.speedyCalls = append(b.speedyCalls, userID)
	return nil
}

func (b *fakeBadgeChecker) CheckTopPlannerBadge(ctx context.Context, userID primitive.ObjectID) error {
	return nil
}

type notified struct {
	UserID primitive.ObjectID
	Title  string
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notified
}

func (n *fakeNotifier) Notify(ctx context.Context, userID primitive.ObjectID, title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notified{UserID: userID, Title: title})
	return nil
}

func (n *fakeNotifier) recipients() []primitive.ObjectID {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]primitive.ObjectID, 0, len(n.calls))
	for _, c := range n.calls {
		out = append(out, c.UserID)
	}
	return out
}

func newTestEvent(creator primitive.ObjectID, invited []primitive.ObjectID, days ...string) *models.Event {
	dates := make([]models.EventDate, 0, len(days))
	for _, d := range days {
		t, _ := time.Parse("2006-01-02", d)
		dates = append(dates, models.EventDate{
			ID:       primitive.NewObjectID(),
			Date:     t,
			TimeSlot: "6pm - 9pm",
		})
	}
	return &models.Event{
		ID:           primitive.NewObjectID(),
		CreatedBy:    creator,
		Name:         "Team Dinner",
		VotingTime:   "48 hrs",
		Type:         "Planned",
		Dates:        dates,
		InvitedUsers: invited,
		CreatedAt:    time.Now(),
	}
}

func newTestService(events *fakeEventStore, groups *fakeGroupStore) (*Service, *fakeBadgeChecker, *fakeNotifier) {
	badges := &fakeBadgeChecker{}
	notifier := &fakeNotifier{}
	return New(events, groups, badges, notifier), badges, notifier
}

func TestCastVoteFirstVoteSucceedsOnce(t *testing.T) {
	creator := primitive.NewObjectID()
	voter := primitive.NewObjectID()
	event := newTestEvent(creator, []primitive.ObjectID{voter}, "2025-06-01", "2025-06-02")
	events := newFakeEventStore(event)
	groups := newFakeGroupStore()
	svc, badges, _ := newTestService(events, groups)

	result, err := svc.CastVote(context.Background(), event.ID, "2025-06-01", voter)
	require.NoError(t, err)
	assert.Equal(t, 1, result.VoteCount)
	assert.False(t, result.GroupID.IsZero())

	// Second vote fails regardless of the date chosen.
	_, err = svc.CastVote(context.Background(), event.ID, "2025-06-02", voter)
	assert.ErrorIs(t, err, ErrAlreadyVoted)

	svc.Wait()
	badges.mu.Lock()
	defer badges.mu.Unlock()
	assert.Equal(t, []primitive.ObjectID{voter}, badges.speedyCalls)
}

func TestCastVoteDayGranularMatching(t *testing.T) {
	creator := primitive.NewObjectID()
	voter := primitive.NewObjectID()
	event := newTestEvent(creator, []primitive.ObjectID{voter}, "2025-06-01")
	svc, _, _ := newTestService(newFakeEventStore(event), newFakeGroupStore())

	// A timestamp later in the same UTC day still matches the candidate.
	result, err := svc.CastVote(context.Background(), event.ID, "2025-06-01T18:30:00Z", voter)
	require.NoError(t, err)
	assert.Equal(t, 1, result.VoteCount)
	svc.Wait()
}

func TestCastVoteCreatorForbidden(t *testing.T) {
	creator := primitive.NewObjectID()
	// Even if the creator somehow appears in the invited set.
	event := newTestEvent(creator, []primitive.ObjectID{creator}, "2025-06-01")
	svc, _, _ := newTestService(newFakeEventStore(event), newFakeGroupStore())

	_, err := svc.CastVote(context.Background(), event.ID, "2025-06-01", creator)
	assert.ErrorIs(t, err, ErrCreatorCannotVote)
}

func TestCastVoteUninvitedForbidden(t *testing.T) {
	creator := primitive.NewObjectID()
	stranger := primitive.NewObjectID()
	event := newTestEvent(creator, nil, "2025-06-01")
	svc, _, _ := newTestService(newFakeEventStore(event), newFakeGroupStore())

	_, err := svc.CastVote(context.Background(), event.ID, "2025-06-01", stranger)
	assert.ErrorIs(t, err, ErrNotInvited)
}

func TestCastVotePreconditionOrder(t *testing.T) {
	creator := primitive.NewObjectID()
	voter := primitive.NewObjectID()
	event := newTestEvent(creator, []primitive.ObjectID{voter}, "2025-06-01")
	svc, _, _ := newTestService(newFakeEventStore(event), newFakeGroupStore())

	// Unknown event wins over everything else.
	_, err := svc.CastVote(context.Background(), primitive.NewObjectID(), "", voter)
	assert.ErrorIs(t, err, ErrEventNotFound)

	// Invitation is checked before the missing date.
	_, err = svc.CastVote(context.Background(), event.ID, "", primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotInvited)

	// Missing date beats invalid date.
	_, err = svc.CastVote(context.Background(), event.ID, "", voter)
	assert.ErrorIs(t, err, ErrMissingDate)

	_, err = svc.CastVote(context.Background(), event.ID, "2030-01-01", voter)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestGroupMembershipEqualsDistinctVoters(t *testing.T) {
	creator := primitive.NewObjectID()
	voters := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()}
	event := newTestEvent(creator, voters, "2025-06-01", "2025-06-02")
	events := newFakeEventStore(event)
	groups := newFakeGroupStore()
	svc, _, _ := newTestService(events, groups)

	for i, v := range voters {
		day := "2025-06-01"
		if i == 2 {
			day = "2025-06-02"
		}
		_, err := svc.CastVote(context.Background(), event.ID, day, v)
		require.NoError(t, err)
	}
	svc.Wait()

	assert.ElementsMatch(t, voters, groups.members(event.ID))

	// A duplicate attempt never duplicates a member.
	_, err := svc.CastVote(context.Background(), event.ID, "2025-06-01", voters[0])
	assert.ErrorIs(t, err, ErrAlreadyVoted)
	assert.Len(t, groups.members(event.ID), len(voters))
}

func TestFinalizeDateWriteOnce(t *testing.T) {
	creator := primitive.NewObjectID()
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	event := newTestEvent(creator, []primitive.ObjectID{a, b}, "2025-06-01", "2025-06-02")
	events := newFakeEventStore(event)
	svc, _, notifier := newTestService(events, newFakeGroupStore())

	_, err := svc.CastVote(context.Background(), event.ID, "2025-06-01", a)
	require.NoError(t, err)
	_, err = svc.CastVote(context.Background(), event.ID, "2025-06-01", b)
	require.NoError(t, err)

	fd, err := svc.FinalizeDate(context.Background(), event.ID, "2025-06-01", creator)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", fd.Date)
	assert.Equal(t, "6pm - 9pm", fd.TimeSlot)

	svc.Wait()
	assert.ElementsMatch(t, []primitive.ObjectID{a, b}, notifier.recipients())

	// All later attempts fail, regardless of caller or proposed date.
	_, err = svc.FinalizeDate(context.Background(), event.ID, "2025-06-02", creator)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
	_, err = svc.FinalizeDate(context.Background(), event.ID, "2025-06-01", a)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestFinalizeDateCreatorOnly(t *testing.T) {
	creator := primitive.NewObjectID()
	voter := primitive.NewObjectID()
	event := newTestEvent(creator, []primitive.ObjectID{voter}, "2025-06-01")
	svc, _, _ := newTestService(newFakeEventStore(event), newFakeGroupStore())

	_, err := svc.FinalizeDate(context.Background(), event.ID, "2025-06-01", voter)
	assert.ErrorIs(t, err, ErrNotCreator)
}

// The already-finalized guard runs before the ownership check, so a
// non-owner probing a locked event hears "already finalized" rather
// than "forbidden". This mirrors the historical API ordering; change
// both this test and the service together if that ever gets tightened.
func TestFinalizeAlreadyFinalizedCheckedBeforeOwnership(t *testing.T) {
	creator := primitive.NewObjectID()
	voter := primitive.NewObjectID()
	event := newTestEvent(creator, []primitive.ObjectID{voter}, "2025-06-01")
	events := newFakeEventStore(event)
	svc, _, _ := newTestService(events, newFakeGroupStore())

	_, err := svc.FinalizeDate(context.Background(), event.ID, "2025-06-01", creator)
	require.NoError(t, err)

	_, err = svc.FinalizeDate(context.Background(), event.ID, "2025-06-01", voter)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
	svc.Wait()
}

func TestFinalizeNotifiesOnlyMatchingVoters(t *testing.T) {
	creator := primitive.NewObjectID()
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	event := newTestEvent(creator, []primitive.ObjectID{a, b}, "2025-06-01", "2025-06-02")
	events := newFakeEventStore(event)
	svc, _, notifier := newTestService(events, newFakeGroupStore())

	_, err := svc.CastVote(context.Background(), event.ID, "2025-06-01", a)
	require.NoError(t, err)
	_, err = svc.CastVote(context.Background(), event.ID, "2025-06-02", b)
	require.NoError(t, err)

	_, err = svc.FinalizeDate(context.Background(), event.ID, "2025-06-01", creator)
	require.NoError(t, err)
	svc.Wait()

	assert.Equal(t, []primitive.ObjectID{a}, notifier.recipients())
}

func TestAcceptInviteIdempotent(t *testing.T) {
	creator := primitive.NewObjectID()
	joiner := primitive.NewObjectID()
	event := newTestEvent(creator, nil, "2025-06-01")
	events := newFakeEventStore(event)
	svc, _, _ := newTestService(events, newFakeGroupStore())

	require.NoError(t, svc.AcceptInvite(context.Background(), event.ID, joiner))
	require.NoError(t, svc.AcceptInvite(context.Background(), event.ID, joiner))

	stored, err := events.GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{joiner}, stored.InvitedUsers)

	assert.ErrorIs(t, svc.AcceptInvite(context.Background(), primitive.NewObjectID(), joiner), ErrEventNotFound)
	assert.ErrorIs(t, svc.AcceptInvite(context.Background(), primitive.NilObjectID, joiner), ErrMissingEventID)
}

func TestVotersByDateCreatorOnly(t *testing.T) {
	creator := primitive.NewObjectID()
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	event := newTestEvent(creator, []primitive.ObjectID{a, b}, "2025-06-01", "2025-06-02")
	events := newFakeEventStore(event)
	svc, _, _ := newTestService(events, newFakeGroupStore())

	_, err := svc.CastVote(context.Background(), event.ID, "2025-06-01", a)
	require.NoError(t, err)
	_, err = svc.CastVote(context.Background(), event.ID, "2025-06-02", b)
	require.NoError(t, err)
	svc.Wait()

	votes, day, err := svc.VotersByDate(context.Background(), event.ID, "2025-06-01", creator)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", day)
	require.Len(t, votes, 1)
	assert.Equal(t, a, votes[0].User)

	_, _, err = svc.VotersByDate(context.Background(), event.ID, "2025-06-01", a)
	assert.ErrorIs(t, err, ErrNotCreator)
}

func TestEndToEndScenario(t *testing.T) {
	// Event with dates [2025-06-01, 2025-06-02], invited A and B,
	// created by C.
	c := primitive.NewObjectID()
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	event := newTestEvent(c, []primitive.ObjectID{a, b}, "2025-06-01", "2025-06-02")
	events := newFakeEventStore(event)
	groups := newFakeGroupStore()
	svc, _, notifier := newTestService(events, groups)

	resA, err := svc.CastVote(context.Background(), event.ID, "2025-06-01", a)
	require.NoError(t, err)
	assert.Equal(t, 1, resA.VoteCount)
	assert.Equal(t, []primitive.ObjectID{a}, groups.members(event.ID))

	resB, err := svc.CastVote(context.Background(), event.ID, "2025-06-01", b)
	require.NoError(t, err)
	assert.Equal(t, 2, resB.VoteCount)
	assert.Equal(t, resA.GroupID, resB.GroupID)
	assert.ElementsMatch(t, []primitive.ObjectID{a, b}, groups.members(event.ID))

	fd, err := svc.FinalizeDate(context.Background(), event.ID, "2025-06-01", c)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", fd.Date)
	assert.Equal(t, "6pm - 9pm", fd.TimeSlot)

	svc.Wait()
	assert.ElementsMatch(t, []primitive.ObjectID{a, b}, notifier.recipients())

	_, err = svc.FinalizeDate(context.Background(), event.ID, "2025-06-02", c)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}
