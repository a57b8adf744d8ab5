package chathub_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"pairchat/backend/internal/chathub"
	"pairchat/backend/internal/friends"
	"pairchat/backend/internal/models"
	"pairchat/backend/internal/storage"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore accepts reads but refuses every write.
type failingStore struct {
	*storage.MemoryStore
}

func (s failingStore) AddFriendPair(context.Context, string, string) error {
	return errors.New("database unavailable")
}

func startHub(t *testing.T, store storage.Storage) *chathub.ManagerService {
	t.Helper()
	hub := chathub.NewManagerService(friends.NewLedger(store), nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func send(t *testing.T, hub *chathub.ManagerService, id, event string, payload any) {
	t.Helper()
	env, err := models.NewEnvelope(event, payload)
	require.NoError(t, err)
	require.True(t, hub.Submit(models.Inbound{ConnectionID: id, Envelope: env}))
}

// join registers a client under code and waits until its friend list arrived.
func join(t *testing.T, hub *chathub.ManagerService, id, code string) *MockClient {
	t.Helper()
	client := newMockClient(id)
	require.True(t, hub.Register(chathub.Registration{Client: client, Code: code}))
	assert.Equal(t, code, decode[string](t, expectEvent(t, client, models.EventYourCode)))
	expectEvent(t, client, models.EventFriendsList)
	return client
}

// pair matches a and b through a code search for bCode.
func pair(t *testing.T, hub *chathub.ManagerService, a, b *MockClient, bCode string) {
	t.Helper()
	send(t, hub, a.connectionID, models.EventFindPartner, models.FindPartnerPayload{SearchCode: bCode})
	expectEvent(t, a, models.EventPartnerFound)
	expectEvent(t, b, models.EventPartnerFound)
}

func TestManager_RegisterAssignsCode(t *testing.T) {
	hub := startHub(t, storage.NewMemoryStore())
	client := newMockClient("conn-1")

	require.True(t, hub.Register(chathub.Registration{Client: client}))

	code := decode[string](t, expectEvent(t, client, models.EventYourCode))
	assert.Regexp(t, `^[0-9a-f]{8}$`, code)
}

func TestManager_Identify(t *testing.T) {
	hub := startHub(t, storage.NewMemoryStore())
	client := newMockClient("conn-1")
	require.True(t, hub.Register(chathub.Registration{Client: client}))
	expectEvent(t, client, models.EventYourCode)

	send(t, hub, "conn-1", models.EventIdentify, models.IdentifyPayload{Code: " alpha ", Name: "Ann"})

	assert.Equal(t, "alpha", decode[string](t, expectEvent(t, client, models.EventYourCode)))
	assert.Empty(t, decode[[]string](t, expectEvent(t, client, models.EventFriendsList)))
}

func TestManager_SetCodeBareString(t *testing.T) {
	hub := startHub(t, storage.NewMemoryStore())
	client := newMockClient("conn-1")
	require.True(t, hub.Register(chathub.Registration{Client: client}))
	expectEvent(t, client, models.EventYourCode)

	send(t, hub, "conn-1", models.EventSetCode, "legacy")

	assert.Equal(t, "legacy", decode[string](t, expectEvent(t, client, models.EventYourCode)))
	expectEvent(t, client, models.EventFriendsList)
}

func TestManager_MatchAndChat(t *testing.T) {
	hub := startHub(t, storage.NewMemoryStore())
	x := join(t, hub, "x", "alpha")
	y := join(t, hub, "y", "beta")
	send(t, hub, "y", models.EventIdentify, models.IdentifyPayload{Name: "Yuri"})
	expectEvent(t, y, models.EventYourCode)
	expectEvent(t, y, models.EventFriendsList)

	send(t, hub, "x", models.EventFindPartner, nil)
	expectEvent(t, x, models.EventStatus)
	send(t, hub, "y", models.EventFindPartner, models.FindPartnerPayload{})

	toX := decode[models.PartnerFoundPayload](t, expectEvent(t, x, models.EventPartnerFound))
	assert.Equal(t, models.PartnerFoundPayload{PartnerID: "y", Name: "Yuri", Code: "beta"}, toX)
	toY := decode[models.PartnerFoundPayload](t, expectEvent(t, y, models.EventPartnerFound))
	assert.Equal(t, models.DefaultDisplayName, toY.Name)

	send(t, hub, "y", models.EventSendMessage, models.SendMessagePayload{Text: "hi"})
	msg := decode[models.ReceiveMessagePayload](t, expectEvent(t, x, models.EventReceiveMessage))
	assert.Equal(t, models.ReceiveMessagePayload{From: "Yuri", Text: "hi"}, msg)

	send(t, hub, "x", models.EventTyping, models.TypingPayload{IsTyping: true})
	assert.True(t, decode[models.TypingStatusPayload](t, expectEvent(t, y, models.EventTyping)).Status)
}

func TestManager_DisconnectNotifiesPartnerOnce(t *testing.T) {
	hub := startHub(t, storage.NewMemoryStore())
	x := join(t, hub, "x", "alpha")
	y := join(t, hub, "y", "beta")
	z := join(t, hub, "z", "zulu")
	pair(t, hub, x, y, "beta")

	hub.Unregister(x)
	hub.Unregister(x)
	send(t, hub, "z", models.EventFindPartner, models.FindPartnerPayload{SearchCode: "alpha"})

	assert.Equal(t, "alpha", decode[string](t, expectEvent(t, z, models.EventFriendOffline)))
	expectEvent(t, y, models.EventPartnerDisconnected)
	expectNothing(t, y)
	assert.True(t, x.closed.Load())

	// y is free again and can be matched directly.
	pair(t, hub, z, y, "beta")
}

func TestManager_SkipAndLeave(t *testing.T) {
	hub := startHub(t, storage.NewMemoryStore())
	x := join(t, hub, "x", "alpha")
	y := join(t, hub, "y", "beta")
	pair(t, hub, x, y, "beta")

	send(t, hub, "x", models.EventSkipPartner, nil)
	expectEvent(t, y, models.EventPartnerDisconnected)
	assert.Equal(t, "Searching for a new partner...", decode[string](t, expectEvent(t, x, models.EventStatus)))

	// x is queued, so y's random search finds it.
	send(t, hub, "y", models.EventFindPartner, nil)
	expectEvent(t, y, models.EventPartnerFound)
	expectEvent(t, x, models.EventPartnerFound)

	send(t, hub, "y", models.EventLeaveChat, nil)
	expectEvent(t, x, models.EventPartnerDisconnected)
	send(t, hub, "x", models.EventSendMessage, models.SendMessagePayload{Text: "hello?"})
	send(t, hub, "x", models.EventGetFriends, nil)
	expectEvent(t, x, models.EventFriendsList)
	expectNothing(t, y)
}

func TestManager_AddFriend(t *testing.T) {
	store := storage.NewMemoryStore()
	hub := startHub(t, store)
	x := join(t, hub, "x", "alpha")
	y := join(t, hub, "y", "beta")
	pair(t, hub, x, y, "beta")

	send(t, hub, "x", models.EventAddFriend, nil)

	assert.Equal(t, "beta", decode[string](t, expectEvent(t, x, models.EventFriendAdded)))
	assert.Equal(t, "alpha", decode[string](t, expectEvent(t, y, models.EventFriendAdded)))

	send(t, hub, "y", models.EventGetFriends, nil)
	assert.Equal(t, []string{"alpha"}, decode[[]string](t, expectEvent(t, y, models.EventFriendsList)))

	stored, err := store.GetFriends(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, []string{"beta"}, stored)
}

func TestManager_AddFriendFailure(t *testing.T) {
	hub := startHub(t, failingStore{storage.NewMemoryStore()})
	x := join(t, hub, "x", "alpha")
	y := join(t, hub, "y", "beta")
	pair(t, hub, x, y, "beta")

	send(t, hub, "x", models.EventAddFriend, nil)

	failed := decode[models.FriendAddFailedPayload](t, expectEvent(t, x, models.EventFriendAddFailed))
	assert.Equal(t, "beta", failed.Code)
	assert.NotEmpty(t, failed.Reason)

	send(t, hub, "y", models.EventGetFriends, nil)
	assert.Empty(t, decode[[]string](t, expectEvent(t, y, models.EventFriendsList)))
}

func TestManager_AddFriendWithoutPartnerIgnored(t *testing.T) {
	hub := startHub(t, storage.NewMemoryStore())
	x := join(t, hub, "x", "alpha")

	send(t, hub, "x", models.EventAddFriend, nil)
	send(t, hub, "x", models.EventGetFriends, nil)

	assert.Empty(t, decode[[]string](t, expectEvent(t, x, models.EventFriendsList)))
	expectNothing(t, x)
}

func TestManager_CallSignalling(t *testing.T) {
	hub := startHub(t, storage.NewMemoryStore())
	x := join(t, hub, "x", "alpha")
	y := join(t, hub, "y", "beta")
	z := join(t, hub, "z", "zulu")

	send(t, hub, "x", models.EventCallOffer, models.CallOfferPayload{To: "y", Offer: testOffer, Video: true})
	offer := decode[models.IncomingCallPayload](t, expectEvent(t, y, models.EventCallOffer))
	assert.Equal(t, "x", offer.From)
	assert.True(t, offer.Video)

	send(t, hub, "z", models.EventCallOffer, models.CallOfferPayload{To: "y", Offer: testOffer})
	busy := decode[models.CallTerminationPayload](t, expectEvent(t, z, models.EventCallRejected))
	assert.Equal(t, models.CallRejectBusy, busy.Reason)

	// An answer is not accepted as an offer.
	send(t, hub, "z", models.EventCallOffer, models.CallOfferPayload{To: "x", Offer: testAnswer})

	send(t, hub, "y", models.EventCallAnswer, models.CallAnswerPayload{To: "x", Answer: testAnswer})
	expectEvent(t, x, models.EventCallAnswer)

	send(t, hub, "x", models.EventICECandidate, models.ICECandidatePayload{To: "y", Candidate: webrtc.ICECandidateInit{Candidate: "candidate:0"}})
	expectEvent(t, y, models.EventICECandidate)

	send(t, hub, "y", models.EventCallEnded, models.CallTargetPayload{To: "x"})
	expectEvent(t, x, models.EventCallEnded)

	send(t, hub, "x", models.EventICECandidate, models.ICECandidatePayload{To: "y", Candidate: webrtc.ICECandidateInit{Candidate: "late"}})
	send(t, hub, "z", models.EventGetFriends, nil)
	expectEvent(t, z, models.EventFriendsList)
	expectNothing(t, x)
	expectNothing(t, y)
}

func TestManager_UnknownConnectionIgnored(t *testing.T) {
	hub := startHub(t, storage.NewMemoryStore())
	x := join(t, hub, "x", "alpha")

	send(t, hub, "ghost", models.EventSendMessage, models.SendMessagePayload{Text: "boo"})
	send(t, hub, "x", "no-such-event", nil)
	send(t, hub, "x", models.EventGetFriends, nil)

	expectEvent(t, x, models.EventFriendsList)
	expectNothing(t, x)
}

func TestManager_StopsWithContext(t *testing.T) {
	hub := chathub.NewManagerService(friends.NewLedger(storage.NewMemoryStore()), nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	assert.False(t, hub.Submit(models.Inbound{ConnectionID: "x"}))
	assert.False(t, hub.Register(chathub.Registration{Client: newMockClient("x")}))
}
