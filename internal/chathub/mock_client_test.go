package chathub_test

import (
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"pairchat/backend/internal/chathub"
	"pairchat/backend/internal/models"

	"github.com/stretchr/testify/require"
)

type MockClient struct {
	connectionID string
	RecvChannel  chan models.Envelope
	closed       atomic.Bool
}

func newMockClient(connectionID string) *MockClient {
	return &MockClient{
		connectionID: connectionID,
		RecvChannel:  make(chan models.Envelope, 64),
	}
}

func (c *MockClient) GetConnectionID() string {
	return c.connectionID
}

func (c *MockClient) GetSendChannel() chan<- models.Envelope {
	return c.RecvChannel
}

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.closed.Store(true)
}

// drain discards everything delivered so far.
func (c *MockClient) drain() {
	for {
		select {
		case <-c.RecvChannel:
		default:
			return
		}
	}
}

// count returns how many pending envelopes carry event, consuming all of them.
func (c *MockClient) count(event string) int {
	n := 0
	for {
		select {
		case env := <-c.RecvChannel:
			if env.Event == event {
				n++
			}
		default:
			return n
		}
	}
}

// expectEvent waits for the next envelope and checks its event name.
func expectEvent(t *testing.T, c *MockClient, event string) models.Envelope {
	t.Helper()
	select {
	case env := <-c.RecvChannel:
		require.Equal(t, event, env.Event, "unexpected event for %s", c.connectionID)
		return env
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %q on %s", event, c.connectionID)
	}
	return models.Envelope{}
}

// expectNothing asserts that no envelope is pending.
func expectNothing(t *testing.T, c *MockClient) {
	t.Helper()
	select {
	case env := <-c.RecvChannel:
		t.Fatalf("unexpected %q on %s", env.Event, c.connectionID)
	default:
	}
}

func decode[T any](t *testing.T, env models.Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

// core bundles the synchronous components for direct tests.
type core struct {
	registry *chathub.Registry
	queue    *chathub.MatchQueue
	sessions *chathub.SessionManager
	matcher  *chathub.MatcherService
	chat     *chathub.ChatRelay
	calls    *chathub.CallRelay
}

func newCore() *core {
	registry := chathub.NewRegistry()
	queue := chathub.NewMatchQueue(registry)
	sessions := chathub.NewSessionManager(registry, queue)
	return &core{
		registry: registry,
		queue:    queue,
		sessions: sessions,
		matcher:  chathub.NewMatcherService(registry, queue, sessions),
		chat:     chathub.NewChatRelay(registry, sessions),
		calls:    chathub.NewCallRelay(registry),
	}
}

// connect registers a mock client with a fixed code and name.
func (c *core) connect(id, code, name string) *MockClient {
	client := newMockClient(id)
	c.registry.Register(client)
	c.registry.SetCode(id, code)
	c.registry.SetDisplayName(id, name)
	return client
}
