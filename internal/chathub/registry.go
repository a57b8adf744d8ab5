package chathub

import (
	"strings"

	"pairchat/backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const generatedCodeLength = 8

// GenerateCode returns a short random code for a fresh identity.
func GenerateCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:generatedCodeLength]
}

type registryEntry struct {
	identity models.Identity
	client   Client
}

// Registry tracks every live connection and its Identity. Connection ids are
// resolved through it on every use, so a departed connection is simply a miss.
//
// Registry, MatchQueue, SessionManager and CallRelay are not safe for
// concurrent use; ManagerService.Run owns them.
type Registry struct {
	entries map[string]*registryEntry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*registryEntry)}
}

// Register adds the client with a generated code and the default display name.
// Registering an id twice returns the existing identity.
func (r *Registry) Register(client Client) models.Identity {
	id := client.GetConnectionID()
	if e, ok := r.entries[id]; ok {
		return e.identity
	}
	e := &registryEntry{
		identity: models.Identity{
			ConnectionID: id,
			Code:         GenerateCode(),
			DisplayName:  models.DefaultDisplayName,
		},
		client: client,
	}
	r.entries[id] = e
	return e.identity
}

// SetCode overwrites the code of a connection. Last write wins; the previous
// code is not released anywhere else.
func (r *Registry) SetCode(connectionID, code string) (models.Identity, bool) {
	e, ok := r.entries[connectionID]
	if !ok {
		return models.Identity{}, false
	}
	e.identity.Code = code
	return e.identity, true
}

func (r *Registry) SetDisplayName(connectionID, name string) (models.Identity, bool) {
	e, ok := r.entries[connectionID]
	if !ok {
		return models.Identity{}, false
	}
	e.identity.DisplayName = name
	return e.identity, true
}

func (r *Registry) Lookup(connectionID string) (models.Identity, bool) {
	e, ok := r.entries[connectionID]
	if !ok {
		return models.Identity{}, false
	}
	return e.identity, true
}

// LookupByCode returns the first identity holding code. With duplicate codes
// the choice is unspecified.
func (r *Registry) LookupByCode(code string) (models.Identity, bool) {
	for _, e := range r.entries {
		if e.identity.Code == code {
			return e.identity, true
		}
	}
	return models.Identity{}, false
}

// HoldsCode reports whether connectionID is live and still identified as code.
func (r *Registry) HoldsCode(connectionID, code string) bool {
	e, ok := r.entries[connectionID]
	return ok && e.identity.Code == code
}

func (r *Registry) IsLive(connectionID string) bool {
	_, ok := r.entries[connectionID]
	return ok
}

func (r *Registry) Client(connectionID string) (Client, bool) {
	e, ok := r.entries[connectionID]
	if !ok {
		return nil, false
	}
	return e.client, true
}

// Remove forgets the connection. Unknown ids are a no-op.
func (r *Registry) Remove(connectionID string) {
	delete(r.entries, connectionID)
}

func (r *Registry) Len() int {
	return len(r.entries)
}

// Notify delivers one event to a live connection. A missing connection or a
// full send buffer drops the event and returns false.
func (r *Registry) Notify(connectionID, event string, payload any) bool {
	e, ok := r.entries[connectionID]
	if !ok {
		return false
	}
	env, err := models.NewEnvelope(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "registry").Str("event", event).Msg("encode envelope")
		return false
	}
	select {
	case e.client.GetSendChannel() <- env:
		return true
	default:
		log.Warn().Str("module", "registry").Str("conn", connectionID).Str("event", event).Msg("send buffer full, dropping event")
		return false
	}
}
