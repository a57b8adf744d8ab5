package models

// DefaultDisplayName is shown to a partner until the participant picks a name.
const DefaultDisplayName = "Stranger"

// Identity is a participant's addressable, named presence for the lifetime of
// one network connection.
type Identity struct {
	// ConnectionID is the opaque addressing token of the connection. It is
	// stable until the connection closes and owned by the registry.
	ConnectionID string `json:"-"`
	// Code is the participant-chosen or generated code. Not guaranteed unique.
	Code string `json:"code"`
	// DisplayName is what the partner sees in partner-found and call-offer.
	DisplayName string `json:"name"`
}
