// Package localstore is a small durable key-value store standing in for the
// device's local storage. The session layer keeps its recovery identifiers
// here: the bearer token, the selected child id, the guest child id and
// guest-mode flag, plus the serialized guest profile itself.
package localstore

// Keys used by the session layer. These are the entire durable client-side
// footprint of the sync core.
const (
	KeyAuthToken       = "auth_token"
	KeySelectedChildID = "selected_child_id"
	KeyGuestChildID    = "guest_child_id"
	KeyGuestMode       = "guest_mode"
	KeyGuestProfile    = "guest_profile"
)

// Store is the device key-value store contract. Implementations must be safe
// for concurrent use.
type Store interface {
	// Get returns the value for key and whether it was present
	Get(key string) (string, bool)

	// Set stores a value under key
	Set(key, value string) error

	// Delete removes key; deleting a missing key is not an error
	Delete(key string) error

	// Clear removes every key
	Clear() error
}
