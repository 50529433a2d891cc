package core

import "sort"

const (
	// DefaultCode seeds the shared buffer of a freshly created room.
	DefaultCode = "//start code here"
	// DefaultLanguage is the language tag a room starts with.
	DefaultLanguage = "javascript"
)

// Room is a named collaborative session: a shared code buffer, a language
// tag, and the set of participants editing it.
//
// Membership is keyed by display name, not by connection. Two connections
// may claim the same name; they collapse to one presence entry, and the
// second connection leaving removes the name even if the first is still
// connected. Clients rely on name-keyed presence, so this is kept as is.
type Room struct {
	ID         string
	Code       string
	Language   string
	LastOutput string

	users   map[string]struct{}
	clients map[*Client]struct{}
}

// NewRoom constructs an empty room with the default buffer contents.
func NewRoom(id string) *Room {
	return &Room{
		ID:       id,
		Code:     DefaultCode,
		Language: DefaultLanguage,
		users:    make(map[string]struct{}),
		clients:  make(map[*Client]struct{}),
	}
}

// AddClient attaches a connection to the room for event delivery.
func (r *Room) AddClient(c *Client) {
	r.clients[c] = struct{}{}
}

// RemoveClient detaches a connection from the room.
func (r *Room) RemoveClient(c *Client) {
	delete(r.clients, c)
}

// AddUser inserts a display name into the member set. Re-adding an
// existing name is a no-op on the set.
func (r *Room) AddUser(name string) {
	r.users[name] = struct{}{}
}

// RemoveUser deletes a display name from the member set.
func (r *Room) RemoveUser(name string) {
	delete(r.users, name)
}

// Users returns the member list sorted for deterministic broadcasts.
func (r *Room) Users() []string {
	names := make([]string, 0, len(r.users))
	for name := range r.users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Broadcast delivers an event to every connection in the room, skipping
// except when non-nil.
func (r *Room) Broadcast(event *Event, except *Client) {
	for client := range r.clients {
		if client == except {
			continue
		}
		select {
		case client.Events <- event:
		default:
			// Drop if slow consumer.
		}
	}
}
