package domain

import "github.com/bytedance/sonic"

// EventType tags the wire envelope sent to board subscribers.
type EventType string

const (
	EventInitialData      EventType = "INITIAL_DATA"
	EventCardCreated      EventType = "CARD_CREATED"
	EventCardUpdated      EventType = "CARD_UPDATED"
	EventCardDeleted      EventType = "CARD_DELETED"
	EventCardsBulkDeleted EventType = "CARDS_BULK_DELETED"
)

// Event is the closed set of board mutation events. Each variant carries its
// own payload; the unexported method keeps the set closed to this package.
type Event interface {
	EventType() EventType
	payload() any
}

// InitialData seeds a new subscriber with the full current card list.
type InitialData struct {
	Cards []Card
}

// CardCreated announces a freshly created card.
type CardCreated struct {
	Card Card
}

// CardUpdated carries the full updated card, not a diff. A move that
// renumbers a bucket emits one CardUpdated per touched card.
type CardUpdated struct {
	Card Card
}

// CardDeleted announces a hard delete.
type CardDeleted struct {
	ID string
}

// CardsBulkDeleted collapses N deletes from one bulk request into a single
// event.
type CardsBulkDeleted struct {
	IDs []string
}

func (InitialData) EventType() EventType      { return EventInitialData }
func (CardCreated) EventType() EventType      { return EventCardCreated }
func (CardUpdated) EventType() EventType      { return EventCardUpdated }
func (CardDeleted) EventType() EventType      { return EventCardDeleted }
func (CardsBulkDeleted) EventType() EventType { return EventCardsBulkDeleted }

func (e InitialData) payload() any { return e.Cards }
func (e CardCreated) payload() any { return e.Card }
func (e CardUpdated) payload() any { return e.Card }
func (e CardDeleted) payload() any {
	return struct {
		ID string `json:"id"`
	}{ID: e.ID}
}
func (e CardsBulkDeleted) payload() any {
	return struct {
		IDs []string `json:"ids"`
	}{IDs: e.IDs}
}

type eventEnvelope struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// EncodeEvent marshals an event into its {type, data} wire envelope.
func EncodeEvent(ev Event) ([]byte, error) {
	return sonic.Marshal(eventEnvelope{Type: ev.EventType(), Data: ev.payload()})
}
