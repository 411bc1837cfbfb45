package event

import "github.com/ZilDuck/nft-marketplace-ledger/internal/entity"

type Type string

const (
	// RecordsCommittedEvent carries the []entity.Record of one committed call.
	RecordsCommittedEvent Type = "RecordsCommittedEvent"

	// PayoutsQueuedEvent carries the []entity.Payout of one committed call.
	PayoutsQueuedEvent Type = "PayoutsQueuedEvent"
)

// RecordEvent is the per-record event type; its payload is a single
// entity.Record of that kind.
func RecordEvent(kind entity.RecordKind) Type {
	return Type("Record." + string(kind))
}
