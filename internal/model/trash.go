package model

import (
	"encoding/json"
	"time"
)

// TrashEntry is a quarantined copy of a deleted expense or income record.
//
// TrashID is a uuid rather than a collection id: the original record id may be
// reissued in the origin collection while the entry sits in trash, so trash
// entries need an identity space of their own.
type TrashEntry struct {
	TrashID       string          `json:"trashId"`
	OriginalType  TransactionKind `json:"originalType"`
	DeletedAt     time.Time       `json:"deletedAt"`
	DeletedReason string          `json:"deletedReason,omitempty"`
	Record        json.RawMessage `json:"record"`
}
