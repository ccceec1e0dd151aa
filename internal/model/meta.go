// Package model defines the domain entities stored by the data layer.
package model

import "time"

// Meta carries the bookkeeping fields shared by every mutable record.
//
// IDs are positive integers unique within a collection, allocated as
// max(existing)+1. CreatedAt is set once on insert; UpdatedAt is refreshed on
// every successful mutation.
type Meta struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ID        int       `json:"id"`
}

// RecordID returns the record's collection id.
func (m *Meta) RecordID() int { return m.ID }

// SetRecordID assigns the record's collection id.
func (m *Meta) SetRecordID(id int) { m.ID = id }

// Stamp refreshes UpdatedAt, setting CreatedAt as well on first insert.
func (m *Meta) Stamp(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// Created returns the record's creation time.
func (m *Meta) Created() time.Time { return m.CreatedAt }

// SetCreated restores the record's creation time. Used by the update path to
// keep CreatedAt immutable across partial updates.
func (m *Meta) SetCreated(t time.Time) { m.CreatedAt = t }

// LastTouched returns UpdatedAt, falling back to CreatedAt when the record has
// never been mutated.
func (m *Meta) LastTouched() time.Time {
	if m.UpdatedAt.IsZero() {
		return m.CreatedAt
	}
	return m.UpdatedAt
}
