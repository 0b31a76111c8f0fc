// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Record lifecycle statuses. A record is created as unused and leaves that
// state exactly once: either through a successful verification (used) or by
// being superseded when a newer link for the same subject/action is issued
// (covered). There is no path back to unused.
const (
	StatusUnused  = "unused"
	StatusUsed    = "used"
	StatusCovered = "covered"
)

// AuthRecord is the authoritative persistent record of an issued auth link.
// It is the single source of truth for whether a token is still valid.
type AuthRecord struct {
	ID          uuid.UUID // The unique ID for this link record; the token is only meaningful together with it.
	SubjectUUID uuid.UUID // The authenticated actor this link was issued for.
	Action      string    // The bounded operation the link authorizes, e.g. "login".
	Token       string    // Short random token. Not unique on its own; validity is scoped to (ID, Token).
	Status      string    // One of StatusUnused, StatusUsed, StatusCovered.
	IsUsed      bool      // Redundant with Status != unused, kept for cheap filtering in queries.
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ExpiresAt   time.Time // Absolute deadline; past this instant the record is invalid regardless of status.
}

// IsActive reports whether the record would still verify at the given instant.
func (r *AuthRecord) IsActive(now time.Time) bool {
	return !r.IsUsed && r.Status == StatusUnused && r.ExpiresAt.After(now)
}

// LinkResult is the outcome of a successful link issuance.
type LinkResult struct {
	RecordID uuid.UUID // ID of the freshly written AuthRecord.
	Token    string    // The raw token bound to the record.
	Data     string    // The encoded payload as transmitted in the link.
	Hash     string    // SHA-256 binding of the plain canonical payload, token and salt.
	Link     string    // The fully assembled external URL.
	QRCode   []byte    // Optional PNG rendering of Link; nil unless requested.
}
