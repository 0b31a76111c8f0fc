package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"authlinker/internal/errors"
)

// LinkPayload is the canonical payload embedded in an auth link. Its JSON
// form is the single input both to the transport codecs and to the hash
// binding, so the two must always see identical bytes.
//
// Field order and key names are part of the wire contract shared with
// deployed verifiers and must not change: recordUUID, action, player_uuid,
// expires_time (unix milliseconds).
type LinkPayload struct {
	RecordUUID  string `json:"recordUUID"`
	Action      string `json:"action"`
	PlayerUUID  string `json:"player_uuid"`
	ExpiresTime int64  `json:"expires_time"`
}

// NewLinkPayload builds the canonical payload for a link that expires at the
// given instant.
func NewLinkPayload(recordID, subjectID uuid.UUID, action string, expiresAt time.Time) *LinkPayload {
	return &LinkPayload{
		RecordUUID:  recordID.String(),
		Action:      action,
		PlayerUUID:  subjectID.String(),
		ExpiresTime: expiresAt.UnixMilli(),
	}
}

// CanonicalJSON returns the deterministic serialized form of the payload.
// encoding/json emits struct fields in declaration order, which fixes the
// key order required by the wire contract.
func (p *LinkPayload) CanonicalJSON() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize link payload")
	}

	return data, nil
}

// ParseLinkPayload decodes a canonical payload back into its structured form.
func ParseLinkPayload(data []byte) (*LinkPayload, error) {
	payload := new(LinkPayload)
	if err := json.Unmarshal(data, payload); err != nil {
		return nil, errors.Wrap(err, "failed to parse link payload")
	}

	return payload, nil
}

// RecordID returns the parsed record identifier.
func (p *LinkPayload) RecordID() (uuid.UUID, error) {
	id, err := uuid.Parse(p.RecordUUID)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "invalid record id in payload")
	}

	return id, nil
}

// Expired reports whether the payload's embedded deadline has passed.
func (p *LinkPayload) Expired(now time.Time) bool {
	return now.UnixMilli() >= p.ExpiresTime
}
