// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package ledger

import (
	"fmt"
	"strconv"
)

// Kind names the entity class of a staged deletion.
type Kind string

const (
	KindKey        Kind = "key"
	KindUser       Kind = "user"
	KindAssignment Kind = "assignment"
)

// DeleteRequest is a staged deletion proposal. Deletions are always two-step:
// StageDelete validates the target and returns a request; nothing is removed
// until Confirm(true). Declining aborts with no state change.
type DeleteRequest struct {
	ledger       *Ledger
	kind         Kind
	identifier   string
	assignmentID int
	label        string
}

// StageDelete validates that the target exists and returns a deletion
// proposal for it. For assignments the identifier is the numeric id.
func (l *Ledger) StageDelete(kind Kind, identifier string) (*DeleteRequest, error) {
	req := &DeleteRequest{ledger: l, kind: kind, identifier: identifier}
	switch kind {
	case KindKey:
		k, err := l.FindKey(identifier)
		if err != nil {
			return nil, err
		}
		req.label = k.Name
	case KindUser:
		u, err := l.FindUser(identifier)
		if err != nil {
			return nil, err
		}
		// Confirmation prompts show the display name, like every other surface.
		req.label = u.Display()
	case KindAssignment:
		id, err := strconv.Atoi(identifier)
		if err != nil {
			return nil, fmt.Errorf("%w: assignment id %q", ErrValidation, identifier)
		}
		a, err := l.FindAssignment(id)
		if err != nil {
			return nil, err
		}
		req.assignmentID = a.ID
		req.label = fmt.Sprintf("%s -> %s", a.KeyName, a.Username)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrValidation, kind)
	}
	return req, nil
}

// Kind returns the entity class of the staged deletion.
func (r *DeleteRequest) Kind() Kind { return r.kind }

// Label returns a human-readable name for the target, for the confirmation prompt.
func (r *DeleteRequest) Label() string { return r.label }

// Confirm executes the staged deletion when confirmed is true, and aborts
// with ErrAborted otherwise. An aborted or failed confirmation leaves the
// store untouched.
func (r *DeleteRequest) Confirm(confirmed bool) error {
	if !confirmed {
		return ErrAborted
	}
	switch r.kind {
	case KindKey:
		return r.ledger.DeleteKey(r.identifier)
	case KindUser:
		return r.ledger.DeleteUser(r.identifier)
	case KindAssignment:
		return r.ledger.DeleteAssignment(r.assignmentID)
	}
	return fmt.Errorf("%w: unknown kind %q", ErrValidation, r.kind)
}
