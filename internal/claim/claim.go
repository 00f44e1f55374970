// Package claim implements single-holder working rights over a work item.
//
// A claim is held from the moment an operation starts until it completes or
// is force-released. Functions here are pure: they inspect the item's
// current claim and report what should be persisted.
package claim

import (
	"fmt"
	"strings"
	"time"

	"boreline/internal/failure"
)

// Claim grants one actor the right to advance a work item at its station.
type Claim struct {
	HolderID   string
	HolderName string
	SessionID  string
	AcquiredAt time.Time
}

// Holder identifies the actor requesting a claim.
type Holder struct {
	ID   string
	Name string
}

// AlreadyClaimedError reports a claim held by someone else.
type AlreadyClaimedError struct {
	HolderID   string
	HolderName string
}

func (e *AlreadyClaimedError) Error() string {
	return fmt.Sprintf("barrel is currently being worked on by %s", e.HolderName)
}

func (e *AlreadyClaimedError) FailureKind() failure.Kind { return failure.KindAlreadyClaimed }

// NotOwnerError reports an actor acting on a claim it does not hold.
type NotOwnerError struct {
	HolderName string
}

func (e *NotOwnerError) Error() string {
	if e.HolderName == "" {
		return "barrel is not claimed"
	}
	return fmt.Sprintf("only %s can act on this barrel", e.HolderName)
}

func (e *NotOwnerError) FailureKind() failure.Kind { return failure.KindNotClaimOwner }

// Acquire grants a claim to holder. When holder already owns current, the
// existing claim is returned unchanged and acquired is false.
func Acquire(current *Claim, holder Holder, sessionID string, now time.Time) (granted Claim, acquired bool, err error) {
	if strings.TrimSpace(holder.ID) == "" {
		return Claim{}, false, failure.Invalid("actorId", "required")
	}
	if current != nil {
		if current.HolderID == holder.ID {
			return *current, false, nil
		}
		return Claim{}, false, &AlreadyClaimedError{HolderID: current.HolderID, HolderName: current.HolderName}
	}
	name := holder.Name
	if strings.TrimSpace(name) == "" {
		name = holder.ID
	}
	return Claim{
		HolderID:   holder.ID,
		HolderName: name,
		SessionID:  sessionID,
		AcquiredAt: now.UTC(),
	}, true, nil
}

// Release checks that actorID may drop current.
func Release(current *Claim, actorID string) error {
	if current == nil {
		return &NotOwnerError{}
	}
	if current.HolderID != actorID {
		return &NotOwnerError{HolderName: current.HolderName}
	}
	return nil
}

// Verify reports whether actorID holds current.
func Verify(current *Claim, actorID string) bool {
	return current != nil && current.HolderID == actorID
}
