package claim_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boreline/internal/claim"
	"boreline/internal/failure"
)

var now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestAcquireGrantsWhenUnclaimed(t *testing.T) {
	got, acquired, err := claim.Acquire(nil, claim.Holder{ID: "alice", Name: "Alice"}, "sess-1", now)
	require.NoError(t, err)
	assert.True(t, acquired)
	assert.Equal(t, claim.Claim{HolderID: "alice", HolderName: "Alice", SessionID: "sess-1", AcquiredAt: now}, got)
}

func TestAcquireIsIdempotentForHolder(t *testing.T) {
	existing := &claim.Claim{HolderID: "alice", HolderName: "Alice", SessionID: "sess-1", AcquiredAt: now}

	got, acquired, err := claim.Acquire(existing, claim.Holder{ID: "alice", Name: "Alice"}, "sess-2", now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, acquired)
	assert.Equal(t, *existing, got)
}

func TestAcquireRejectsOtherActor(t *testing.T) {
	existing := &claim.Claim{HolderID: "alice", HolderName: "Alice"}

	_, _, err := claim.Acquire(existing, claim.Holder{ID: "bob", Name: "Bob"}, "sess-3", now)
	var claimed *claim.AlreadyClaimedError
	require.ErrorAs(t, err, &claimed)
	assert.Equal(t, "Alice", claimed.HolderName)
	assert.Equal(t, failure.KindAlreadyClaimed, failure.KindOf(err))
	assert.Equal(t, "barrel is currently being worked on by Alice", err.Error())
}

func TestAcquireFallsBackToIDForName(t *testing.T) {
	got, _, err := claim.Acquire(nil, claim.Holder{ID: "user007"}, "s", now)
	require.NoError(t, err)
	assert.Equal(t, "user007", got.HolderName)

	_, _, err = claim.Acquire(nil, claim.Holder{}, "s", now)
	assert.True(t, failure.Is(err, failure.KindValidation))
}

func TestReleaseAndVerify(t *testing.T) {
	held := &claim.Claim{HolderID: "alice", HolderName: "Alice"}

	assert.NoError(t, claim.Release(held, "alice"))
	assert.True(t, claim.Verify(held, "alice"))
	assert.False(t, claim.Verify(held, "bob"))
	assert.False(t, claim.Verify(nil, "alice"))

	err := claim.Release(held, "bob")
	assert.True(t, failure.Is(err, failure.KindNotClaimOwner))
	assert.Equal(t, "only Alice can act on this barrel", err.Error())

	err = claim.Release(nil, "alice")
	assert.True(t, failure.Is(err, failure.KindNotClaimOwner))
}
