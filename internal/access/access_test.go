package access_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boreline/internal/access"
	"boreline/internal/failure"
	"boreline/internal/station"
)

func TestCanAccess(t *testing.T) {
	drilling := station.ID(1)
	reaming := station.ID(2)
	assignments := []access.Assignment{
		{ActorID: "op", StationID: drilling, Active: true},
		{ActorID: "op", StationID: reaming, Active: false},
		{ActorID: "other", StationID: reaming, Active: true},
	}

	tests := []struct {
		name    string
		role    access.Role
		station station.ID
		want    bool
	}{
		{"operator at assigned station", access.RoleOperator, drilling, true},
		{"operator with inactive assignment", access.RoleOperator, reaming, false},
		{"supervisor without assignment", access.RoleSupervisor, reaming, true},
		{"admin without assignment", access.RoleAdmin, station.ID(99), true},
		{"unknown role", access.Role(0), drilling, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := access.Actor{ID: "op", Role: tt.role}
			assert.Equal(t, tt.want, access.CanAccess(actor, assignments, tt.station))
		})
	}
}

func TestPrivilegedActions(t *testing.T) {
	operator := access.Actor{Role: access.RoleOperator}
	supervisor := access.Actor{Role: access.RoleSupervisor}
	admin := access.Actor{Role: access.RoleAdmin}

	assert.False(t, access.CanForceRelease(operator, true))
	assert.False(t, access.CanForceRelease(supervisor, false))
	assert.True(t, access.CanForceRelease(supervisor, true))
	assert.True(t, access.CanForceRelease(admin, false))

	assert.False(t, access.CanQuarantine(operator))
	assert.True(t, access.CanQuarantine(supervisor))

	assert.False(t, access.CanManage(supervisor))
	assert.True(t, access.CanManage(admin))
}

func TestRoleText(t *testing.T) {
	for _, role := range access.AllRoles() {
		parsed, err := access.ParseRole(role.Title())
		require.NoError(t, err)
		assert.Equal(t, role, parsed)
	}

	_, err := access.ParseRole("foreman")
	assert.True(t, failure.Is(err, failure.KindValidation))

	payload, err := json.Marshal(struct {
		Role access.Role `json:"role"`
	}{access.RoleSupervisor})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"supervisor"}`, string(payload))

	var decoded struct {
		Role access.Role `json:"role"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"role":"admin"}`), &decoded))
	assert.Equal(t, access.RoleAdmin, decoded.Role)
}

func TestDeniedErrorMessage(t *testing.T) {
	err := &access.DeniedError{ActorName: "David Miller", StationName: "Reaming"}
	assert.Equal(t, "access denied: David Miller is not authorized to operate the Reaming station", err.Error())
	assert.Equal(t, failure.KindAccessDenied, failure.KindOf(err))
}

func TestPrimaryStation(t *testing.T) {
	_, ok := access.PrimaryStation(nil)
	assert.False(t, ok)

	id, ok := access.PrimaryStation([]access.Assignment{
		{StationID: 4, Active: false},
		{StationID: 6, Active: true},
		{StationID: 2, Active: true},
	})
	require.True(t, ok)
	assert.Equal(t, station.ID(6), id)
}
