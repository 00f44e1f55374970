package plantfile_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boreline/internal/access"
	"boreline/internal/plantfile"
	"boreline/internal/testsupport"
)

const samplePlant = `
stations:
  - name: Drilling
    sequence: 1
    description: Barrel blank drilling
  - name: Reaming
    sequence: 2
  - name: Final QC
    sequence: 3
actors:
  - username: root
    role: admin
  - id: alice
    username: alice
    display_name: Alice Smith
    role: operator
    stations: [Drilling, final qc]
  - username: carl
    role: operator
    active: false
`

func TestDecodeValidPlant(t *testing.T) {
	plant, err := plantfile.Decode(strings.NewReader(samplePlant))
	require.NoError(t, err)
	require.Len(t, plant.Stations, 3)
	require.Len(t, plant.Actors, 3)
	assert.Equal(t, "Final QC", plant.Seeds()[2].Name)
}

func TestDecodeRejectsBadPlants(t *testing.T) {
	cases := map[string]string{
		"unknown key":      "stations:\n  - name: A\n    sequence: 1\n    color: red\n",
		"duplicate seq":    "stations:\n  - name: A\n    sequence: 1\n  - name: B\n    sequence: 1\n",
		"bad role":         "actors:\n  - username: x\n    role: foreman\n",
		"unknown station":  "stations:\n  - name: A\n    sequence: 1\nactors:\n  - username: x\n    role: operator\n    stations: [B]\n",
		"missing username": "actors:\n  - role: admin\n",
		"duplicate actor":  "actors:\n  - username: x\n    role: admin\n  - username: x\n    role: operator\n",
		"zero sequence":    "stations:\n  - name: A\n    sequence: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := plantfile.Decode(strings.NewReader(body))
			assert.Error(t, err)
		})
	}
}

func TestApplySeedsAndUpserts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := testsupport.WriteFile(t, filepath.Join(testsupport.BaseDir(cfg), "plant.yaml"), samplePlant)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	plant, err := plantfile.Load(path)
	require.NoError(t, err)
	summary, err := plantfile.Apply(ctx, st, plant, nil)
	require.NoError(t, err)
	assert.Equal(t, plantfile.Summary{StationsSeeded: 3, Actors: 3, Assignments: 2}, summary)

	alice, err := st.GetActor(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.Equal(t, "Alice Smith", alice.Name())
	assignments, err := st.ActiveAssignments(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, assignments, 2)

	carl, err := st.GetActor(ctx, "carl")
	require.NoError(t, err)
	assert.False(t, carl.Active)
	root, err := st.GetActor(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, access.RoleAdmin, root.Role)

	summary, err = plantfile.Apply(ctx, st, plant, nil)
	require.NoError(t, err)
	assert.Zero(t, summary.StationsSeeded, "stations are seeded once")
	assignments, err = st.ActiveAssignments(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, assignments, 2, "assignments are not duplicated")
}

func TestApplyWithoutStationsUsesDefaultCatalog(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	summary, err := plantfile.Apply(context.Background(), st, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, summary.StationsSeeded)
}
