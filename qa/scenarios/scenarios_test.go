package scenarios

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario(t *testing.T) {
	files, err := filepath.Glob("testdata/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		sc, err := Load(f)
		require.NoError(t, err, f)
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load("no-file.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unclosed"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestFleetDefToModel(t *testing.T) {
	f := FleetDef{
		Dumpers:         GroupDef{Count: 2, BatteryKWh: 40, RatedPowerKW: 16},
		ExcavatorsCable: GroupDef{Count: 1, RatedPowerKW: 100},
	}
	m := f.ToModel()
	assert.Equal(t, 3, m.Total())
	assert.Equal(t, 40.0, m.Dumpers.BatteryKWh)
	assert.Equal(t, 1, m.ExcavatorsCable.Count)
}
