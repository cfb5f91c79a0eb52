package observability

import (
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/ctf-scoreboard/internal/config"
	"github.com/riskibarqy/ctf-scoreboard/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

func TestInitPyroscope_Disabled(t *testing.T) {
	stop, err := InitPyroscope(config.Config{}, logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, stop())
}

func TestPyroscopeTags(t *testing.T) {
	tags := pyroscopeTags(config.Config{
		AppEnv:        config.EnvDev,
		ServiceName:   "ctf-scoreboard-api",
		StorageDriver: config.StoragePostgres,
	})
	require.Equal(t, map[string]string{
		"env":     config.EnvDev,
		"service": "ctf-scoreboard-api",
		"storage": config.StoragePostgres,
	}, tags)

	require.NotContains(t, pyroscopeTags(config.Config{}), "storage")
}

func TestPyroscopeProfileTypes_IncludeContention(t *testing.T) {
	types := pyroscopeProfileTypes()
	require.Contains(t, types, pyroscope.ProfileCPU)
	require.Contains(t, types, pyroscope.ProfileMutexDuration)
	require.Contains(t, types, pyroscope.ProfileBlockDuration)
}
