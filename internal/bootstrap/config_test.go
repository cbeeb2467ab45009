package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestLoadConfigOrchestrator(t *testing.T) {
	withEnv(t, map[string]string{
		"ROLE":    "orch",
		"PORT":    "9000",
		"HOST":    "0.0.0.0",
		"WORKERS": "4",
	})
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, RoleOrchestrator, cfg.Role)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, ":8090", cfg.APIAddr)
}

func TestLoadConfigWorker(t *testing.T) {
	withEnv(t, map[string]string{
		"ROLE":        "worker",
		"PORT":        "8080",
		"MASTER_ADDR": "127.0.0.1:9000",
	})
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, RoleWorker, cfg.Role)
	assert.Equal(t, "127.0.0.1:9000", cfg.MasterAddr)
}

func TestLoadConfigMissingRole(t *testing.T) {
	withEnv(t, map[string]string{"ROLE": "", "PORT": "8080"})
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigBadRole(t *testing.T) {
	withEnv(t, map[string]string{"ROLE": "bogus", "PORT": "8080"})
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigOrchestratorMissingWorkers(t *testing.T) {
	withEnv(t, map[string]string{
		"ROLE": "orch",
		"PORT": "9000",
		"HOST": "0.0.0.0",
	})
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigWorkerMissingMasterAddr(t *testing.T) {
	withEnv(t, map[string]string{
		"ROLE": "worker",
		"PORT": "8080",
	})
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigBadPort(t *testing.T) {
	withEnv(t, map[string]string{"ROLE": "worker", "PORT": "not-a-port", "MASTER_ADDR": "x:1"})
	_, err := LoadConfig()
	assert.Error(t, err)
}
