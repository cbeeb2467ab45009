package bootstrap

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dreamware/examgrader/internal/errs"
)

func errValue(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// RoleOrchestrator and RoleWorker are the two recognized values of ROLE.
const (
	RoleOrchestrator = "orch"
	RoleWorker       = "worker"
)

// Config is the process configuration read from the environment at
// startup. An unrecognized ROLE or a missing variable required by the
// selected role is fatal before any I/O begins.
type Config struct {
	Role  string
	Port  int
	Debug bool

	// Host and Workers are required when Role == RoleOrchestrator: Host is
	// the bus listener's bind address, Workers is W, the fixed worker
	// count the bus waits to register before a round can be dispatched.
	Host    string
	Workers int

	// MasterAddr is required when Role == RoleWorker: host:port of the
	// orchestrator's bus listener, the registration address a worker
	// dials to receive its rank.
	MasterAddr string

	// APIAddr is the orchestrator's HTTP front-door bind address.
	// Defaulted rather than required: the front door must not fight the
	// bus listener over HOST:PORT.
	APIAddr string
}

// LoadConfig reads and validates the environment per the role selector.
func LoadConfig() (Config, error) {
	role, err := requireEnv("ROLE")
	if err != nil {
		return Config{}, err
	}
	if role != RoleOrchestrator && role != RoleWorker {
		return Config{}, errs.NewConfigError("ROLE", errValue("must be %q or %q, got %q", RoleOrchestrator, RoleWorker, role))
	}

	portStr, err := requireEnv("PORT")
	if err != nil {
		return Config{}, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return Config{}, errs.NewConfigError("PORT", errValue("must be a u16 decimal, got %q", portStr))
	}

	cfg := Config{
		Role:    role,
		Port:    port,
		Debug:   os.Getenv("DEBUG") == "1",
		APIAddr: getenv("API_ADDR", ":8090"),
	}

	switch role {
	case RoleOrchestrator:
		host, err := requireEnv("HOST")
		if err != nil {
			return Config{}, err
		}
		workersStr, err := requireEnv("WORKERS")
		if err != nil {
			return Config{}, err
		}
		workers, err := strconv.Atoi(workersStr)
		if err != nil || workers < 1 {
			return Config{}, errs.NewConfigError("WORKERS", errValue("must be a positive integer, got %q", workersStr))
		}
		cfg.Host = host
		cfg.Workers = workers
	case RoleWorker:
		masterAddr, err := requireEnv("MASTER_ADDR")
		if err != nil {
			return Config{}, err
		}
		cfg.MasterAddr = masterAddr
	}

	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func requireEnv(k string) (string, error) {
	v := os.Getenv(k)
	if v == "" {
		return "", errs.NewConfigError(k, errValue("required environment variable is unset"))
	}
	return v, nil
}
