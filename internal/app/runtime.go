package app

import (
	"os"
	"sync"
	"sync/atomic"
)

// TestModeEnv names the variable that keeps binaries from dialing Postgres and Redis.
const TestModeEnv = "INVENTORY_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

func detectTestMode() {
	testModeFlag.Store(os.Getenv(TestModeEnv) == "1")
}

// InTestMode reports whether the process should skip runtime side effects such as
// connecting to storage or starting the scheduler.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode re-reads the flag after the environment changed.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	detectTestMode()
}

// EnableTestMode sets the flag for the current process unless it was set explicitly.
func EnableTestMode() {
	if os.Getenv(TestModeEnv) == "" {
		_ = os.Setenv(TestModeEnv, "1")
	}
	RefreshTestMode()
}
