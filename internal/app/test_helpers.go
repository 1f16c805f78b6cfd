package app

import (
	"os"
	"testing"

	"github.com/specialistvlad/rendergraph/internal/config"
	"github.com/specialistvlad/rendergraph/internal/testutil"
)

// SetupAppTest creates a new app instance for system testing. Logs are
// captured at debug level and dumped when RG_TEST_LOGS=true.
func SetupAppTest(t *testing.T, appConfig *Config, loaders config.Loaders, opts ...Option) (*App, *testutil.SafeBuffer) {
	t.Helper()

	logBuffer := &testutil.SafeBuffer{}
	appConfig.LogLevel = "debug"
	if appConfig.WorkerCount == 0 {
		appConfig.WorkerCount = 1
	}
	testApp := NewApp(logBuffer, appConfig, loaders, opts...)

	t.Cleanup(func() {
		if os.Getenv("RG_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
