package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("JWTPIZZA_TEST_MODE", "1")
	})
}

func init() {
	ensureTestMode()
}

// TestMain forces test mode for packages that delegate to it.
func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
