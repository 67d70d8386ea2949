package game

import (
	"testing"

	"go.uber.org/goleak"
)

// Oracle calls run on their own goroutines; none may outlive the tests.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
