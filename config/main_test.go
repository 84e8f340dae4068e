package config

import (
	"fmt"
	"os"
	"testing"
)

// TestMain runs before all tests in the config package. It ensures GO_ENV is
// set to "test" so a stray DATABASE_URL can never point tests at real data.
func TestMain(m *testing.M) {
	env := os.Getenv("GO_ENV")
	if env != "test" {
		fmt.Fprintf(os.Stderr,
			"refusing to run: tests must run with GO_ENV=test (current GO_ENV=%q)\n"+
				"run them as: GO_ENV=test go test ./...\n", env)
		os.Exit(1)
	}

	os.Exit(m.Run())
}
