//go:build !unix

package host

import (
	"github.com/mrz1836/lockgate/internal/config"
	"github.com/mrz1836/lockgate/internal/lock"
)

// watchJobControl is a no-op where job-control signals do not exist.
func watchJobControl(_ *lock.Engine, log *config.Logger) func() {
	log.Debug("job-control signals unsupported on this platform")
	return func() {}
}
