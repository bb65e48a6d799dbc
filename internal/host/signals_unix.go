//go:build unix

package host

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	"github.com/mrz1836/lockgate/internal/config"
	"github.com/mrz1836/lockgate/internal/lock"
)

// watchJobControl maps Ctrl-Z to background and fg/bg to foreground. On
// SIGTSTP the engine is told first, then the process really stops.
func watchJobControl(engine *lock.Engine, log *config.Logger) func() {
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigs, unix.SIGTSTP, unix.SIGCONT)

	go func() {
		for {
			select {
			case <-done:
				return
			case sig := <-sigs:
				switch sig {
				case unix.SIGTSTP:
					log.Debug("SIGTSTP: background")
					engine.NotifyBackground()
					signal.Reset(unix.SIGTSTP)
					if err := unix.Kill(os.Getpid(), unix.SIGTSTP); err != nil {
						log.Error("stopping process: %v", err)
					}
				case unix.SIGCONT:
					log.Debug("SIGCONT: foreground")
					signal.Notify(sigs, unix.SIGTSTP)
					engine.NotifyForeground()
				}
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}
