package internal

import (
	"context"
	"os/exec"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
)

// openBrowser opens url in the desktop browser after delay, unless ctx ends
// first. Failure is only logged.
func openBrowser(ctx context.Context, delay time.Duration, url string) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("could not open browser")
		return
	}
	go cmd.Wait()
}
