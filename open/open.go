// Package open hands URLs and files to the system's default handler.
package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Start opens input with app, or with the default handler when app is empty.
// It does not wait for the handler to exit.
func Start(input, app string) error {
	cmd, err := command(runtime.GOOS, input, app)
	if err != nil {
		return err
	}
	return cmd.Start()
}

func command(goos, input, app string) (*exec.Cmd, error) {
	switch goos {
	case "windows":
		if app != "" {
			return exec.Command("cmd", "/C", "start", "", app, strings.ReplaceAll(input, "&", "^&")), nil
		}
		rundll := filepath.Join(os.Getenv("SYSTEMROOT"), "System32", "rundll32.exe")
		return exec.Command(rundll, "url.dll,FileProtocolHandler", input), nil
	case "darwin":
		if app != "" {
			return exec.Command("open", "-a", app, input), nil
		}
		return exec.Command("open", input), nil
	case "linux", "freebsd", "openbsd":
		if app != "" {
			return exec.Command(app, input), nil
		}
		return exec.Command("xdg-open", input), nil
	case "android":
		return exec.Command("termux-open", input), nil
	default:
		return nil, fmt.Errorf("opening files is not supported on %s", goos)
	}
}
