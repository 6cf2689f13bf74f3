package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Opener sends the user to an external URL, typically the OAuth provider.
type Opener interface {
	Open(url string) error
}

type SystemOpener struct {
	goos    string
	command func(name string, args ...string) *exec.Cmd
}

func NewSystemOpener() *SystemOpener {
	return &SystemOpener{goos: runtime.GOOS, command: exec.Command}
}

func (o *SystemOpener) Open(url string) error {
	name, args := openCommand(o.goos, url)
	if name == "" {
		return fmt.Errorf("no browser opener for %s", o.goos)
	}
	if err := o.command(name, args...).Start(); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}

func openCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{url}
	default:
		return "", nil
	}
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(url string) error

func (f OpenerFunc) Open(url string) error { return f(url) }
