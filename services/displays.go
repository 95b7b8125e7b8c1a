package services

import (
	"fmt"
	"log"
	"net/url"
	"os/exec"
	"strconv"
	"strings"

	"media54/types"
)

// DisplayService enumerates the displays presentation surfaces can target
type DisplayService interface {
	ListDisplays() []types.Display
	Display(index int) (types.Display, error)
}

// staticDisplays serves the display layout from configuration
type staticDisplays struct {
	displays []types.Display
}

// NewDisplayService creates a display service over a fixed layout
func NewDisplayService(displays []types.Display) DisplayService {
	return &staticDisplays{displays: append([]types.Display(nil), displays...)}
}

func (d *staticDisplays) ListDisplays() []types.Display {
	return append([]types.Display(nil), d.displays...)
}

func (d *staticDisplays) Display(index int) (types.Display, error) {
	if index < 0 || index >= len(d.displays) {
		return types.Display{}, fmt.Errorf("display %d: %w", index, ErrNotFound)
	}
	return d.displays[index], nil
}

// SurfaceLauncher creates presentation windows
type SurfaceLauncher interface {
	// Launch opens a full-screen window on display showing pageURL
	Launch(display types.Display, pageURL string) error
}

// commandLauncher runs an external command, typically a browser in kiosk mode
type commandLauncher struct {
	command string
	args    []string

	// start is swapped in tests
	start func(cmd *exec.Cmd) error
}

// NewCommandLauncher creates a launcher for command. Each arg may contain
// {x}, {y}, {width}, {height} and {url} placeholders.
func NewCommandLauncher(command string, args []string) SurfaceLauncher {
	return &commandLauncher{
		command: command,
		args:    args,
		start:   func(cmd *exec.Cmd) error { return cmd.Start() },
	}
}

func (l *commandLauncher) Launch(display types.Display, pageURL string) error {
	if l.command == "" {
		return fmt.Errorf("no launcher command configured")
	}
	if _, err := url.Parse(pageURL); err != nil {
		return fmt.Errorf("invalid page url: %w", err)
	}

	replacer := strings.NewReplacer(
		"{x}", strconv.Itoa(display.X),
		"{y}", strconv.Itoa(display.Y),
		"{width}", strconv.Itoa(display.Width),
		"{height}", strconv.Itoa(display.Height),
		"{url}", pageURL,
	)
	args := make([]string, len(l.args))
	for i, a := range l.args {
		args[i] = replacer.Replace(a)
	}

	cmd := exec.Command(l.command, args...)
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to launch %s: %w", l.command, err)
	}
	log.Printf("Launched presentation surface on display at %d,%d (%dx%d)", display.X, display.Y, display.Width, display.Height)

	// reap the process so it does not linger as a zombie
	if cmd.Process != nil {
		go cmd.Wait()
	}
	return nil
}
