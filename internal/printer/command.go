package printer

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Command prints files by running an external program, lpr by default.
type Command struct {
	name    string
	args    []string
	timeout time.Duration
}

// NewCommand parses a command line such as "lpr -P office". The file path is
// appended as the last argument.
func NewCommand(commandLine string, timeout time.Duration) *Command {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		fields = []string{"lpr"}
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Command{name: fields[0], args: fields[1:], timeout: timeout}
}

// Print sends path to the printer. It is best effort: failures are logged and
// reported as false, never as an error.
func (c *Command) Print(ctx context.Context, path string) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := append(append([]string{}, c.args...), path)
	cmd := exec.CommandContext(ctx, c.name, args...)
	log.Debug().Str("cmd", strings.Join(cmd.Args, " ")).Msg("print command")

	start := time.Now()
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Warn().Err(err).Str("file", path).Str("output", strings.TrimSpace(string(output))).Msg("print failed")
		return false
	}
	log.Info().Str("file", path).Dur("duration", time.Since(start)).Msg("sent to printer")
	return true
}
