// Package deps resolves the external programs feature extraction shells out to.
package deps

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

// versionTimeout bounds a single version probe.
const versionTimeout = 3 * time.Second

// Tool is an external program soundcatalog executes.
type Tool struct {
	Name    string
	Command string
	Purpose string
	// Optional tools never block a run.
	Optional bool
	// VersionArgs, when set, are passed to the resolved binary and the first
	// output line is reported as its version.
	VersionArgs []string
}

// Check is the outcome of resolving one Tool.
type Check struct {
	Tool
	// Path is the resolved executable, empty when not found.
	Path    string
	Version string
	Problem string
}

// Found reports whether the tool resolved to an executable.
func (c Check) Found() bool { return c.Path != "" }

// Blocking reports whether the check should stop a run.
func (c Check) Blocking() bool { return !c.Found() && !c.Optional }

// Resolve looks each tool up on PATH. A failed version probe leaves Version
// empty but does not make the tool unavailable.
func Resolve(ctx context.Context, tools []Tool) []Check {
	checks := make([]Check, len(tools))
	for i, tool := range tools {
		tool.Command = strings.TrimSpace(tool.Command)
		checks[i] = Check{Tool: tool}
		if tool.Command == "" {
			checks[i].Problem = "command not configured"
			continue
		}
		path, err := exec.LookPath(tool.Command)
		if err != nil {
			checks[i].Problem = "not found on PATH: " + tool.Command
			continue
		}
		checks[i].Path = path
		if len(tool.VersionArgs) > 0 {
			checks[i].Version = probeVersion(ctx, path, tool.VersionArgs)
		}
	}
	return checks
}

func probeVersion(ctx context.Context, path string, args []string) string {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, args...).Output()
	if err != nil {
		return ""
	}
	line, _, _ := bufio.NewReader(bytes.NewReader(out)).ReadLine()
	return strings.TrimSpace(string(line))
}

// FirstBlocking returns the first blocking check, if any.
func FirstBlocking(checks []Check) (Check, bool) {
	for _, c := range checks {
		if c.Blocking() {
			return c, true
		}
	}
	return Check{}, false
}
