// Package script runs the external analysis scripts (SQL generation, data
// analysis, dashboard insights, hypothesis planning) as child processes.
// Their output is returned as opaque text.
package script

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/nao1215/analystdb"
	"go.uber.org/zap"
)

// Capability identifiers understood by the default script set.
const (
	CapabilityGenerateSQL       = "generate_sql"
	CapabilityAnalyzeData       = "analyze_data"
	CapabilityDashboardInsights = "dashboard_insights"
	CapabilityPlanHypothesis    = "plan_hypothesis"
)

// ErrUnknownCapability is returned when no script is mapped to a capability.
var ErrUnknownCapability = errors.New("script: unknown capability")

// ProcessError reports a script that exited with a non-zero status.
type ProcessError struct {
	Capability string
	ExitCode   int
	Stderr     string
}

// Error implements error.
func (e *ProcessError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("script %s exited with status %d", e.Capability, e.ExitCode)
	}
	return fmt.Sprintf("script %s exited with status %d: %s", e.Capability, e.ExitCode, e.Stderr)
}

// Invoker runs a named capability and returns its standard output.
type Invoker interface {
	Invoke(ctx context.Context, capability string, args ...string) (string, error)
}

// ProcessInvoker runs "<interpreter> <script> args..." for each capability.
// A started script always runs to completion: there is no timeout and the
// context passed to Invoke does not kill the child process.
type ProcessInvoker struct {
	interpreter string
	dir         string
	scripts     map[string]string
	logger      *zap.Logger
}

// NewProcessInvoker creates an invoker. Relative script names are resolved against dir.
func NewProcessInvoker(interpreter, dir string, scripts map[string]string, logger *zap.Logger) *ProcessInvoker {
	if logger == nil {
		logger = zap.NewNop()
	}
	copied := make(map[string]string, len(scripts))
	for capability, name := range scripts {
		copied[capability] = name
	}
	return &ProcessInvoker{
		interpreter: interpreter,
		dir:         dir,
		scripts:     copied,
		logger:      logger,
	}
}

// Capabilities returns the configured capability identifiers, sorted.
func (p *ProcessInvoker) Capabilities() []string {
	names := make([]string, 0, len(p.scripts))
	for capability := range p.scripts {
		names = append(names, capability)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the script bound to capability and waits for it to exit.
func (p *ProcessInvoker) Invoke(_ context.Context, capability string, args ...string) (string, error) {
	script, ok := p.scripts[capability]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCapability, capability)
	}

	cmd := exec.Command(p.interpreter, append([]string{p.scriptPath(script)}, args...)...) //nolint:noctx // scripts are not cancellable
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	sugar := p.logger.Sugar()
	sugar.Debugw("invoking script", "capability", capability, "interpreter", p.interpreter, "script", script)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			procErr := &ProcessError{
				Capability: capability,
				ExitCode:   exitErr.ExitCode(),
				Stderr:     strings.TrimSpace(stderr.String()),
			}
			sugar.Infow("script failed", "capability", capability, "exit_code", procErr.ExitCode)
			return "", procErr
		}
		return "", fmt.Errorf("failed to run script %s: %w", capability, err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (p *ProcessInvoker) scriptPath(name string) string {
	if p.dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.dir, name)
}

// GenerateSQL asks the generate_sql capability for a statement answering prompt.
// The schema is passed as a JSON second argument when it is not empty. The
// returned text is not validated.
func GenerateSQL(ctx context.Context, inv Invoker, prompt string, schema analystdb.Schema) (string, error) {
	args := []string{prompt}
	if len(schema) > 0 {
		encoded, err := json.Marshal(schema)
		if err != nil {
			return "", fmt.Errorf("failed to encode schema: %w", err)
		}
		args = append(args, string(encoded))
	}
	return inv.Invoke(ctx, CapabilityGenerateSQL, args...)
}
