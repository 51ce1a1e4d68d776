package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/nao1215/analystdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const helperModeEnv = "ANALYSTDB_SCRIPT_HELPER_MODE"

// TestHelperProcess is not a real test. It is run as the child process by
// the invoker tests below.
func TestHelperProcess(t *testing.T) {
	mode := os.Getenv(helperModeEnv)
	if mode == "" {
		return
	}
	args := os.Args[2:]
	switch mode {
	case "echo":
		fmt.Fprintf(os.Stdout, "  %s\n\n", strings.Join(args, "|"))
	case "fail":
		fmt.Fprintln(os.Stderr, "boom")
		os.Exit(3)
	}
	os.Exit(0)
}

func helperInvoker(t *testing.T, mode string) *ProcessInvoker {
	t.Helper()
	t.Setenv(helperModeEnv, mode)
	return NewProcessInvoker(os.Args[0], "", map[string]string{
		CapabilityGenerateSQL: "-test.run=^TestHelperProcess$",
		CapabilityAnalyzeData: "-test.run=^TestHelperProcess$",
	}, zaptest.NewLogger(t))
}

func TestProcessInvoker_Invoke(t *testing.T) {
	t.Run("stdout is trimmed", func(t *testing.T) {
		inv := helperInvoker(t, "echo")

		out, err := inv.Invoke(context.Background(), CapabilityAnalyzeData, "a", "b c")
		require.NoError(t, err)
		assert.Equal(t, "a|b c", out)
	})

	t.Run("non-zero exit", func(t *testing.T) {
		inv := helperInvoker(t, "fail")

		_, err := inv.Invoke(context.Background(), CapabilityAnalyzeData)
		var procErr *ProcessError
		require.True(t, errors.As(err, &procErr))
		assert.Equal(t, CapabilityAnalyzeData, procErr.Capability)
		assert.Equal(t, 3, procErr.ExitCode)
		assert.Equal(t, "boom", procErr.Stderr)
		assert.Contains(t, err.Error(), "status 3")
	})

	t.Run("cancelled context does not stop the script", func(t *testing.T) {
		inv := helperInvoker(t, "echo")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		out, err := inv.Invoke(ctx, CapabilityAnalyzeData, "still", "ran")
		require.NoError(t, err)
		assert.Equal(t, "still|ran", out)
	})

	t.Run("unknown capability", func(t *testing.T) {
		inv := helperInvoker(t, "echo")

		_, err := inv.Invoke(context.Background(), "summon")
		assert.ErrorIs(t, err, ErrUnknownCapability)
	})

	t.Run("missing interpreter", func(t *testing.T) {
		inv := NewProcessInvoker("/nonexistent/interpreter", "", map[string]string{"x": "x.py"}, nil)

		_, err := inv.Invoke(context.Background(), "x")
		require.Error(t, err)
		var procErr *ProcessError
		assert.False(t, errors.As(err, &procErr))
	})
}

func TestGenerateSQL(t *testing.T) {
	t.Run("prompt only when schema is empty", func(t *testing.T) {
		inv := helperInvoker(t, "echo")

		out, err := GenerateSQL(context.Background(), inv, "count rows", nil)
		require.NoError(t, err)
		assert.Equal(t, "count rows", out)
	})

	t.Run("schema is passed as json", func(t *testing.T) {
		inv := helperInvoker(t, "echo")

		out, err := GenerateSQL(context.Background(), inv, "count rows", analystdb.Schema{"sales": {"id", "amount"}})
		require.NoError(t, err)
		assert.Equal(t, `count rows|{"sales":["id","amount"]}`, out)
	})
}

func TestProcessInvoker_Capabilities(t *testing.T) {
	t.Parallel()

	inv := NewProcessInvoker("python3", "scripts", map[string]string{
		CapabilityPlanHypothesis: "bridge_plan_hypothesis.py",
		CapabilityGenerateSQL:    "bridge_generate_sql.py",
	}, nil)

	assert.Equal(t, []string{CapabilityGenerateSQL, CapabilityPlanHypothesis}, inv.Capabilities())
	assert.Equal(t, "scripts/bridge_generate_sql.py", inv.scriptPath("bridge_generate_sql.py"))
	assert.Equal(t, "/opt/x.py", inv.scriptPath("/opt/x.py"))
}
