package options

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/swarmcom/swarm/internal/errors"
)

type call struct {
	name  string
	value string
}

// recorder collects callback invocations.
type recorder struct {
	calls []call
}

func (r *recorder) cb(result Result) Callback {
	return func(name, value string) (Result, error) {
		r.calls = append(r.calls, call{name, value})
		return result, nil
	}
}

func newTestRegistry(t *testing.T, rec *recorder) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Add(Descriptor{FullName: "help", ShortName: "h", Description: "show help"}, rec.cb(StopProcessing)))
	require.NoError(t, r.Add(Descriptor{FullName: "config", ShortName: "c", ArgName: "FILE", ArgRequired: true, Repeatable: true}, rec.cb(Continue)))
	require.NoError(t, r.Add(Descriptor{FullName: "verbose", ShortName: "v"}, rec.cb(Continue)))
	require.NoError(t, r.Add(Descriptor{FullName: "metrics-addr", ShortName: "m", ArgName: "ADDR"}, rec.cb(Continue)))
	require.NoError(t, r.Add(Descriptor{FullName: "level", ArgName: "LEVEL", ArgRequired: true}, nil))
	return r
}

func TestParse_CallbackPerOccurrence(t *testing.T) {
	rec := &recorder{}
	r := newTestRegistry(t, rec)

	res, err := r.Parse("swarmd", []string{"-c", "a.yaml", "pos1", "--config=b.yaml", "-v", "--metrics-addr", "--level", "debug", "pos2"})
	require.NoError(t, err)

	assert.False(t, res.Stop)
	assert.Equal(t, []string{"pos1", "pos2"}, res.Args)
	assert.Equal(t, []call{
		{"config", "a.yaml"},
		{"config", "b.yaml"},
		{"verbose", ""},
		{"metrics-addr", ""},
	}, rec.calls)
}

func TestParse_OptionalArgument(t *testing.T) {
	rec := &recorder{}
	r := newTestRegistry(t, rec)

	_, err := r.Parse("swarmd", []string{"--metrics-addr=:9000", "-m"})
	require.Error(t, err, "metrics-addr is not repeatable")

	rec.calls = nil
	_, err = r.Parse("swarmd", []string{"-m=:9000"})
	require.NoError(t, err)
	assert.Equal(t, []call{{"metrics-addr", ":9000"}}, rec.calls)
}

func TestParse_StopProcessing(t *testing.T) {
	rec := &recorder{}
	r := newTestRegistry(t, rec)
	require.NoError(t, r.Add(Descriptor{FullName: "name", ArgName: "NAME", ArgRequired: true, Required: true}, nil))

	res, err := r.Parse("swarmd", []string{"-v", "--help", "-c", "x.yaml"})
	require.NoError(t, err, "required options are not checked when stopping")
	assert.True(t, res.Stop)
	assert.False(t, res.HelpRequested)
	assert.Len(t, rec.calls, 3, "every occurrence is still reported")
}

func TestParse_BuiltinHelp(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(Descriptor{FullName: "verbose"}, nil))

	for _, arg := range []string{"--help", "-h"} {
		res, err := r.Parse("swarmd", []string{arg})
		require.NoError(t, err)
		assert.True(t, res.Stop)
		assert.True(t, res.HelpRequested)
	}
}

func TestParse_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown long option", []string{"--nope"}},
		{"unknown short option", []string{"-x"}},
		{"missing argument", []string{"--level"}},
		{"argument to flag", []string{"--verbose=yes"}},
		{"non-repeatable repeated", []string{"-v", "-v"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistry(t, &recorder{})
			_, err := r.Parse("swarmd", tt.args)
			require.Error(t, err)
			assert.ErrorIs(t, err, serrors.ErrUsage)
			assert.Equal(t, serrors.ExitUsage, serrors.ExitCode(err))
		})
	}
}

func TestParse_MissingRequired(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(Descriptor{FullName: "name", ArgName: "NAME", ArgRequired: true, Required: true}, nil))

	_, err := r.Parse("swarmd", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, serrors.ErrUsage)
	assert.Contains(t, err.Error(), "--name")

	res, err := r.Parse("swarmd", []string{"--name", "x"})
	require.NoError(t, err)
	assert.Empty(t, res.Args)
}

func TestParse_CallbackFailure(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	require.NoError(t, r.Add(Descriptor{FullName: "fail"}, func(string, string) (Result, error) {
		return Continue, boom
	}))
	require.NoError(t, r.Add(Descriptor{FullName: "panic"}, func(string, string) (Result, error) {
		panic("callback exploded")
	}))

	_, err := r.Parse("swarmd", []string{"--fail"})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, serrors.ErrConfiguration)

	_, err = r.Parse("swarmd", []string{"--panic"})
	assert.ErrorIs(t, err, serrors.ErrConfiguration)
	assert.Contains(t, err.Error(), "callback exploded")
}

func TestAdd_Collisions(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(Descriptor{FullName: "config", ShortName: "c"}, nil))

	err := r.Add(Descriptor{FullName: "config"}, nil)
	assert.ErrorIs(t, err, serrors.ErrConfiguration)

	err = r.Add(Descriptor{FullName: "color", ShortName: "c"}, nil)
	assert.ErrorIs(t, err, serrors.ErrConfiguration)

	err = r.Add(Descriptor{FullName: "long", ShortName: "lg"}, nil)
	assert.ErrorIs(t, err, serrors.ErrConfiguration)

	err = r.Add(Descriptor{}, nil)
	assert.ErrorIs(t, err, serrors.ErrConfiguration)

	assert.Len(t, r.Descriptors(), 1)
}

func TestAdd_SetsHasCallback(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(Descriptor{FullName: "a", HasCallback: true}, nil))
	require.NoError(t, r.Add(Descriptor{FullName: "b"}, func(string, string) (Result, error) { return Continue, nil }))

	a, ok := r.Lookup("a")
	require.True(t, ok)
	assert.False(t, a.HasCallback)

	b, ok := r.Lookup("b")
	require.True(t, ok)
	assert.True(t, b.HasCallback)

	_, ok = r.Lookup("c")
	assert.False(t, ok)
}

func TestFormatHelp(t *testing.T) {
	r := newTestRegistry(t, &recorder{})
	require.NoError(t, r.Add(Descriptor{FullName: "name", ArgName: "NAME", ArgRequired: true, Required: true, Description: "instance name"}, nil))

	var buf bytes.Buffer
	require.NoError(t, r.FormatHelp(&buf, "swarmd run", "[options] [args]", "Runs the daemon in the foreground."))

	out := buf.String()
	assert.Contains(t, out, "usage: swarmd run [options] [args]\nRuns the daemon in the foreground.\n\n")
	assert.Contains(t, out, "-h, --help")
	assert.Contains(t, out, "-c, --config=FILE")
	assert.Contains(t, out, "-m, --metrics-addr[=ADDR]")
	assert.Contains(t, out, "    --level=LEVEL")
	assert.Contains(t, out, "instance name (required)")
	assert.Contains(t, out, "(repeatable)")
}

func TestFormatHelp_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRegistry().FormatHelp(&buf, "tool", "", ""))
	assert.Equal(t, "usage: tool\n", buf.String())
}
