package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"kind only", &Error{Kind: KindUsage}, "UsageError"},
		{"with message", New(KindNotFound, "key a.b"), "NotFoundError: key a.b"},
		{"with cause", Wrap(KindLogChannel, io.ErrClosedPipe, "open /tmp/x.log"), "LogChannelError: open /tmp/x.log: io: read/write on closed pipe"},
		{"formatted", Newf(KindMalformed, "%q is not an int", "abc"), `MalformedError: "abc" is not an int`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrap_NilCause(t *testing.T) {
	assert.Nil(t, Wrap(KindWorker, nil, "ignored"))
	assert.Nil(t, Wrapf(KindWorker, nil, "ignored %d", 1))
}

func TestIs_MatchesKind(t *testing.T) {
	err := fmt.Errorf("loading: %w", New(KindNotFound, "logging.level"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrMalformed))
	assert.True(t, IsKind(err, KindNotFound))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestIs_NotFoundAndMalformedStayDistinct(t *testing.T) {
	notFound := New(KindNotFound, "x")
	malformed := New(KindMalformed, "x")

	assert.False(t, errors.Is(notFound, ErrMalformed))
	assert.False(t, errors.Is(malformed, ErrNotFound))
}

func TestUnwrap_ReachesCause(t *testing.T) {
	err := Wrap(KindInitialization, io.EOF, "init hook")
	require.ErrorIs(t, err, io.EOF)

	var kinded *Error
	require.ErrorAs(t, err, &kinded)
	assert.Equal(t, KindInitialization, kinded.Kind)
}

func TestKindOf_Unkinded(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(io.EOF))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{New(KindUsage, ""), ExitUsage},
		{New(KindInitialization, ""), ExitConfig},
		{New(KindConfiguration, ""), ExitConfig},
		{New(KindMalformed, ""), ExitConfig},
		{New(KindWorker, ""), ExitSoftware},
		{New(KindState, ""), ExitSoftware},
		{io.EOF, ExitSoftware},
	}

	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
