package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/sfbuy/internal/core/buy"
)

func TestParseBuyFlagsDefaults(t *testing.T) {
	o, err := parseBuyFlags(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, buy.Request{InstanceType: "h100i", Accelerators: 8, Duration: "1h"}, o.req)
	assert.Equal(t, 0, o.concurrency)
}

func TestParseBuyFlagsShortAndLong(t *testing.T) {
	o, err := parseBuyFlags([]string{"-t", "a100", "--accelerators", "16", "-d", "3h", "-p", "2.50",
		"--start", "+1h", "-y", "--split", "--concurrency", "4"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, buy.Request{
		InstanceType: "a100",
		Accelerators: 16,
		Duration:     "3h",
		Price:        "2.50",
		Start:        "+1h",
		Yes:          true,
		Split:        true,
	}, o.req)
	assert.Equal(t, 4, o.concurrency)
}

func TestParseBuyFlagsRejectsExtraArgs(t *testing.T) {
	var stderr bytes.Buffer
	_, err := parseBuyFlags([]string{"-y", "now"}, &stderr)
	assert.Error(t, err)
	assert.Contains(t, stderr.String(), "unexpected arguments")
}

func TestRunUsage(t *testing.T) {
	var stderr bytes.Buffer
	code := run(context.Background(), []string{"sell"}, strings.NewReader(""), io.Discard, &stderr)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "usage: sf buy")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(&buy.Result{Mode: buy.ModeSingle, Class: buy.ClassStartingSoon}, nil))
	assert.Equal(t, exitOK, exitCode(&buy.Result{Mode: buy.ModeQuote}, nil))
	assert.Equal(t, exitOK, exitCode(&buy.Result{Mode: buy.ModeSingle, Class: buy.ClassLikelyFailed}, nil))
	assert.Equal(t, exitFail, exitCode(&buy.Result{Mode: buy.ModeSingle, Class: buy.ClassPossiblyFailed}, nil))
	assert.Equal(t, exitFail, exitCode(nil, buy.ErrDeclined))
	assert.Equal(t, exitFail, exitCode(nil, errors.New("boom")))
}

func TestPromptRefusesWithoutTerminal(t *testing.T) {
	p := newPrompt(strings.NewReader("y\n"), io.Discard)
	ok, err := p.Confirm(context.Background(), "Buy?")
	assert.False(t, ok)
	assert.ErrorIs(t, err, errNotInteractive)
}

func TestPromptAnswers(t *testing.T) {
	for in, want := range map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "": false} {
		var out bytes.Buffer
		p := newPrompt(strings.NewReader(in), &out)
		p.interactive = true

		ok, err := p.Confirm(context.Background(), "Buy?")
		require.NoError(t, err)
		assert.Equal(t, want, ok, "input %q", in)
		assert.Equal(t, "Buy? (y/N) ", out.String())
	}
}
