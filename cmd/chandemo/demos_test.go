package main

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runDemo(t *testing.T, name string) []string {
	t.Helper()
	d, ok := lookup(name)
	require.True(t, ok, "demo %q", name)

	log := logrus.New()
	log.SetOutput(io.Discard)

	var out bytes.Buffer
	require.NoError(t, d.run(&env{out: &out, pace: time.Millisecond, log: log}))
	return strings.Split(strings.TrimSpace(out.String()), "\n")
}

func TestDemoFanIn(t *testing.T) {
	lines := runDemo(t, "fanin")
	require.Len(t, lines, 11)
	for _, l := range lines[:10] {
		assert.Regexp(t, `^(Joe|Ann): \d+$`, l)
	}
	assert.Equal(t, "You're both boring; I'm leaving.", lines[10])
}

func TestDemoSequenceAlternates(t *testing.T) {
	lines := runDemo(t, "sequence")
	require.Len(t, lines, 11)

	// Each talker waits for its turn, so every round has one line from each.
	for round := range 5 {
		pair := lines[2*round : 2*round+2]
		assert.ElementsMatch(t, []string{
			"Joe: " + strconv.Itoa(round),
			"Ann: " + strconv.Itoa(round),
		}, pair)
	}
}

func TestDemoSelect(t *testing.T) {
	lines := runDemo(t, "select")
	require.Len(t, lines, 11)
	assert.Equal(t, "You're both boring; I'm leaving.", lines[10])
}

func TestDemoTimeout(t *testing.T) {
	lines := runDemo(t, "timeout")
	assert.Equal(t, "You're too slow.", lines[len(lines)-1])
}

func TestDemoRcvQuit(t *testing.T) {
	lines := runDemo(t, "rcvquit")
	assert.Equal(t, "Joe says: See you!", lines[len(lines)-1])
}

func TestDemoDaisy(t *testing.T) {
	assert.Equal(t, []string{"10001"}, runDemo(t, "daisy"))
}

func TestDemoFeed(t *testing.T) {
	lines := runDemo(t, "feed")
	assert.Equal(t, "Closed: <nil>", lines[len(lines)-1])
	for _, l := range lines[:len(lines)-1] {
		assert.Contains(t, l, " -- ")
	}
}

func TestLookupUnknown(t *testing.T) {
	_, ok := lookup("nope")
	assert.False(t, ok)

	var buf bytes.Buffer
	listDemos(&buf)
	for _, d := range demos {
		assert.Contains(t, buf.String(), d.name)
	}
}
