package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamAccumulatorIncremental(t *testing.T) {
	var acc streamAccumulator
	acc.add("The answer")
	acc.add(" is")
	acc.add(" 42.")
	assert.Equal(t, "The answer is 42.", acc.full)
	assert.Equal(t, 1, acc.mode)
}

func TestStreamAccumulatorCumulative(t *testing.T) {
	var acc streamAccumulator
	acc.add("The answer")
	acc.add("The answer is")
	acc.add("The answer is 42.")
	assert.Equal(t, "The answer is 42.", acc.full)
	assert.Equal(t, 2, acc.mode)
}

func TestStreamAccumulatorModeSticks(t *testing.T) {
	// Once detected, the mode holds even when a later chunk happens to look
	// like the other shape.
	var acc streamAccumulator
	acc.add("ab")
	acc.add("cd") // incremental detected
	acc.add("abcd")
	assert.Equal(t, "abcdabcd", acc.full)
}

func TestStreamAccumulatorEmptyChunks(t *testing.T) {
	var acc streamAccumulator
	acc.add("")
	acc.add("hello")
	acc.add("")
	acc.add(" world")
	assert.Equal(t, "hello world", acc.full)
}

func TestConsumeSSE(t *testing.T) {
	stream := strings.Join([]string{
		`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
		``,
		`data: {"choices":[{"delta":{"content":"lo"}}]}`,
		``,
		`: keep-alive comment`,
		`data: {"choices":[]}`,
		`data: [DONE]`,
		`data: {"choices":[{"delta":{"content":"ignored after done"}}]}`,
	}, "\n")

	var updates []string
	full, err := consumeSSE(strings.NewReader(stream), func(s string) {
		updates = append(updates, s)
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", full)
	assert.Equal(t, []string{"Hel", "Hello"}, updates)
}

func TestConsumeSSEMalformedEventsSkipped(t *testing.T) {
	stream := strings.Join([]string{
		`data: not json at all`,
		`data: {"choices":[{"delta":{"content":"ok"}}]}`,
		`data: [DONE]`,
	}, "\n")

	full, err := consumeSSE(strings.NewReader(stream), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", full)
}

func TestConsumeSSEWithoutDone(t *testing.T) {
	// EOF without [DONE] still yields whatever arrived.
	stream := `data: {"choices":[{"delta":{"content":"partial"}}]}`
	full, err := consumeSSE(strings.NewReader(stream), nil)
	require.NoError(t, err)
	assert.Equal(t, "partial", full)
}
