package config

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucpu/qasmint/cpu"
)

func TestLoadOverridesDefaults(t *testing.T) {
	assert := assert.New(t)

	doc := strings.Join([]string{
		"[memory]",
		"capacity_1 = 64",
		"read_only_1 = true",
		"instances = 2",
		"",
		"[stacks]",
		"capacity = 128",
		"instances = 1",
		"",
		"[queues]",
		"capacity = 256",
		"instances = 1",
		"",
		"[tapes]",
		"capacity = 512",
		"instances = 1",
		"",
		"[callstack]",
		"capacity = 64",
		"",
		"[interrupt]",
		"period = 10",
	}, "\n")

	limits, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(uint32(64), limits.MemoryCapacity[0])
	assert.True(limits.MemoryReadOnly[0])
	assert.Equal(2, limits.MemoriesCount)
	assert.Equal(uint32(128), limits.StackCapacity)
	assert.Equal(1, limits.StacksCount)
	assert.Equal(uint32(256), limits.QueueCapacity)
	assert.Equal(1, limits.QueuesCount)
	assert.Equal(uint32(512), limits.TapeCapacity)
	assert.Equal(1, limits.TapesCount)
	assert.Equal(64, limits.CallStackCapacity)
	assert.Equal(uint64(10), limits.InterruptPeriod)
}

func TestLoadFallsBackToDefaultsWhenKeyMissing(t *testing.T) {
	assert := assert.New(t)

	limits, err := Load(strings.NewReader(""))
	require.NoError(t, err)

	assert.Equal(cpu.DefaultLimits(), limits)
}

func TestLoadRejectsUnknownSection(t *testing.T) {
	_, err := Load(strings.NewReader("[bogus]\nfoo = 1\n"))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	_, err := Load(strings.NewReader("[memory]\ncapacity_27 = 10\n"))
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	assert := assert.New(t)

	original := cpu.DefaultLimits()
	original.MemoryCapacity[5] = 999
	original.MemoryReadOnly[5] = true
	original.CallStackCapacity = 42
	original.InterruptPeriod = 7

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, original))

	roundtripped, err := Load(&buf)
	require.NoError(t, err)

	assert.Equal(original, roundtripped)
}
