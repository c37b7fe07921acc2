package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallStackPushPop(t *testing.T) {
	assert := assert.New(t)

	cs := newCallStack(2)
	assert.NoError(cs.push(10))
	assert.NoError(cs.push(20))
	assert.ErrorIs(cs.push(30), ErrCallStackOverflow)

	v, err := cs.pop()
	assert.NoError(err)
	assert.Equal(uint32(20), v)
	assert.Equal(1, cs.depth())

	v, err = cs.pop()
	assert.NoError(err)
	assert.Equal(uint32(10), v)

	_, err = cs.pop()
	assert.ErrorIs(err, ErrCallStackUnderflow)
}

func TestCallStackSnapshotIsDefensiveCopy(t *testing.T) {
	assert := assert.New(t)

	cs := newCallStack(4)
	cs.push(1)
	cs.push(2)

	snap := cs.snapshot()
	snap[0] = 99

	assert.Equal(uint32(1), cs.frames[0])
}
