package cpu

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAssemble(t *testing.T, program string) *Program {
	t.Helper()
	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(program))
	require.NoError(t, err)
	return prog
}

func newTestCpu(t *testing.T) *Cpu {
	t.Helper()
	c, err := New(DefaultLimits())
	require.NoError(t, err)
	return c
}

func TestArithmeticBasics(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, strings.Join([]string{
		"set A 42",
		"set B 13",
		"add C A B",
		"sub D A B",
		"mul E A B",
		"div F A B",
	}, "\n"))

	c := newTestCpu(t)
	require.NoError(t, c.LoadProgram(prog))
	require.NoError(t, c.Run())
	assert.Equal(StateFinished, c.State())

	assert.Equal(uint32(42), c.RegisterU32(0))
	assert.Equal(uint32(13), c.RegisterU32(1))
	assert.Equal(uint32(55), c.RegisterU32(2))
	assert.Equal(uint32(29), c.RegisterU32(3))
	assert.Equal(uint32(546), c.RegisterU32(4))
	assert.Equal(uint32(3), c.RegisterU32(5))
}

func TestBitwise(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, strings.Join([]string{
		"set A 1",
		"set L 42",
		"shl L L A",
		"set M 42",
		"shr M M A",
	}, "\n"))

	c := newTestCpu(t)
	require.NoError(t, c.LoadProgram(prog))
	require.NoError(t, c.Run())

	assert.Equal(uint32(84), c.RegisterU32(int('L'-'A')))
	assert.Equal(uint32(21), c.RegisterU32(int('M'-'A')))
}

func TestUnsignedComparison(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, strings.Join([]string{
		"set A 42",
		"set B 13",
		"eq C A B",
		"gt F A B",
	}, "\n"))

	c := newTestCpu(t)
	require.NoError(t, c.LoadProgram(prog))
	require.NoError(t, c.Run())

	assert.Equal(uint32(0), c.RegisterU32(int('C'-'A')))
	assert.Equal(uint32(1), c.RegisterU32(int('F'-'A')))
}

func TestLoopWithCondJump(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, strings.Join([]string{
		"set B 10",
		"label Start",
		"inc A",
		"lt z A B",
		"condjmp Start",
	}, "\n"))

	c := newTestCpu(t)
	require.NoError(t, c.LoadProgram(prog))
	require.NoError(t, c.Run())

	assert.Equal(uint32(10), c.RegisterU32(0))
}

// TestRecursionAndCallStack mirrors spec.md's "Recursion & call stack"
// seed scenario: two mutually calling functions incrementing A and
// doubling B, guarded by D=10, land on A=10, B=31 (2^5 - 1).
func TestRecursionAndCallStack(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, strings.Join([]string{
		"set D 10",
		"call StepA",
		"function StepA",
		"inc A",
		"lt z A D",
		"condcall StepB",
		"return",
		"function StepB",
		"inc A",
		"set C 2",
		"mul B B C",
		"inc B",
		"lt z A D",
		"condcall StepA",
		"return",
	}, "\n"))

	c := newTestCpu(t)
	require.NoError(t, c.LoadProgram(prog))
	require.NoError(t, c.SetRegisterU32(int('B'-'A'), 0))
	require.NoError(t, c.Run())

	assert.Equal(0, len(c.CallStack()))
	assert.Equal(uint32(10), c.RegisterU32(0))
	assert.Equal(uint32(31), c.RegisterU32(int('B'-'A')))
}

func TestStackLifo(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, strings.Join([]string{
		"set A 1",
		"push SA A",
		"set A 2",
		"push SA A",
		"set A 3",
		"push SA A",
		"pop C SA",
		"pop D SA",
		"pop E SA",
	}, "\n"))

	c := newTestCpu(t)
	require.NoError(t, c.LoadProgram(prog))
	require.NoError(t, c.Run())

	assert.Equal(uint32(3), c.RegisterU32(int('C'-'A')))
	assert.Equal(uint32(2), c.RegisterU32(int('D'-'A')))
	assert.Equal(uint32(1), c.RegisterU32(int('E'-'A')))
}

func TestQueueFifo(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, strings.Join([]string{
		"set A 1",
		"enqueue QA A",
		"set A 2",
		"enqueue QA A",
		"set A 3",
		"enqueue QA A",
		"dequeue C QA",
		"dequeue D QA",
		"dequeue E QA",
	}, "\n"))

	c := newTestCpu(t)
	require.NoError(t, c.LoadProgram(prog))
	require.NoError(t, c.Run())

	assert.Equal(uint32(1), c.RegisterU32(int('C'-'A')))
	assert.Equal(uint32(2), c.RegisterU32(int('D'-'A')))
	assert.Equal(uint32(3), c.RegisterU32(int('E'-'A')))
}

func TestMemoryReadBack(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, strings.Join([]string{
		"set A 99",
		"store MA@5 A",
		"load R MA@5",
	}, "\n"))

	c := newTestCpu(t)
	require.NoError(t, c.LoadProgram(prog))
	require.NoError(t, c.Run())

	assert.Equal(uint32(99), c.RegisterU32(int('R'-'A')))
}

func TestTapeHeadRoundTrip(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, strings.Join([]string{
		"set A 7",
		"store TA A",
		"left TA",
		"left TA",
		"left TA",
		"right TA",
		"right TA",
		"right TA",
		"load R TA",
	}, "\n"))

	c := newTestCpu(t)
	require.NoError(t, c.LoadProgram(prog))
	require.NoError(t, c.Run())

	assert.Equal(uint32(7), c.RegisterU32(int('R'-'A')))
}

func TestCondOpcodesNoopWhenConditionZero(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, strings.Join([]string{
		"set A 5",
		"condset A 99",
	}, "\n"))

	c := newTestCpu(t)
	require.NoError(t, c.LoadProgram(prog))
	require.NoError(t, c.Run())

	assert.Equal(uint32(5), c.RegisterU32(0))
}

func TestIndCpy(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, strings.Join([]string{
		"set A 123",
		"set d 1",
		"set s 0",
		"indcpy",
	}, "\n"))

	c := newTestCpu(t)
	require.NoError(t, c.LoadProgram(prog))
	require.NoError(t, c.Run())

	assert.Equal(uint32(123), c.RegisterU32(1))
}

func TestRunFinishesAtExit(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, "set A 1")
	c := newTestCpu(t)
	require.NoError(t, c.LoadProgram(prog))
	require.NoError(t, c.Run())
	assert.Equal(StateFinished, c.State())
}

func TestBottomlessRecursionOverflows(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, strings.Join([]string{
		"call Bottomless",
		"function Bottomless",
		"call Bottomless",
		"return",
	}, "\n"))

	c, err := New(Limits{
		StackCapacity:     DefaultCapacity,
		StacksCount:       DefaultInstancesEnabled,
		QueueCapacity:     DefaultCapacity,
		QueuesCount:       DefaultInstancesEnabled,
		TapeCapacity:      DefaultCapacity,
		TapesCount:        DefaultInstancesEnabled,
		CallStackCapacity: 8,
		InterruptPeriod:   DefaultInterruptPeriod,
	})
	require.NoError(t, err)
	require.NoError(t, c.LoadProgram(prog))

	err = c.Run()
	require.Error(t, err)
	var fault *ErrFault
	assert.ErrorAs(err, &fault)
	assert.ErrorIs(fault.Err, ErrCallStackOverflow)
	assert.Equal(StateTerminated, c.State())
}

func TestTopLevelReturnUnderflows(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, "return")

	c := newTestCpu(t)
	require.NoError(t, c.LoadProgram(prog))

	err := c.Run()
	require.Error(t, err)
	var fault *ErrFault
	assert.ErrorAs(err, &fault)
	assert.ErrorIs(fault.Err, ErrCallStackUnderflow)
}

func TestMissingLabelFailsToLink(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader("jump Missing"))
	require.Error(t, err)
	var link *ErrLink
	assert.ErrorAs(err, &link)
	assert.ErrorIs(link.Err, ErrLabelMissing)
}

func TestDuplicateLabelFailsToEncode(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader("label First\nlabel First\n"))
	require.Error(t, err)
	var syn *ErrSyntax
	assert.ErrorAs(err, &syn)
	assert.ErrorIs(syn.Err, ErrLabelDuplicate)
}

func TestFallThroughFunctionFaults(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, strings.Join([]string{
		"call Foo",
		"function Foo",
		"set A 1",
	}, "\n"))

	c := newTestCpu(t)
	require.NoError(t, c.LoadProgram(prog))

	err := c.Run()
	require.Error(t, err)
	var fault *ErrFault
	assert.ErrorAs(err, &fault)
	assert.ErrorIs(fault.Err, ErrFellOffFunction)
}

func TestCreadBeyondBufferFaults(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, "cread")

	c := newTestCpu(t)
	require.NoError(t, c.LoadProgram(prog))

	err := c.Run()
	require.Error(t, err)
	var fault *ErrFault
	assert.ErrorAs(err, &fault)
	assert.ErrorIs(fault.Err, ErrReadExhausted)
}

func TestInterruptDuringRun(t *testing.T) {
	assert := assert.New(t)

	var lines []string
	for i := 0; i < 3; i++ {
		lines = append(lines, "inc A")
	}
	prog := mustAssemble(t, strings.Join(lines, "\n"))

	limits := DefaultLimits()
	limits.InterruptPeriod = 1
	c, err := New(limits)
	require.NoError(t, err)
	require.NoError(t, c.LoadProgram(prog))

	require.NoError(t, c.Run())
	assert.Equal(StateInterrupted, c.State())
	assert.Equal(uint64(1), c.StepIndex())

	require.NoError(t, c.Step())
	assert.Equal(uint64(2), c.StepIndex())
}

func TestReadlnAndWriteRoundTrip(t *testing.T) {
	assert := assert.New(t)

	prog := mustAssemble(t, strings.Join([]string{
		"readln",
		"read",
		"iwrite",
		"writeln",
	}, "\n"))

	limits := DefaultLimits()
	var out string
	lines := []string{"42"}
	i := 0
	limits.Input = func() (string, bool) {
		if i >= len(lines) {
			return "", false
		}
		line := lines[i]
		i++
		return line, true
	}
	limits.Output = func(line string) bool {
		out = line
		return true
	}

	c, err := New(limits)
	require.NoError(t, err)
	require.NoError(t, c.LoadProgram(prog))
	require.NoError(t, c.Run())

	assert.Equal("42", out)
	assert.Equal(42, mustAtoi(t, out))
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	v, err := strconv.Atoi(s)
	require.NoError(t, err)
	return v
}
