package cpu

import "sync/atomic"

// CpuState is one of the six states of the CPU state machine (§3).
type CpuState int32

const (
	StateNone CpuState = iota
	StateInitialized
	StateRunning
	StateInterrupted
	StateFinished
	StateTerminated
)

var stateNames = map[CpuState]string{
	StateNone:         "None",
	StateInitialized:  "Initialized",
	StateRunning:      "Running",
	StateInterrupted:  "Interrupted",
	StateFinished:     "Finished",
	StateTerminated:   "Terminated",
}

func (s CpuState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "state(?)"
}

// Cpu is the single-threaded fetch-decode-execute interpreter (C7). It
// owns the register file, the four structure families, the call stack,
// and the I/O buffers; the Program it runs is shared, read-only state
// that may outlive the Cpu.
type Cpu struct {
	Verbose bool

	limits Limits
	prog   *Program

	regs     registers
	stacks   [instancesPerFamily]*Stack
	queues   [instancesPerFamily]*Queue
	tapes    [instancesPerFamily]*Tape
	memories [instancesPerFamily]*Memory
	calls    *callStack
	io       ioBuffers
	rng      *prng

	state atomic.Int32
	pc    uint32
	step  uint64

	profiling bool
	tracing   bool
}

// New constructs a Cpu from a validated Limits value. The Cpu starts in
// state None; call LoadProgram to move it to Initialized.
func New(limits Limits) (*Cpu, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	c := &Cpu{limits: limits, rng: newPRNG(0)}
	c.buildStructures()
	c.state.Store(int32(StateNone))
	return c, nil
}

func (c *Cpu) buildStructures() {
	for i := 0; i < instancesPerFamily; i++ {
		c.stacks[i] = newStack(c.limits.StackCapacity, i < c.limits.StacksCount)
		c.queues[i] = newQueue(c.limits.QueueCapacity, i < c.limits.QueuesCount)
		c.tapes[i] = newTape(c.limits.TapeCapacity, i < c.limits.TapesCount)
		c.memories[i] = newMemory(c.limits.MemoryCapacity[i], i < c.limits.MemoriesCount, c.limits.MemoryReadOnly[i])
	}
	c.calls = newCallStack(c.limits.CallStackCapacity)
}

// State returns the CPU's current state. Safe to call from any thread.
func (c *Cpu) State() CpuState {
	return CpuState(c.state.Load())
}

func (c *Cpu) setState(s CpuState) {
	c.state.Store(int32(s))
}

// Program returns the currently loaded program artifact, or nil.
func (c *Cpu) Program() *Program {
	return c.prog
}

// LoadProgram installs prog and reinitializes the CPU to run it from the
// beginning.
func (c *Cpu) LoadProgram(prog *Program) error {
	if prog == nil {
		return ErrNoProgram
	}
	c.prog = prog
	return c.Reinitialize()
}

// Reinitialize resets registers, structures, the call stack, the program
// counter, and the step index, then transitions to Initialized (§3
// "CPU state machine" invariants).
func (c *Cpu) Reinitialize() error {
	if c.prog == nil {
		return ErrNoProgram
	}
	c.regs.reset()
	c.buildStructures()
	c.io = ioBuffers{}
	c.rng.seed(0)
	c.pc = 0
	c.step = 0
	c.setState(StateInitialized)
	return nil
}

// Interrupt requests a transition from Running to Interrupted. It may be
// called from any thread at any time; the interpreter observes it at the
// next per-step check (§5).
func (c *Cpu) Interrupt() {
	c.state.CompareAndSwap(int32(StateRunning), int32(StateInterrupted))
}

// Terminate forces a transition to Terminated from any non-None state.
// It may be called from any thread at any time.
func (c *Cpu) Terminate() {
	for {
		old := c.state.Load()
		if CpuState(old) == StateNone || CpuState(old) == StateTerminated {
			return
		}
		if c.state.CompareAndSwap(old, int32(StateTerminated)) {
			return
		}
	}
}

// runnable transitions Initialized/Interrupted/Running to Running, or
// reports ErrInvalidState for any other starting state.
func (c *Cpu) runnable() error {
	for {
		old := CpuState(c.state.Load())
		switch old {
		case StateInitialized, StateInterrupted, StateRunning:
			if c.state.CompareAndSwap(int32(old), int32(StateRunning)) {
				return nil
			}
		default:
			return ErrInvalidState
		}
	}
}

// Step executes exactly one opcode and returns.
func (c *Cpu) Step() error {
	if err := c.runnable(); err != nil {
		return err
	}
	return c.execOne()
}

// Run executes opcodes until the CPU reaches Finished, Interrupted, or
// Terminated.
func (c *Cpu) Run() error {
	if err := c.runnable(); err != nil {
		return err
	}
	for c.State() == StateRunning {
		if err := c.execOne(); err != nil {
			return err
		}
	}
	return nil
}

// execOne fetches, decodes, and dispatches the instruction at pc, then
// applies the interrupt-period check (§4.7, §5).
func (c *Cpu) execOne() error {
	if c.prog == nil {
		return ErrNoProgram
	}
	if c.pc >= uint32(c.prog.InstructionCount()) {
		c.setState(StateTerminated)
		return ErrProgramCounter
	}

	pc := c.pc
	c.pc++
	c.step++

	op := c.prog.opcodeAt(pc)
	r := c.prog.reader(pc)

	if err := c.dispatch(op, r); err != nil {
		c.setState(StateTerminated)
		return newFault(c.prog, pc, c.step, err)
	}

	if c.State() == StateRunning && c.step%c.limits.InterruptPeriod == 0 {
		c.setState(StateInterrupted)
	}
	return nil
}

// StepIndex returns the number of instructions executed so far.
func (c *Cpu) StepIndex() uint64 {
	return c.step
}

// ProgramCounter returns the index of the next instruction to execute.
func (c *Cpu) ProgramCounter() uint32 {
	return c.pc
}

// FunctionIndex returns the enclosing function index of the instruction
// at the current program counter.
func (c *Cpu) FunctionIndex() int {
	if c.prog == nil || c.pc >= uint32(c.prog.InstructionCount()) {
		return 0
	}
	return int(c.prog.functionIndexAt(c.pc))
}

// SourceLine returns the source line of the instruction at the current
// program counter.
func (c *Cpu) SourceLine() int {
	if c.prog == nil || c.pc >= uint32(c.prog.InstructionCount()) {
		return 0
	}
	return int(c.prog.sourceLineAt(c.pc))
}

// CallStack returns a snapshot copy of the return-address stack.
func (c *Cpu) CallStack() []uint32 {
	return c.calls.snapshot()
}
