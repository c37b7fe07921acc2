package cpu

// The read/write surface a host uses to inspect or seed a Cpu between
// steps (§6 "CPU programmatic surface"). Explicit registers and memory
// contents may only be written while Initialized; everything else is
// readable at any time.

// RegisterU32 reads register i (0..51) as an unsigned 32-bit value.
func (c *Cpu) RegisterU32(i int) uint32 {
	return c.regs.u32(i)
}

// RegisterI32 reads register i reinterpreted as signed.
func (c *Cpu) RegisterI32(i int) int32 {
	return c.regs.i32(i)
}

// RegisterF32 reads register i reinterpreted as a float32.
func (c *Cpu) RegisterF32(i int) float32 {
	return c.regs.f32(i)
}

func (c *Cpu) checkExplicitWrite(i int) error {
	if i < 0 || i >= 26 {
		return ErrRegisterInvalid
	}
	if c.State() != StateInitialized {
		return ErrInvalidState
	}
	return nil
}

// SetRegisterU32 writes explicit register i. Valid only in Initialized.
func (c *Cpu) SetRegisterU32(i int, v uint32) error {
	if err := c.checkExplicitWrite(i); err != nil {
		return err
	}
	c.regs.setU32(i, v)
	return nil
}

// SetRegisterI32 writes explicit register i as a signed value.
func (c *Cpu) SetRegisterI32(i int, v int32) error {
	if err := c.checkExplicitWrite(i); err != nil {
		return err
	}
	c.regs.setI32(i, v)
	return nil
}

// SetRegisterF32 writes explicit register i as a float32.
func (c *Cpu) SetRegisterF32(i int, v float32) error {
	if err := c.checkExplicitWrite(i); err != nil {
		return err
	}
	c.regs.setF32(i, v)
	return nil
}

// StackContents returns a snapshot copy of stack instance i's contents,
// bottom first.
func (c *Cpu) StackContents(i int) []uint32 {
	out := make([]uint32, len(c.stacks[i].data))
	copy(out, c.stacks[i].data)
	return out
}

// QueueContents returns a snapshot copy of queue instance i's contents,
// head first.
func (c *Cpu) QueueContents(i int) []uint32 {
	out := make([]uint32, len(c.queues[i].data))
	copy(out, c.queues[i].data)
	return out
}

// TapeContents returns a snapshot copy of tape instance i's buffer.
func (c *Cpu) TapeContents(i int) []uint32 {
	out := make([]uint32, len(c.tapes[i].buf))
	copy(out, c.tapes[i].buf)
	return out
}

// MemoryContents returns a snapshot copy of memory instance i.
func (c *Cpu) MemoryContents(i int) []uint32 {
	out := make([]uint32, len(c.memories[i].data))
	copy(out, c.memories[i].data)
	return out
}

// SetMemory overwrites memory instance i wholesale. The replacement must
// match the instance's configured capacity exactly, and is only
// permitted while Initialized.
func (c *Cpu) SetMemory(i int, data []uint32) error {
	if c.State() != StateInitialized {
		return ErrInvalidState
	}
	m := c.memories[i]
	if uint32(len(data)) != m.capacity {
		return ErrOperandInvalid
	}
	copy(m.data, data)
	return nil
}
