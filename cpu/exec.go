package cpu

import (
	"math"
	"math/bits"
	"strconv"
)

// dispatch executes one decoded opcode, reading its operands from r.
// This is the executor's half of the declarative opcode table (§9): the
// mnemonic side lives in encode.go's mnemonics map, this side is keyed
// directly on the Opcode tag switch below.
func (c *Cpu) dispatch(op Opcode, r *paramReader) error {
	switch op {
	case OpNop:
		return nil

	case OpReset:
		c.regs.setU32(r.reg(), 0)
	case OpSet:
		reg := r.reg()
		c.regs.setU32(reg, r.u32())
	case OpISet:
		reg := r.reg()
		c.regs.setI32(reg, r.i32())
	case OpFSet:
		reg := r.reg()
		c.regs.setF32(reg, r.f32())
	case OpCopy:
		dst, src := r.reg(), r.reg()
		c.regs.setU32(dst, c.regs.u32(src))
	case OpCondRst:
		reg := r.reg()
		if c.cond() {
			c.regs.setU32(reg, 0)
		}
	case OpCondSet:
		reg, v := r.reg(), r.u32()
		if c.cond() {
			c.regs.setU32(reg, v)
		}
	case OpCondISet:
		reg, v := r.reg(), r.i32()
		if c.cond() {
			c.regs.setI32(reg, v)
		}
	case OpCondFSet:
		reg, v := r.reg(), r.f32()
		if c.cond() {
			c.regs.setF32(reg, v)
		}
	case OpCondCpy:
		dst, src := r.reg(), r.reg()
		if c.cond() {
			c.regs.setU32(dst, c.regs.u32(src))
		}
	case OpIndCpy:
		return c.execIndCpy()

	case OpAdd:
		return c.binU32(r, func(a, b uint32) uint32 { return a + b })
	case OpSub:
		return c.binU32(r, func(a, b uint32) uint32 { return a - b })
	case OpMul:
		return c.binU32(r, func(a, b uint32) uint32 { return a * b })
	case OpDiv:
		return c.binU32Err(r, func(a, b uint32) (uint32, error) {
			if b == 0 {
				return 0, ErrDivisionByZero
			}
			return a / b, nil
		})
	case OpMod:
		return c.binU32Err(r, func(a, b uint32) (uint32, error) {
			if b == 0 {
				return 0, ErrDivisionByZero
			}
			return a % b, nil
		})
	case OpInc:
		reg := r.reg()
		c.regs.setU32(reg, c.regs.u32(reg)+1)
	case OpDec:
		reg := r.reg()
		c.regs.setU32(reg, c.regs.u32(reg)-1)

	case OpIAdd:
		return c.binI32(r, func(a, b int32) int32 { return a + b })
	case OpISub:
		return c.binI32(r, func(a, b int32) int32 { return a - b })
	case OpIMul:
		return c.binI32(r, func(a, b int32) int32 { return a * b })
	case OpIDiv:
		return c.binI32Err(r, func(a, b int32) (int32, error) {
			if b == 0 {
				return 0, ErrDivisionByZero
			}
			return a / b, nil
		})
	case OpIMod:
		return c.binI32Err(r, func(a, b int32) (int32, error) {
			if b == 0 {
				return 0, ErrDivisionByZero
			}
			return a % b, nil
		})
	case OpIInc:
		reg := r.reg()
		c.regs.setI32(reg, c.regs.i32(reg)+1)
	case OpIDec:
		reg := r.reg()
		c.regs.setI32(reg, c.regs.i32(reg)-1)
	case OpIAbs:
		dst, src := r.reg(), r.reg()
		v := c.regs.i32(src)
		if v == math.MinInt32 {
			c.regs.setI32(dst, v)
		} else if v < 0 {
			c.regs.setI32(dst, -v)
		} else {
			c.regs.setI32(dst, v)
		}

	case OpFAdd:
		return c.binF32(r, func(a, b float32) float32 { return a + b })
	case OpFSub:
		return c.binF32(r, func(a, b float32) float32 { return a - b })
	case OpFMul:
		return c.binF32(r, func(a, b float32) float32 { return a * b })
	case OpFDiv:
		return c.binF32(r, func(a, b float32) float32 { return a / b })
	case OpFPow:
		return c.binF32(r, func(a, b float32) float32 { return float32(math.Pow(float64(a), float64(b))) })
	case OpFAtan2:
		return c.binF32(r, func(a, b float32) float32 { return float32(math.Atan2(float64(a), float64(b))) })
	case OpFAbs:
		return c.unF32(r, func(a float32) float32 { return float32(math.Abs(float64(a))) })
	case OpFSqrt:
		return c.unF32(r, func(a float32) float32 { return float32(math.Sqrt(float64(a))) })
	case OpFLog:
		return c.unF32(r, func(a float32) float32 { return float32(math.Log(float64(a))) })
	case OpFSin:
		return c.unF32(r, func(a float32) float32 { return float32(math.Sin(float64(a))) })
	case OpFCos:
		return c.unF32(r, func(a float32) float32 { return float32(math.Cos(float64(a))) })
	case OpFTan:
		return c.unF32(r, func(a float32) float32 { return float32(math.Tan(float64(a))) })
	case OpFAsin:
		return c.unF32(r, func(a float32) float32 { return float32(math.Asin(float64(a))) })
	case OpFAcos:
		return c.unF32(r, func(a float32) float32 { return float32(math.Acos(float64(a))) })
	case OpFAtan:
		return c.unF32(r, func(a float32) float32 { return float32(math.Atan(float64(a))) })
	case OpFFloor:
		return c.unF32(r, func(a float32) float32 { return float32(math.Floor(float64(a))) })
	case OpFRound:
		return c.unF32(r, func(a float32) float32 { return float32(math.Round(float64(a))) })
	case OpFCeil:
		return c.unF32(r, func(a float32) float32 { return float32(math.Ceil(float64(a))) })
	case OpS2F:
		dst, src := r.reg(), r.reg()
		c.regs.setF32(dst, float32(c.regs.i32(src)))
	case OpU2F:
		dst, src := r.reg(), r.reg()
		c.regs.setF32(dst, float32(c.regs.u32(src)))
	case OpF2S:
		dst, src := r.reg(), r.reg()
		c.regs.setI32(dst, int32(c.regs.f32(src)))
	case OpF2U:
		dst, src := r.reg(), r.reg()
		c.regs.setU32(dst, uint32(c.regs.f32(src)))

	case OpAnd:
		return c.binBool(r, func(a, b bool) bool { return a && b })
	case OpOr:
		return c.binBool(r, func(a, b bool) bool { return a || b })
	case OpXor:
		return c.binBool(r, func(a, b bool) bool { return a != b })
	case OpNot:
		dst, src := r.reg(), r.reg()
		c.regs.setU32(dst, boolToU32(c.regs.u32(src) == 0))
	case OpInv:
		reg := r.reg()
		c.regs.setU32(reg, boolToU32(c.regs.u32(reg) == 0))
	case OpShl:
		return c.binU32(r, func(a, b uint32) uint32 { return a << (b & 0x1f) })
	case OpShr:
		return c.binU32(r, func(a, b uint32) uint32 { return a >> (b & 0x1f) })
	case OpRol:
		return c.binU32(r, func(a, b uint32) uint32 { return bits.RotateLeft32(a, int(b%32)) })
	case OpRor:
		return c.binU32(r, func(a, b uint32) uint32 { return bits.RotateLeft32(a, -int(b%32)) })
	case OpBAnd:
		return c.binU32(r, func(a, b uint32) uint32 { return a & b })
	case OpBOr:
		return c.binU32(r, func(a, b uint32) uint32 { return a | b })
	case OpBXor:
		return c.binU32(r, func(a, b uint32) uint32 { return a ^ b })
	case OpBNot:
		dst, src := r.reg(), r.reg()
		c.regs.setU32(dst, ^c.regs.u32(src))
	case OpBInv:
		reg := r.reg()
		c.regs.setU32(reg, ^c.regs.u32(reg))

	case OpEq:
		return c.cmpU32(r, func(a, b uint32) bool { return a == b })
	case OpNeq:
		return c.cmpU32(r, func(a, b uint32) bool { return a != b })
	case OpLt:
		return c.cmpU32(r, func(a, b uint32) bool { return a < b })
	case OpGt:
		return c.cmpU32(r, func(a, b uint32) bool { return a > b })
	case OpLte:
		return c.cmpU32(r, func(a, b uint32) bool { return a <= b })
	case OpGte:
		return c.cmpU32(r, func(a, b uint32) bool { return a >= b })
	case OpIEq:
		return c.cmpI32(r, func(a, b int32) bool { return a == b })
	case OpINeq:
		return c.cmpI32(r, func(a, b int32) bool { return a != b })
	case OpILt:
		return c.cmpI32(r, func(a, b int32) bool { return a < b })
	case OpIGt:
		return c.cmpI32(r, func(a, b int32) bool { return a > b })
	case OpILte:
		return c.cmpI32(r, func(a, b int32) bool { return a <= b })
	case OpIGte:
		return c.cmpI32(r, func(a, b int32) bool { return a >= b })
	case OpFEq:
		return c.cmpF32(r, func(a, b float32) bool { return a == b })
	case OpFNeq:
		return c.cmpF32(r, func(a, b float32) bool { return a != b })
	case OpFLt:
		return c.cmpF32(r, func(a, b float32) bool { return a < b })
	case OpFGt:
		return c.cmpF32(r, func(a, b float32) bool { return a > b })
	case OpFLte:
		return c.cmpF32(r, func(a, b float32) bool { return a <= b })
	case OpFGte:
		return c.cmpF32(r, func(a, b float32) bool { return a >= b })
	case OpFIsNan:
		return c.unBoolF32(r, func(a float32) bool { return math.IsNaN(float64(a)) })
	case OpFIsInf:
		return c.unBoolF32(r, func(a float32) bool { return math.IsInf(float64(a), 0) })
	case OpFIsFin:
		return c.unBoolF32(r, func(a float32) bool { return !math.IsNaN(float64(a)) && !math.IsInf(float64(a), 0) })
	case OpFIsNorm:
		return c.unBoolF32(r, isNormalFloat32)
	case OpTest:
		dst, src := r.reg(), r.reg()
		c.regs.setU32(dst, boolToU32(c.regs.u32(src) != 0))

	case OpSLoad:
		dst, inst := r.reg(), r.u8()
		v, err := c.stacks[inst].load()
		if err != nil {
			return err
		}
		c.regs.setU32(dst, v)
	case OpSStore:
		inst, src := r.u8(), r.reg()
		return c.stacks[inst].store(c.regs.u32(src))
	case OpPush:
		inst, src := r.u8(), r.reg()
		return c.stacks[inst].push(c.regs.u32(src))
	case OpPop:
		dst, inst := r.reg(), r.u8()
		v, err := c.stacks[inst].pop()
		if err != nil {
			return err
		}
		c.regs.setU32(dst, v)
	case OpSSwap:
		a, b := r.u8(), r.u8()
		c.stacks[a], c.stacks[b] = c.stacks[b], c.stacks[a]
	case OpIndSSwap:
		return c.indSwap(func(a, b int) { c.stacks[a], c.stacks[b] = c.stacks[b], c.stacks[a] })
	case OpSStat:
		inst := r.u8()
		c.regs.writeStat(c.stacks[inst].stat())
	case OpIndSStat:
		return c.indStat(func(i int) stat { return c.stacks[i].stat() })

	case OpQLoad:
		dst, inst := r.reg(), r.u8()
		v, err := c.queues[inst].load()
		if err != nil {
			return err
		}
		c.regs.setU32(dst, v)
	case OpQStore:
		inst, src := r.u8(), r.reg()
		return c.queues[inst].store(c.regs.u32(src))
	case OpEnqueue:
		inst, src := r.u8(), r.reg()
		return c.queues[inst].enqueue(c.regs.u32(src))
	case OpDequeue:
		dst, inst := r.reg(), r.u8()
		v, err := c.queues[inst].dequeue()
		if err != nil {
			return err
		}
		c.regs.setU32(dst, v)
	case OpQSwap:
		a, b := r.u8(), r.u8()
		c.queues[a], c.queues[b] = c.queues[b], c.queues[a]
	case OpIndQSwap:
		return c.indSwap(func(a, b int) { c.queues[a], c.queues[b] = c.queues[b], c.queues[a] })
	case OpQStat:
		inst := r.u8()
		c.regs.writeStat(c.queues[inst].stat())
	case OpIndQStat:
		return c.indStat(func(i int) stat { return c.queues[i].stat() })

	case OpTLoad:
		dst, inst := r.reg(), r.u8()
		v, err := c.tapes[inst].load()
		if err != nil {
			return err
		}
		c.regs.setU32(dst, v)
	case OpTStore:
		inst, src := r.u8(), r.reg()
		return c.tapes[inst].store(c.regs.u32(src))
	case OpLeft:
		inst := r.u8()
		return c.tapes[inst].left()
	case OpRight:
		inst := r.u8()
		return c.tapes[inst].right()
	case OpCenter:
		inst := r.u8()
		return c.tapes[inst].center()
	case OpTSwap:
		a, b := r.u8(), r.u8()
		c.tapes[a], c.tapes[b] = c.tapes[b], c.tapes[a]
	case OpIndTSwap:
		return c.indSwap(func(a, b int) { c.tapes[a], c.tapes[b] = c.tapes[b], c.tapes[a] })
	case OpTStat:
		inst := r.u8()
		c.regs.writeStat(c.tapes[inst].stat())
	case OpIndTStat:
		return c.indStat(func(i int) stat { return c.tapes[i].stat() })

	case OpMLoad:
		dst, inst, addr := r.reg(), r.u8(), r.u32()
		v, err := c.memories[inst].load(addr)
		if err != nil {
			return err
		}
		c.regs.setU32(dst, v)
	case OpIndLoad:
		dst, inst := r.reg(), r.u8()
		addr := c.regs.u32(regIndexI)
		v, err := c.memories[inst].load(addr)
		if err != nil {
			return err
		}
		c.regs.setU32(dst, v)
	case OpIndIndLoad:
		dst := r.reg()
		inst, err := c.indIndex(regIndexJ)
		if err != nil {
			return err
		}
		v, err := c.memories[inst].load(c.regs.u32(regIndexI))
		if err != nil {
			return err
		}
		c.regs.setU32(dst, v)
	case OpMStore:
		inst, addr, src := r.u8(), r.u32(), r.reg()
		return c.memories[inst].store(addr, c.regs.u32(src))
	case OpIndStore:
		inst, src := r.u8(), r.reg()
		return c.memories[inst].store(c.regs.u32(regIndexI), c.regs.u32(src))
	case OpIndIndStore:
		src := r.reg()
		inst, err := c.indIndex(regIndexJ)
		if err != nil {
			return err
		}
		return c.memories[inst].store(c.regs.u32(regIndexI), c.regs.u32(src))
	case OpMSwap:
		a, b := r.u8(), r.u8()
		c.memories[a], c.memories[b] = c.memories[b], c.memories[a]
	case OpIndMSwap:
		return c.indSwap(func(a, b int) { c.memories[a], c.memories[b] = c.memories[b], c.memories[a] })
	case OpMStat:
		inst := r.u8()
		c.regs.writeStat(c.memories[inst].stat())
	case OpIndMStat:
		return c.indStat(func(i int) stat { return c.memories[i].stat() })

	case OpJump:
		c.pc = r.u32()
	case OpCondJump:
		target := r.u32()
		if c.cond() {
			c.pc = target
		}
	case OpCall:
		target := r.u32()
		if err := c.calls.push(c.pc); err != nil {
			return err
		}
		c.pc = target
	case OpCondCall:
		target := r.u32()
		if c.cond() {
			if err := c.calls.push(c.pc); err != nil {
				return err
			}
			c.pc = target
		}
	case OpReturn:
		target, err := c.calls.pop()
		if err != nil {
			return err
		}
		c.pc = target
	case OpCondReturn:
		if c.cond() {
			target, err := c.calls.pop()
			if err != nil {
				return err
			}
			c.pc = target
		}

	case OpRStat:
		c.regs.writeStat(c.io.readStat())
	case OpWStat:
		c.regs.writeStat(c.io.writeStat())
	case OpRead:
		return c.readToken(func(tok string) error {
			v, err := strconv.ParseUint(tok, 10, 32)
			if err != nil {
				return ErrReadMalformed
			}
			c.regs.setU32(regIOValue, uint32(v))
			return nil
		})
	case OpIRead:
		return c.readToken(func(tok string) error {
			v, err := strconv.ParseInt(tok, 10, 32)
			if err != nil {
				return ErrReadMalformed
			}
			c.regs.setI32(regIOValue, int32(v))
			return nil
		})
	case OpFRead:
		return c.readToken(func(tok string) error {
			v, err := strconv.ParseFloat(tok, 32)
			if err != nil {
				return ErrReadMalformed
			}
			c.regs.setF32(regIOValue, float32(v))
			return nil
		})
	case OpCRead:
		return c.readToken(func(tok string) error {
			if len(tok) != 1 {
				return ErrReadMalformed
			}
			c.regs.setU32(regIOValue, uint32(tok[0]))
			return nil
		})
	case OpReadln:
		if c.limits.Input == nil {
			c.regs.setU32(regCondition, 0)
			return nil
		}
		line, ok := c.limits.Input()
		if !ok {
			c.regs.setU32(regCondition, 0)
			return nil
		}
		c.io.loadLine(line)
		c.regs.setU32(regCondition, 1)
	case OpRReset:
		c.io.resetRead()
	case OpRClear:
		c.io.clearRead()
	case OpWrite:
		c.io.pushWrite(strconv.FormatUint(uint64(c.regs.u32(regIOValue)), 10))
	case OpIWrite:
		c.io.pushWrite(strconv.FormatInt(int64(c.regs.i32(regIOValue)), 10))
	case OpFWrite:
		c.io.pushWrite(strconv.FormatFloat(float64(c.regs.f32(regIOValue)), 'g', -1, 32))
	case OpCWrite:
		c.io.pushWrite(string(rune(byte(c.regs.u32(regIOValue)))))
	case OpWriteln:
		line := c.io.flushLine()
		if c.limits.Output != nil && !c.limits.Output(line) {
			return ErrOutputFailed
		}
	case OpWReset:
		c.io.resetWrite()
	case OpWClear:
		c.io.clearWrite()
	case OpRWSwap:
		c.io.swap()

	case OpTimer:
		hi, lo := r.reg(), r.reg()
		c.regs.setU32(lo, uint32(c.step))
		c.regs.setU32(hi, uint32(c.step>>32))
	case OpRdSeedAny:
		c.rng.seed(c.step*0x9e3779b97f4a7c15 + 1)
	case OpRdSeed:
		a, b, cc, d := r.reg(), r.reg(), r.reg(), r.reg()
		seed := (uint64(c.regs.u32(a))<<32 | uint64(c.regs.u32(b))) ^ (uint64(c.regs.u32(cc))<<32 | uint64(c.regs.u32(d)))
		c.rng.seed(seed)
	case OpRand:
		dst := r.reg()
		c.regs.setU32(dst, c.rng.nextU32())
	case OpIRand:
		dst := r.reg()
		c.regs.setI32(dst, c.rng.nextI32())
	case OpFRand:
		dst := r.reg()
		c.regs.setF32(dst, c.rng.nextF32())
	case OpProfiling:
		c.profiling = r.u8() != 0
	case OpTracing:
		c.tracing = r.u8() != 0
	case OpBreakpoint:
		c.setState(StateInterrupted)
	case OpTerminate:
		return ErrExplicitTerminate

	case OpExit:
		c.setState(StateFinished)
	case OpUnreachable:
		return ErrFellOffFunction

	default:
		return ErrMnemonicUnknown
	}
	return nil
}

func (c *Cpu) cond() bool {
	return c.regs.u32(regCondition) != 0
}

func (r *paramReader) reg() int {
	return int(r.u8())
}

func (c *Cpu) indIndex(reg int) (int, error) {
	v := c.regs.u32(reg)
	if v >= instancesPerFamily {
		return 0, ErrIndexOutOfRange
	}
	return int(v), nil
}

func (c *Cpu) indSwap(swap func(a, b int)) error {
	a, err := c.indIndex(regIndexI)
	if err != nil {
		return err
	}
	b, err := c.indIndex(regIndexJ)
	if err != nil {
		return err
	}
	swap(a, b)
	return nil
}

func (c *Cpu) indStat(statOf func(i int) stat) error {
	i, err := c.indIndex(regIndexI)
	if err != nil {
		return err
	}
	c.regs.writeStat(statOf(i))
	return nil
}

// execIndCpy implements indcpy: a register-to-register copy where both
// register indices (0..51) are themselves held in implicit registers,
// the destination in d and the source in s.
func (c *Cpu) execIndCpy() error {
	dst := c.regs.u32(regIndexD)
	src := c.regs.u32(regIndexS)
	if dst >= registerCount || src >= registerCount {
		return ErrIndexOutOfRange
	}
	c.regs.setU32(int(dst), c.regs.u32(int(src)))
	return nil
}

func (c *Cpu) readToken(apply func(tok string) error) error {
	tok, err := c.io.nextToken()
	if err != nil {
		return err
	}
	return apply(tok)
}

func (c *Cpu) binU32(r *paramReader, f func(a, b uint32) uint32) error {
	dst, a, b := r.reg(), r.reg(), r.reg()
	c.regs.setU32(dst, f(c.regs.u32(a), c.regs.u32(b)))
	return nil
}

func (c *Cpu) binU32Err(r *paramReader, f func(a, b uint32) (uint32, error)) error {
	dst, a, b := r.reg(), r.reg(), r.reg()
	v, err := f(c.regs.u32(a), c.regs.u32(b))
	if err != nil {
		return err
	}
	c.regs.setU32(dst, v)
	return nil
}

func (c *Cpu) binI32(r *paramReader, f func(a, b int32) int32) error {
	dst, a, b := r.reg(), r.reg(), r.reg()
	c.regs.setI32(dst, f(c.regs.i32(a), c.regs.i32(b)))
	return nil
}

func (c *Cpu) binI32Err(r *paramReader, f func(a, b int32) (int32, error)) error {
	dst, a, b := r.reg(), r.reg(), r.reg()
	v, err := f(c.regs.i32(a), c.regs.i32(b))
	if err != nil {
		return err
	}
	c.regs.setI32(dst, v)
	return nil
}

func (c *Cpu) binF32(r *paramReader, f func(a, b float32) float32) error {
	dst, a, b := r.reg(), r.reg(), r.reg()
	c.regs.setF32(dst, f(c.regs.f32(a), c.regs.f32(b)))
	return nil
}

func (c *Cpu) unF32(r *paramReader, f func(a float32) float32) error {
	dst, a := r.reg(), r.reg()
	c.regs.setF32(dst, f(c.regs.f32(a)))
	return nil
}

func (c *Cpu) binBool(r *paramReader, f func(a, b bool) bool) error {
	dst, a, b := r.reg(), r.reg(), r.reg()
	c.regs.setU32(dst, boolToU32(f(c.regs.u32(a) != 0, c.regs.u32(b) != 0)))
	return nil
}

func (c *Cpu) cmpU32(r *paramReader, f func(a, b uint32) bool) error {
	dst, a, b := r.reg(), r.reg(), r.reg()
	c.regs.setU32(dst, boolToU32(f(c.regs.u32(a), c.regs.u32(b))))
	return nil
}

func (c *Cpu) cmpI32(r *paramReader, f func(a, b int32) bool) error {
	dst, a, b := r.reg(), r.reg(), r.reg()
	c.regs.setU32(dst, boolToU32(f(c.regs.i32(a), c.regs.i32(b))))
	return nil
}

func (c *Cpu) cmpF32(r *paramReader, f func(a, b float32) bool) error {
	dst, a, b := r.reg(), r.reg(), r.reg()
	c.regs.setU32(dst, boolToU32(f(c.regs.f32(a), c.regs.f32(b))))
	return nil
}

func (c *Cpu) unBoolF32(r *paramReader, f func(a float32) bool) error {
	dst, a := r.reg(), r.reg()
	c.regs.setU32(dst, boolToU32(f(c.regs.f32(a))))
	return nil
}

// isNormalFloat32 matches host isnormal(): finite, nonzero, and not
// subnormal.
func isNormalFloat32(f float32) bool {
	bits := math.Float32bits(f)
	exp := (bits >> 23) & 0xff
	return exp != 0 && exp != 0xff
}
