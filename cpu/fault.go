package cpu

// newFault builds the ErrFault context for a failure observed while
// executing the instruction at pc, tying it back to the program's
// parallel per-instruction tables (C9).
func newFault(prog *Program, pc uint32, step uint64, err error) *ErrFault {
	return &ErrFault{
		Function: prog.FunctionName(int(prog.functionIndexAt(pc))),
		LineNo:   int(prog.sourceLineAt(pc)),
		Step:     step,
		Err:      err,
	}
}
