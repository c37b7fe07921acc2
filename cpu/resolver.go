package cpu

// beginFunction implements the "function Name" directive (C3): it closes
// the previous scope with a synthesized opcode, then opens function
// index len(functionNames) under that name.
func (e *encoder) beginFunction(name string, line int) error {
	if err := validateName(name); err != nil {
		return err
	}
	for _, existing := range e.functionNames {
		if existing == name {
			return ErrFunctionDuplicate
		}
	}

	e.synthesizeScopeExit(line)

	e.curFunction = uint32(len(e.functionNames))
	e.functionNames = append(e.functionNames, name)

	// The function's entry pc is recorded scope-independently so that
	// call/condcall from any other function's scope can resolve it; see
	// functionEntries on encoder.
	e.functionEntries[name] = e.pc()

	// The implicit label (N, N) from §4.3 additionally lets a function
	// jump to its own start by name from within its own body; it always
	// resolves to the first instruction that follows.
	return e.defineLabel(name, line)
}

// beginLabel implements the "label Name" directive.
func (e *encoder) beginLabel(name string, line int) error {
	if err := validateName(name); err != nil {
		return err
	}
	return e.defineLabel(name, line)
}

// synthesizeScopeExit closes the current scope per §4.3: leaving function
// 0 is normal program termination (exit); leaving any other function
// body without an explicit return is a fault, forced by a sentinel
// opcode no user program can write directly.
func (e *encoder) synthesizeScopeExit(line int) {
	if e.curFunction == 0 {
		e.emit(OpExit, line)
	} else {
		e.emit(OpUnreachable, line)
	}
}

// finish closes the final scope and resolves every recorded fixup
// against the label table now that the whole source has been scanned.
// lastLine is the source's final line number, attributed to the
// synthesized scope-exit opcode.
func (e *encoder) finish(lastLine int) error {
	e.synthesizeScopeExit(lastLine)

	for _, fx := range e.fixups {
		target, ok := e.labels[labelKey{function: fx.function, name: fx.label}]
		if !ok {
			return &ErrLink{
				Function: e.functionNames[fx.function],
				Label:    fx.label,
				LineNo:   fx.line,
				Err:      ErrLabelMissing,
			}
		}
		e.params.patchU32(fx.offset, target)
	}

	for _, fx := range e.callFixups {
		target, ok := e.functionEntries[fx.label]
		if !ok {
			return &ErrLink{
				Function: e.functionNames[fx.function],
				Label:    fx.label,
				LineNo:   fx.line,
				Err:      ErrLabelMissing,
			}
		}
		e.params.patchU32(fx.offset, target)
	}
	return nil
}
