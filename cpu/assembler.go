package cpu

import (
	"bufio"
	"io"
	"log"
	"strings"
)

// Assembler is a single-pass assembler: it lexes, encodes, and tracks
// symbols in one scan over the source (C1-C3), then performs a final
// fixup pass once the whole source has been read.
type Assembler struct {
	Verbose bool // If set, logs every source line as it is scanned.
}

// Parse compiles a full program from source text into an immutable
// Program artifact (C4).
func (asm *Assembler) Parse(input io.Reader) (*Program, error) {
	enc := newEncoder()

	var sourceText []string

	scanner := bufio.NewScanner(input)
	lineno := 0
	for scanner.Scan() {
		lineno++
		raw := scanner.Text()
		sourceText = append(sourceText, raw)

		if asm.Verbose {
			log.Printf("qasm: %d: %s", lineno, raw)
		}

		code, err := decomment(raw)
		if err != nil {
			return nil, &ErrSyntax{LineNo: lineno, Line: raw, Err: err}
		}
		if code == "" {
			continue
		}

		tokens := strings.Split(code, " ")
		mnemonic := tokens[0]
		args := tokens[1:]

		if err := asm.dispatch(enc, mnemonic, args, lineno); err != nil {
			return nil, &ErrSyntax{LineNo: lineno, Line: raw, Err: err}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if err := enc.finish(lineno); err != nil {
		return nil, err
	}

	return &Program{
		opcodes:         enc.opcodes,
		paramsOffsets:   enc.paramsOffsets,
		sourceLines:     enc.sourceLines,
		functionIndices: enc.functionIndices,
		params:          enc.params.Bytes(),
		functionNames:   enc.functionNames,
		sourceCode:      sourceText,
	}, nil
}

func (asm *Assembler) dispatch(enc *encoder, mnemonic string, args []string, lineno int) error {
	switch mnemonic {
	case "function":
		if len(args) != 1 {
			return ErrOperandMissing
		}
		return enc.beginFunction(args[0], lineno)
	case "label":
		if len(args) != 1 {
			return ErrOperandMissing
		}
		return enc.beginLabel(args[0], lineno)
	}

	h, ok := mnemonics[mnemonic]
	if !ok {
		return ErrMnemonicUnknown
	}
	return h(enc, lineno, args)
}
