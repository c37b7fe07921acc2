package cpu

// registerCount is the size of the register file: 26 explicit registers
// A-Z followed by 26 implicit registers a-z.
const registerCount = 52

// instancesPerFamily is the number of named instances (A-Z-subset) each
// structure family may declare, per original_source/sources/libqasm/limits.cpp.
const instancesPerFamily = 26

// parseRegister resolves a single-letter register token to its index in
// the flat 52-entry register file. Explicit registers 'A'-'Z' map to
// 0-25; implicit registers 'a'-'z' map to 26-51.
//
// original_source/sources/libqasm/compiler.cpp's own getRegister() writes
// n[0]-'z'+26 for the lowercase branch, which does not actually invert to
// 26-51 for 'a'..'z'. cpu.cpp's runtime call sites ('z'-'a'+26, 'd'-'a'+26,
// 's'-'a'+26) use the arithmetic that does, so that is the mapping used
// here.
func parseRegister(tok string) (int, error) {
	if len(tok) == 0 {
		return 0, ErrRegisterMissing
	}
	if len(tok) != 1 {
		return 0, ErrRegisterLength
	}
	c := tok[0]
	switch {
	case c >= 'A' && c <= 'Z':
		return int(c - 'A'), nil
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 26, nil
	default:
		return 0, ErrRegisterInvalid
	}
}

// structureRef names one structure instance: a family plus an instance
// index in [0, instancesPerFamily), optionally paired with a fixed
// address parsed elsewhere.
type structureRef struct {
	Family   Family
	Instance int
}

// parseStructure resolves a two-character structure token such as "SA" or
// "MC" to its family and instance index, per getStructure() in
// original_source/sources/libqasm/compiler.cpp.
func parseStructure(tok string) (structureRef, error) {
	if len(tok) == 0 {
		return structureRef{}, ErrStructureMissing
	}
	if len(tok) != 2 {
		return structureRef{}, ErrStructureLength
	}
	fam, ok := structureTypeByte(tok[0])
	if !ok {
		return structureRef{}, ErrStructureType
	}
	c := tok[1]
	if c < 'A' || c >= 'A'+instancesPerFamily {
		return structureRef{}, ErrStructureInstance
	}
	return structureRef{Family: fam, Instance: int(c - 'A')}, nil
}

// isNameStart reports whether c may begin a function or label name:
// function and label names are distinguished from register/structure
// tokens by always starting with a capital letter.
func isNameStart(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

// isNameChar reports whether c may appear after the first character of a
// function or label name.
func isNameChar(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

const (
	minNameLength = 3
	maxNameLength = 20
)

// validateName checks a function or label name against the naming rules
// shared by both (C1), matching the intent of validateName() in
// original_source/sources/libqasm/compiler.cpp.
func validateName(name string) error {
	if len(name) < minNameLength || len(name) > maxNameLength {
		return ErrNameLength
	}
	if !isNameStart(name[0]) {
		return ErrNameStart
	}
	for i := 1; i < len(name); i++ {
		if !isNameChar(name[i]) {
			return ErrNameCharacter
		}
	}
	return nil
}
