// Package patch compresses RFC6902 JSON-Patch operations into a flat
// positional array encoding and computes that encoding from a pair of
// JSON trees. The flat array shape mirrors the rest of the wire
// protocol's array-tuple envelopes: compact and position-stable rather
// than keyed by field name.
package patch

import "fmt"

// Opcode identifies a JSON-Patch operation kind in its compressed form.
type Opcode int

const (
	OpRemove  Opcode = 0
	OpAdd     Opcode = 1
	OpReplace Opcode = 2
	OpTest    Opcode = 3
	OpMove    Opcode = 4
	OpCopy    Opcode = 5
)

func (o Opcode) String() string {
	switch o {
	case OpRemove:
		return "remove"
	case OpAdd:
		return "add"
	case OpReplace:
		return "replace"
	case OpTest:
		return "test"
	case OpMove:
		return "move"
	case OpCopy:
		return "copy"
	default:
		return fmt.Sprintf("opcode(%d)", int(o))
	}
}

// Op is one logical JSON-Patch operation before compression: one of
// add|remove|replace|test|move|copy with {path, value?|from?}.
type Op struct {
	Kind  Opcode
	Path  string
	Value any    // for add|replace|test
	From  string // for move|copy
}

// CompressedOp is the flat, position-stable triple the Serializer emits:
// [opcode, path, third?]. Third is Value for add|replace|test, From for
// move|copy, and absent for remove.
type CompressedOp []any

// Compress compresses a list of logical ops into the flat array
// encoding.
func Compress(ops []Op) []CompressedOp {
	out := make([]CompressedOp, 0, len(ops))
	for _, op := range ops {
		switch op.Kind {
		case OpRemove:
			out = append(out, CompressedOp{int(op.Kind), op.Path})
		case OpAdd, OpReplace, OpTest:
			out = append(out, CompressedOp{int(op.Kind), op.Path, op.Value})
		case OpMove, OpCopy:
			out = append(out, CompressedOp{int(op.Kind), op.Path, op.From})
		default:
			// Unknown opcode is a fatal protocol error on the producing
			// side too: never hand the wire an op we can't decode back.
			panic(fmt.Sprintf("patch: unknown opcode %d", op.Kind))
		}
	}
	return out
}

// ErrUnknownOpcode is a fatal protocol error: the wire contained an
// opcode this implementation does not understand.
type ErrUnknownOpcode struct{ Opcode int }

func (e ErrUnknownOpcode) Error() string {
	return fmt.Sprintf("patch: unknown opcode %d", e.Opcode)
}

// ErrTruncated is a fatal protocol error: a compressed op's flat array
// was shorter than its opcode requires.
type ErrTruncated struct{ Opcode int }

func (e ErrTruncated) Error() string {
	return fmt.Sprintf("patch: truncated operation for opcode %d", e.Opcode)
}

// Decompress is the inverse of Compress: it peels each flat array by
// opcode back into a logical Op. Unknown opcodes and truncated suffixes
// are fatal protocol errors.
func Decompress(in []CompressedOp) ([]Op, error) {
	out := make([]Op, 0, len(in))
	for _, c := range in {
		if len(c) < 2 {
			return nil, ErrTruncated{Opcode: -1}
		}
		codeF, ok := asNumber(c[0])
		if !ok {
			return nil, fmt.Errorf("patch: opcode must be a number, got %T", c[0])
		}
		code := Opcode(codeF)
		path, ok := c[1].(string)
		if !ok {
			return nil, fmt.Errorf("patch: path must be a string, got %T", c[1])
		}
		switch code {
		case OpRemove:
			out = append(out, Op{Kind: code, Path: path})
		case OpAdd, OpReplace, OpTest:
			if len(c) < 3 {
				return nil, ErrTruncated{Opcode: int(code)}
			}
			out = append(out, Op{Kind: code, Path: path, Value: c[2]})
		case OpMove, OpCopy:
			if len(c) < 3 {
				return nil, ErrTruncated{Opcode: int(code)}
			}
			from, ok := c[2].(string)
			if !ok {
				return nil, fmt.Errorf("patch: from must be a string, got %T", c[2])
			}
			out = append(out, Op{Kind: code, Path: path, From: from})
		default:
			return nil, ErrUnknownOpcode{Opcode: int(code)}
		}
	}
	return out, nil
}

// asNumber accepts both int (constructed in-process) and float64 (decoded
// from JSON) opcode representations.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
