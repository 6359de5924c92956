package patch

import (
	"encoding/json"
	"fmt"

	jsondiff "github.com/wI2L/jsondiff"
)

// rootWrapper gives the root of a render tree a stable parent key so a
// whole-document type change diffs as a nested replace instead of a
// document-root replace. Clients strip the "r" wrapper before applying
// the patch to their local document root. A nil tree omits "r", so the
// first render from the empty baseline diffs as an add of "/r".
type rootWrapper struct {
	R any `json:"r,omitempty"`
}

// Diff computes the compressed JSON-Patch between old and new, as
// produced by rendering two successive assign states. The JSON-Patch
// algorithm itself is delegated to github.com/wI2L/jsondiff, a
// conforming RFC6902 differ.
func Diff(old, new any) ([]CompressedOp, error) {
	ops, err := jsondiff.Compare(rootWrapper{R: old}, rootWrapper{R: new})
	if err != nil {
		return nil, fmt.Errorf("patch: diff failed: %w", err)
	}
	logical := make([]Op, 0, len(ops))
	for _, o := range ops {
		kind, err := opcodeFromRFC6902(o.Type)
		if err != nil {
			return nil, err
		}
		logical = append(logical, Op{
			Kind:  kind,
			Path:  o.Path,
			Value: o.Value,
			From:  o.From,
		})
	}
	return Compress(logical), nil
}

func opcodeFromRFC6902(t string) (Opcode, error) {
	switch t {
	case "add":
		return OpAdd, nil
	case "remove":
		return OpRemove, nil
	case "replace":
		return OpReplace, nil
	case "test":
		return OpTest, nil
	case "move":
		return OpMove, nil
	case "copy":
		return OpCopy, nil
	default:
		return 0, fmt.Errorf("patch: differ produced unknown op %q", t)
	}
}

// DiffBytes is a convenience used by tests and the test-harness's
// render-sync barrier to compare two already-marshaled trees.
func DiffBytes(oldJSON, newJSON []byte) ([]CompressedOp, error) {
	var old, nw any
	if err := json.Unmarshal(oldJSON, &old); err != nil {
		return nil, fmt.Errorf("patch: unmarshal old: %w", err)
	}
	if err := json.Unmarshal(newJSON, &nw); err != nil {
		return nil, fmt.Errorf("patch: unmarshal new: %w", err)
	}
	return Diff(old, nw)
}
