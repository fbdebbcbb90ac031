package mir

import (
	"fmt"

	"github.com/zc-lang/zc/internal/names"
)

// Check verifies the well-formedness invariants lowering is supposed to
// guarantee by construction (spec §3 P5, §3 "Return's arity matches").
// It exists as a standalone query so tests (and a future `--verify-mir`
// CLI flag) can catch a lowering bug before it reaches the partial
// evaluator, rather than only by its downstream symptoms.
//
// Grounded on the mir-well-formedness checker supplemented from
// original_source/zetah11-zippy.
func Check(d *Decls) []error {
	var errs []error
	for _, vd := range d.Values {
		seen := make(map[names.Name]bool)
		checkBlock(vd.Body, vd.ReturnArity, seen, &errs)
	}
	return errs
}

func checkBlock(b *Block, arity int, seen map[names.Name]bool, errs *[]error) {
	if b == nil {
		*errs = append(*errs, fmt.Errorf("nil block"))
		return
	}
	for _, s := range b.Statements {
		for _, n := range definedNames(s) {
			if seen[n] {
				*errs = append(*errs, fmt.Errorf("name %v bound more than once (SSA violation)", n))
				continue
			}
			seen[n] = true
		}
		if fn, ok := s.(Function); ok {
			checkBlock(fn.Body, fn.ReturnArity, seen, errs)
		}
	}
	switch br := b.Branch.(type) {
	case Return:
		if len(br.Values) != arity {
			*errs = append(*errs, fmt.Errorf("return arity mismatch: got %d values, want %d", len(br.Values), arity))
		}
	case Jump:
		// structurally fine; reachability of the join is a partial-eval
		// concern (documented TODO, spec §4.5/§9), not a well-formedness
		// one.
	case nil:
		*errs = append(*errs, fmt.Errorf("block missing a terminal branch"))
	}
}

func definedNames(s Statement) []names.Name {
	switch s := s.(type) {
	case Apply:
		return s.Names
	case Tuple:
		return []names.Name{s.Name}
	case Proj:
		return []names.Name{s.Name}
	case Function:
		return []names.Name{s.Name}
	case Coerce:
		return []names.Name{s.Name}
	case Join:
		return nil
	default:
		return nil
	}
}
