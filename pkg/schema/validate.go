package schema

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Validator checks records against a CUE schema. Schemas are open: records
// may carry fields the schema does not mention.
type Validator struct {
	mu     sync.Mutex // cue.Context is not safe for concurrent use
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator compiles CUE source into a Validator.
func NewValidator(src string) (*Validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{ctx: ctx, schema: v}, nil
}

// Validate returns an error wrapping ErrInvalidRecord when rec does not satisfy the schema.
func (v *Validator) Validate(rec Record) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	value := v.ctx.Encode(map[string]any(rec))
	if err := value.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := v.schema.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}
