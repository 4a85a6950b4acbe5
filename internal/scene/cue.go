package scene

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError is a CUE compilation failure with its source position.
type CompileError struct {
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// CompileCUE evaluates a CUE scene and returns it as JSON. The value must be
// concrete: every field resolved, no open constraints left.
//
// CUE lets a scene share definitions between instances:
//
//	#Hero: {hp: 100, name: string}
//	viewModels: [{name: "Hero", instances: [{name: "Ada", values: #Hero & {name: "Ada"}}]}]
func CompileCUE(filename string, src []byte) ([]byte, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}
	return data, nil
}

// formatCUEError keeps the first error and its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	ce := &CompileError{Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
