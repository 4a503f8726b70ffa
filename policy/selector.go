package policy

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/recid-dev/recid/types"
)

// Selector decides, per field, whether it participates in content hashing.
// A Selector is built once per Assign call and is safe for concurrent use.
type Selector struct {
	include map[string]struct{}
	exclude map[string]struct{}
	program cel.Program
}

// NewSelector compiles a field selection. The CEL filter, when present, is
// compiled against two string variables, name and kind, and must evaluate to
// a boolean.
func NewSelector(sel FieldSelection) (*Selector, error) {
	s := &Selector{}

	if len(sel.Include) > 0 {
		s.include = make(map[string]struct{}, len(sel.Include))
		for _, name := range sel.Include {
			s.include[name] = struct{}{}
		}
	}
	if len(sel.Exclude) > 0 {
		s.exclude = make(map[string]struct{}, len(sel.Exclude))
		for _, name := range sel.Exclude {
			s.exclude[name] = struct{}{}
		}
	}

	if sel.Filter != "" {
		env, err := cel.NewEnv(
			cel.Variable("name", cel.StringType),
			cel.Variable("kind", cel.StringType),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: creating filter environment: %v", ErrInvalidPolicy, err)
		}

		ast, iss := env.Compile(sel.Filter)
		if iss.Err() != nil {
			return nil, fmt.Errorf("%w: compiling filter: %v", ErrInvalidPolicy, iss.Err())
		}
		if ast.OutputType() != cel.BoolType {
			return nil, fmt.Errorf("%w: filter must evaluate to bool, got %s",
				ErrInvalidPolicy, ast.OutputType())
		}

		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("%w: building filter program: %v", ErrInvalidPolicy, err)
		}
		s.program = prg
	}

	return s, nil
}

// Keep reports whether the field with the given cleaned name and value kind
// participates in hashing. Include, exclude, and filter all have to agree to
// keep a field.
func (s *Selector) Keep(name string, kind types.Kind) (bool, error) {
	if s.include != nil {
		if _, ok := s.include[name]; !ok {
			return false, nil
		}
	}
	if _, ok := s.exclude[name]; ok {
		return false, nil
	}

	if s.program != nil {
		out, _, err := s.program.Eval(map[string]any{
			"name": name,
			"kind": kind.String(),
		})
		if err != nil {
			return false, fmt.Errorf("%w: evaluating filter for field %q: %v",
				ErrInvalidPolicy, name, err)
		}
		keep, ok := out.Value().(bool)
		if !ok {
			return false, fmt.Errorf("%w: filter returned %T for field %q, want bool",
				ErrInvalidPolicy, out.Value(), name)
		}
		return keep, nil
	}

	return true, nil
}
