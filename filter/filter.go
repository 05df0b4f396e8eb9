package filter

import (
	"maps"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/ibhelper/inkbunny"
)

// Filter is a compiled expression evaluated against submissions. It is safe
// for concurrent use.
type Filter struct {
	expression string
	program    *vm.Program
	envPool    *sync.Pool
}

// Option configures a Compiler
type Option func(*Compiler)

// WithCache keeps up to size compiled filters keyed by expression
func WithCache(size int) Option {
	return func(c *Compiler) {
		if size > 0 {
			c.cache = newLRUCache[*Filter](size)
		}
	}
}

// Compiler turns expressions into Filters
type Compiler struct {
	helpers map[string]any
	cache   *lruCache[*Filter]
	envPool *sync.Pool
}

// NewCompiler creates a Compiler with the default helper functions
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		helpers: helperFunctions(),
		envPool: &sync.Pool{},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.envPool.New = func() any {
		env := make(map[string]any, len(c.helpers)+16)
		maps.Copy(env, c.helpers)
		return env
	}

	return c
}

// Compile checks expression against the submission environment. Unknown
// identifiers and non-boolean results are compile errors.
func (c *Compiler) Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	env := make(map[string]any, len(c.helpers)+16)
	maps.Copy(env, c.helpers)
	fillSubmission(env, inkbunny.Submission{})

	program, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	f := &Filter{
		expression: expression,
		program:    program,
		envPool:    c.envPool,
	}

	if c.cache != nil {
		c.cache.Put(expression, f)
	}

	return f, nil
}

// Size returns the number of cached filters
func (c *Compiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Expression returns the source of the filter
func (f *Filter) Expression() string {
	return f.expression
}

// Match reports whether sub satisfies the filter
func (f *Filter) Match(sub inkbunny.Submission) (bool, error) {
	env := f.envPool.Get().(map[string]any)
	defer f.envPool.Put(env)

	fillSubmission(env, sub)

	result, err := expr.Run(f.program, env)
	if err != nil {
		return false, &EvaluationError{
			Expression:   f.expression,
			SubmissionID: sub.SubmissionID,
			Err:          err,
		}
	}
	return result.(bool), nil
}

// Apply returns the submissions that match, in their original order. It
// stops at the first evaluation error.
func (f *Filter) Apply(subs []inkbunny.Submission) ([]inkbunny.Submission, error) {
	matched := make([]inkbunny.Submission, 0, len(subs))
	for _, sub := range subs {
		ok, err := f.Match(sub)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, sub)
		}
	}
	return matched, nil
}

// fillSubmission exposes the submission fields to expressions
func fillSubmission(env map[string]any, sub inkbunny.Submission) {
	env["ID"] = sub.SubmissionID
	env["Title"] = sub.Title
	env["Username"] = sub.Username
	env["Rating"] = sub.RatingName
	env["Type"] = sub.TypeName
	env["Pages"] = int(sub.PageCount)
	env["Scraps"] = flag(sub.Scraps)
	env["Public"] = flag(sub.Public)
	env["FileName"] = sub.FileName
	env["MimeType"] = sub.MimeType
}

// flag reads the API's t/f and yes/no booleans
func flag(s string) bool {
	switch strings.ToLower(s) {
	case "t", "true", "yes", "1":
		return true
	}
	return false
}

// helperFunctions are case-insensitive string tests. contains, startsWith
// and endsWith are operators in expr, so the helpers use other names.
func helperFunctions() map[string]any {
	return map[string]any{
		"has": func(str, substr string) bool {
			return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
		},
		"prefixed": func(str, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
		},
		"suffixed": func(str, suffix string) bool {
			return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
		},
	}
}
