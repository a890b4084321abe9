package synth

import (
	"bytes"
	"fmt"

	"github.com/benbjohnson/immutable"
)

// Env maps variable names to symbolic variables.
//
// Resolving a name inserts a new variable on first sight and returns the
// same handle afterward. Clone() returns a snapshot that shares all existing
// handles so that a second expression can be evaluated against the names of
// the first. An Env is not safe for concurrent use.
type Env struct {
	width  uint
	nextID uint64

	// Name to *Variable, sorted by name.
	vars *immutable.SortedMap
}

// NewEnv returns an empty environment that creates variables of the given width.
func NewEnv(width uint) *Env {
	return &Env{
		width: width,
		vars:  immutable.NewSortedMap(&stringComparer{}),
	}
}

// Width returns the width of variables created by the environment.
func (env *Env) Width() uint { return env.width }

// Len returns the number of variables in the environment.
func (env *Env) Len() int { return env.vars.Len() }

// Clone returns a copy of the environment. Existing variables are shared and
// later insertions into either environment do not affect the other.
func (env *Env) Clone() *Env {
	return &Env{
		width:  env.width,
		nextID: env.nextID,
		vars:   env.vars,
	}
}

// Lookup returns the variable for name, if one exists.
func (env *Env) Lookup(name string) (*Variable, bool) {
	v, ok := env.vars.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*Variable), true
}

// Resolve returns the variable for name. A new variable is registered the
// first time a name is seen.
func (env *Env) Resolve(name string) *Variable {
	if v, ok := env.Lookup(name); ok {
		return v
	}

	env.nextID++
	v := NewVariable(env.nextID, name, env.width)
	env.vars = env.vars.Set(name, v)
	return v
}

// Variables returns all variables in the environment, sorted by name.
func (env *Env) Variables() []*Variable {
	a := make([]*Variable, 0, env.vars.Len())
	itr := env.vars.Iterator()
	for !itr.Done() {
		_, v := itr.Next()
		a = append(a, v.(*Variable))
	}
	return a
}

// Names returns the names of all variables in the environment, sorted.
func (env *Env) Names() []string {
	a := make([]string, 0, env.vars.Len())
	itr := env.vars.Iterator()
	for !itr.Done() {
		k, _ := itr.Next()
		a = append(a, k.(string))
	}
	return a
}

// String returns a debug representation of the environment.
func (env *Env) String() string {
	var buf bytes.Buffer
	for _, v := range env.Variables() {
		fmt.Fprintf(&buf, "#%d %s/%d\n", v.ID, v.Name, v.Width)
	}
	return buf.String()
}

// stringComparer compares two strings. Implements immutable.Comparer.
type stringComparer struct{}

// Compare returns -1 if a is less than b, returns 1 if a is greater than b, and
// returns 0 if a is equal to b. Panic if a or b is not a string.
func (c *stringComparer) Compare(a, b interface{}) int {
	if i, j := a.(string), b.(string); i < j {
		return -1
	} else if i > j {
		return 1
	}
	return 0
}
