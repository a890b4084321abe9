package synth

import "fmt"

// Variable represents an unknown fixed-width integer.
//
// Two variables are the same unknown only if they are the same pointer.
// Variables are created by an Env and shared by every expression evaluated
// against that environment or a clone of it.
type Variable struct {
	ID    uint64 // per-environment sequence number
	Name  string
	Width uint
}

// NewVariable returns a new Variable of the given width.
func NewVariable(id uint64, name string, width uint) *Variable {
	return &Variable{
		ID:    id,
		Name:  name,
		Width: width,
	}
}

// String returns the name of the variable.
func (v *Variable) String() string {
	return v.Name
}

// CompareVariable returns an integer comparing two variables by name, id & width.
// Distinct handles must differ in at least one field. An environment assigns
// unique ids so this only fails when mixing variables from unrelated environments.
func CompareVariable(a, b *Variable) int {
	if a == b {
		return 0
	} else if a == nil {
		return -1
	} else if b == nil {
		return 1
	}

	if a.Name < b.Name {
		return -1
	} else if a.Name > b.Name {
		return 1
	}

	if a.ID < b.ID {
		return -1
	} else if a.ID > b.ID {
		return 1
	}

	if a.Width < b.Width {
		return -1
	} else if a.Width > b.Width {
		return 1
	}
	panic(fmt.Sprintf("assert: ambiguous variables: %s#%d", a.Name, a.ID))
}
