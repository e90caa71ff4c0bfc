package weave

// Signature identifies an interceptable method by the package path and name
// of its declaring type plus the method name.
type Signature struct {
	Package string // Import path of the declaring type's package
	Type    string // Declaring type name, without pointer marker
	Method  string // Method name
}

// DeclaringType returns the fully-qualified declaring type, e.g.
// "github.com/madeeasy/weave/internal/controller.UsersController".
func (s Signature) DeclaringType() string {
	if s.Package == "" {
		return s.Type
	}
	return s.Package + "." + s.Type
}

// Qualified returns the fully-qualified method name that pointcut patterns
// are evaluated against.
func (s Signature) Qualified() string {
	return s.DeclaringType() + "." + s.Method
}

func (s Signature) String() string {
	return s.Qualified()
}
