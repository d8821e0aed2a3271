package scan

import (
	"fmt"
	"reflect"
	"strings"
)

// TypeID identifies a capability or an implementation.
//
// Namespace is the import path of the package declaring the innermost named
// type. Name is the type expression with that package qualifier removed, e.g.
// "*UserRepo" or "[]Hook". Built-in and unnamed types keep their full
// expression and an empty Namespace.
type TypeID struct {
	Namespace string
	Name      string
}

// TypeIDOf returns the identity of a reflected type.
func TypeIDOf(t reflect.Type) TypeID {
	if t == nil {
		return TypeID{}
	}
	ns := namespaceOf(t)
	expr := t.String()
	if ns == "" {
		return TypeID{Name: expr}
	}
	prefix, body := splitWrappers(expr)
	dot := qualifierDot(body)
	if dot < 0 {
		return TypeID{Namespace: ns, Name: expr}
	}
	return TypeID{Namespace: ns, Name: prefix + body[dot+1:]}
}

// TypeFor returns the identity of T.
func TypeFor[T any]() TypeID {
	return TypeIDOf(reflect.TypeFor[T]())
}

// ParseTypeID parses the qualified form produced by TypeID.Qualified, e.g.
// "*github.com/acme/shop/repo.UserRepo" or "string".
func ParseTypeID(s string) (TypeID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeID{}, fmt.Errorf("%w: empty type", ErrInvalidTypeID)
	}
	prefix, body := splitWrappers(s)
	if body == "" {
		return TypeID{}, fmt.Errorf("%w: %q has no element type", ErrInvalidTypeID, s)
	}
	if strings.ContainsAny(body, "( ") {
		return TypeID{Name: s}, nil
	}
	head := body
	if i := strings.IndexByte(head, '['); i >= 0 {
		head = head[:i]
	}
	dot := strings.LastIndexByte(head, '.')
	if dot < 0 {
		return TypeID{Name: s}, nil
	}
	if dot == 0 || dot == len(body)-1 {
		return TypeID{}, fmt.Errorf("%w: %q", ErrInvalidTypeID, s)
	}
	return TypeID{Namespace: body[:dot], Name: prefix + body[dot+1:]}, nil
}

// MustParseTypeID is ParseTypeID that panics on error.
func MustParseTypeID(s string) TypeID {
	id, err := ParseTypeID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Qualified returns the unambiguous text form, the inverse of ParseTypeID.
func (id TypeID) Qualified() string {
	if id.Namespace == "" {
		return id.Name
	}
	prefix, body := splitWrappers(id.Name)
	return prefix + id.Namespace + "." + body
}

func (id TypeID) String() string { return id.Qualified() }

// IsZero reports whether id is the empty identity.
func (id TypeID) IsZero() bool { return id.Namespace == "" && id.Name == "" }

// BareName returns the type name without wrappers or type arguments.
func (id TypeID) BareName() string {
	_, body := splitWrappers(id.Name)
	if i := strings.IndexByte(body, '['); i >= 0 {
		body = body[:i]
	}
	return body
}

// genericBase returns the uninstantiated identity of a generic type.
func (id TypeID) genericBase() (TypeID, bool) {
	prefix, body := splitWrappers(id.Name)
	i := strings.IndexByte(body, '[')
	if i <= 0 {
		return TypeID{}, false
	}
	return TypeID{Namespace: id.Namespace, Name: prefix + body[:i]}, true
}

// splitWrappers separates leading pointer, slice and map[string] wrappers.
func splitWrappers(expr string) (prefix, body string) {
	body = expr
	for {
		switch {
		case strings.HasPrefix(body, "*"):
			body = body[1:]
		case strings.HasPrefix(body, "[]"):
			body = body[2:]
		case strings.HasPrefix(body, "map[string]"):
			body = body[len("map[string]"):]
		default:
			return expr[:len(expr)-len(body)], body
		}
	}
}

// qualifierDot finds the dot after a leading package name, or -1.
func qualifierDot(body string) int {
	for i, r := range body {
		switch {
		case r == '.':
			if i == 0 {
				return -1
			}
			return i
		case r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		default:
			return -1
		}
	}
	return -1
}

func namespaceOf(t reflect.Type) string {
	for t.Name() == "" {
		switch t.Kind() {
		case reflect.Ptr, reflect.Slice, reflect.Array, reflect.Chan, reflect.Map:
			t = t.Elem()
		default:
			return ""
		}
	}
	return t.PkgPath()
}

// HasNamespacePrefix reports whether ns equals prefix or lies below it.
// Matching is by path segment: "log" matches "log/slog" but not "logistics".
func HasNamespacePrefix(ns, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return false
	}
	return ns == prefix || strings.HasPrefix(ns, prefix+"/")
}

func matchesAnyNamespace(ns string, prefixes []string) bool {
	for _, p := range prefixes {
		if HasNamespacePrefix(ns, p) {
			return true
		}
	}
	return false
}
