package checker

import "github.com/horizonanalytic/stratum/internal/types"

// Env is a lexical scope chain mapping names to their inferred type. Child
// scopes are created for blocks, function bodies, and narrowed branches;
// narrowing shadows a name in a child scope without ever mutating the
// parent, so a narrowed type never escapes its `if`/`match` arm.
type Env struct {
	parent *Env
	vars   map[string]types.Type
}

func NewEnv(parent *Env) *Env {
	return &Env{parent: parent, vars: map[string]types.Type{}}
}

func (e *Env) Define(name string, t types.Type) {
	e.vars[name] = t
}

func (e *Env) Lookup(name string) (types.Type, bool) {
	for s := e; s != nil; s = s.parent {
		if t, ok := s.vars[name]; ok {
			return t, true
		}
	}
	return types.Type{}, false
}

// StructDecl is the registered shape of a struct type.
type StructDecl struct {
	Name       string
	TypeParams []string
	Fields     map[string]types.Type
	FieldOrder []string
}

// EnumVariantShape is a registered enum variant's payload shape.
type EnumVariantShape struct {
	Name   string
	Tuple  []types.Type
	Fields map[string]types.Type
}

type EnumDecl struct {
	Name       string
	TypeParams []string
	Variants   map[string]EnumVariantShape
}

type InterfaceDecl struct {
	Name    string
	Methods map[string]types.Type // function type per method name
}

type FunctionSig struct {
	Name       string
	TypeParams []string
	Params     []types.Type
	Ret        types.Type
}

// Registry holds every top-level declaration gathered during the
// registration pass, consulted by the checking pass.
type Registry struct {
	Structs    map[string]*StructDecl
	Enums      map[string]*EnumDecl
	Interfaces map[string]*InterfaceDecl
	Functions  map[string]*FunctionSig
	Impls      map[string]map[string]bool // targetName -> interfaceName -> implemented
}

func NewRegistry() *Registry {
	return &Registry{
		Structs:    map[string]*StructDecl{},
		Enums:      map[string]*EnumDecl{},
		Interfaces: map[string]*InterfaceDecl{},
		Functions:  map[string]*FunctionSig{},
		Impls:      map[string]map[string]bool{},
	}
}
