package symbols

import (
	"errors"
	"fmt"

	logging "github.com/ipfs/go-log/v2"
	"github.com/samber/lo"
	"golang.org/x/text/unicode/norm"

	"github.com/rubiojr/treeline/ast"
)

var log = logging.Logger("treeline/symbols")

var (
	// ErrUnexpectedNodeShape is returned when a structural field holds
	// something other than a node or a list of nodes.
	ErrUnexpectedNodeShape = errors.New("unexpected node shape")
	// ErrEmptyIdentifier is returned when an identifier has no name.
	ErrEmptyIdentifier = errors.New("empty identifier")
)

// nameSet is an insertion-ordered set of names.
type nameSet struct {
	list []string
	seen map[string]struct{}
}

func (s *nameSet) add(name string) bool {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[name]; ok {
		return false
	}
	s.seen[name] = struct{}{}
	s.list = append(s.list, name)
	return true
}

func (s *nameSet) has(name string) bool {
	_, ok := s.seen[name]
	return ok
}

// Walker classifies the identifiers of an expression tree.
type Walker struct {
	ctx *Context

	imported  nameSet
	exported  nameSet
	used      nameSet
	missing   nameSet
	defined   nameSet
	notNeeded []string
	warnings  []string
}

// NewWalker returns a walker over ctx, or over a fresh Context when ctx
// is nil.
func NewWalker(ctx *Context) *Walker {
	if ctx == nil {
		ctx = NewContext()
	}
	return &Walker{ctx: ctx}
}

// Context returns the walker's scope context.
func (w *Walker) Context() *Context { return w.ctx }

// Imported returns imported names in first-seen order.
func (w *Walker) Imported() []string { return w.imported.list }

// Exported returns exported names in first-seen order.
func (w *Walker) Exported() []string { return w.exported.list }

// Used returns referenced names in first-seen order.
func (w *Walker) Used() []string { return w.used.list }

// Missing returns referenced names that did not resolve, in first-seen
// order.
func (w *Walker) Missing() []string { return w.missing.list }

// NotNeeded returns imported names that are neither used nor exported.
// It is computed at the end of Walk.
func (w *Walker) NotNeeded() []string { return w.notNeeded }

// Defined returns names defined at global level, imports excluded.
func (w *Walker) Defined() []string { return w.defined.list }

// Scopes returns every scope closed during the walk.
func (w *Walker) Scopes() []*Scope { return w.ctx.Closed() }

// Warnings returns non-fatal findings such as duplicate imports.
func (w *Walker) Warnings() []string { return w.warnings }

// Walk classifies every identifier under root. It may be called once per
// program unit; results accumulate.
func (w *Walker) Walk(root *ast.Node) error {
	if err := w.node(root, walk); err != nil {
		return err
	}
	w.notNeeded = lo.Filter(w.imported.list, func(name string, _ int) bool {
		return !w.used.has(name) && !w.exported.has(name)
	})
	return nil
}

// field dispatches a field value of n according to r.
func (w *Walker) field(n *ast.Node, name string, r role) error {
	v, ok := n.Fields[name]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case *ast.Node:
		return w.node(t, r)
	case []*ast.Node:
		for _, c := range t {
			if c == nil {
				continue
			}
			if err := w.node(c, r); err != nil {
				return err
			}
		}
		return nil
	case string:
		if r == walk {
			break
		}
		return w.ident(t, r, n)
	case []any:
		if r == walk {
			break
		}
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return fmt.Errorf("%w: %s.%s holds %T", ErrUnexpectedNodeShape, n.Kind, name, e)
			}
			if err := w.ident(s, r, n); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%w: %s.%s holds %T", ErrUnexpectedNodeShape, n.Kind, name, v)
}

// node handles one node reached through a slot with role r.
func (w *Walker) node(n *ast.Node, r role) error {
	if n == nil {
		return nil
	}
	if n.IsIdent() {
		return w.ident(n.Name, r, n)
	}
	if r == def {
		return w.pattern(n)
	}
	if rule, ok := kindRules[n.Kind]; ok {
		for _, s := range rule {
			if err := w.field(n, s.field, s.role); err != nil {
				return err
			}
		}
		return nil
	}
	return w.fallback(n)
}

func (w *Walker) ident(name string, r role, at *ast.Node) error {
	if name == "" {
		return fmt.Errorf("%w: in %s", ErrEmptyIdentifier, at)
	}
	name = norm.NFC.String(name)
	if r == def {
		w.define(name)
		return nil
	}
	w.used.add(name)
	if !w.ctx.Has(name) {
		w.missing.add(name)
	}
	return nil
}

func (w *Walker) define(name string) {
	if w.ctx.AtGlobalLevel() {
		w.ctx.AddGlobal(name)
		w.defined.add(name)
		return
	}
	w.ctx.Add(name)
}

// fallback handles kinds with bespoke scoping or classification.
func (w *Walker) fallback(n *ast.Node) error {
	switch n.Kind {
	case "CallExpression":
		return w.fields(n, uses("callee"), uses("arguments"))
	case "MemberExpression":
		if err := w.field(n, "object", use); err != nil {
			return err
		}
		if computed(n) {
			return w.field(n, "property", use)
		}
		return nil
	case "Property", "MethodDefinition", "PropertyDefinition":
		if computed(n) {
			if err := w.field(n, "key", use); err != nil {
				return err
			}
		}
		return w.field(n, "value", use)
	case "FunctionDeclaration", "FunctionExpression", "ArrowFunctionExpression":
		return w.function(n)
	case "ImportDeclaration":
		return w.importDecl(n)
	case "ExportNamedDeclaration", "ExportDefaultDeclaration":
		return w.exportDecl(n)
	case "TryStatement":
		return w.fields(n, nest("block"), nest("handler"), nest("finalizer"))
	case "CatchClause":
		names, defaults, err := paramNames(n, "param")
		if err != nil {
			return err
		}
		w.ctx.BeginScope("catch", names...)
		defer w.ctx.EndScope()
		if err := w.readAll(defaults); err != nil {
			return err
		}
		return w.field(n, "body", walk)
	case "AssignmentExpression":
		if op, _ := n.Fields["operator"].(string); op != "" && op != "=" {
			if err := w.field(n, "left", use); err != nil {
				return err
			}
		}
		if err := w.field(n, "right", use); err != nil {
			return err
		}
		return w.field(n, "left", def)
	case "ReturnStatement":
		return w.field(n, "argument", use)
	case "AssignmentPattern", "ArrayPattern", "ObjectPattern", "RestElement":
		// a pattern outside a definition site only reads its defaults
		_, defaults, err := collect(n)
		if err != nil {
			return err
		}
		return w.readAll(defaults)
	}
	log.Debugf("no rule for %s, walking children as uses", n)
	for _, k := range n.Keys() {
		switch n.Fields[k].(type) {
		case *ast.Node, []*ast.Node:
			if err := w.field(n, k, use); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Walker) fields(n *ast.Node, slots ...slot) error {
	for _, s := range slots {
		if err := w.field(n, s.field, s.role); err != nil {
			return err
		}
	}
	return nil
}

func (w *Walker) readAll(nodes []*ast.Node) error {
	for _, e := range nodes {
		if err := w.node(e, use); err != nil {
			return err
		}
	}
	return nil
}

func computed(n *ast.Node) bool {
	c, _ := n.Fields["computed"].(bool)
	return c
}

// function walks a function literal or declaration. Parameters seed a new
// scope that wraps the body; default values are read inside that scope so
// later parameters see earlier ones.
func (w *Walker) function(n *ast.Node) error {
	name := "<anonymous>"
	var id string
	switch v := n.Fields["id"].(type) {
	case *ast.Node:
		if v != nil {
			id = v.Name
		}
	case string:
		id = v
	}
	if id != "" {
		name = id
		if n.Kind == "FunctionDeclaration" {
			if err := w.ident(id, def, n); err != nil {
				return err
			}
		}
	} else if v, ok := n.Fields["id"]; ok && v != nil {
		return fmt.Errorf("%w: in %s", ErrEmptyIdentifier, n)
	}

	params, defaults, err := paramNames(n, "params")
	if err != nil {
		return err
	}
	if id != "" && n.Kind == "FunctionExpression" {
		params = append([]string{norm.NFC.String(id)}, params...)
	}
	w.ctx.BeginScope(name, params...)
	defer w.ctx.EndScope()
	if err := w.readAll(defaults); err != nil {
		return err
	}
	body, _ := n.Fields["body"].(*ast.Node)
	if body != nil && body.Kind != "BlockStatement" {
		return w.node(body, use)
	}
	return w.field(n, "body", walk)
}

// paramNames collects the names bound by the field of n and the default
// value expressions attached to them.
func paramNames(n *ast.Node, field string) ([]string, []*ast.Node, error) {
	var names []string
	var defaults []*ast.Node
	add := func(p *ast.Node) error {
		ns, ds, err := collect(p)
		if err != nil {
			return err
		}
		names = append(names, ns...)
		defaults = append(defaults, ds...)
		return nil
	}
	switch v := n.Fields[field].(type) {
	case nil:
	case *ast.Node:
		if v != nil {
			if err := add(v); err != nil {
				return nil, nil, err
			}
		}
	case []*ast.Node:
		for _, p := range v {
			if p == nil {
				continue
			}
			if err := add(p); err != nil {
				return nil, nil, err
			}
		}
	case string:
		if err := add(ast.Ident(v)); err != nil {
			return nil, nil, err
		}
	case []any:
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, nil, fmt.Errorf("%w: %s.%s holds %T", ErrUnexpectedNodeShape, n.Kind, field, e)
			}
			if err := add(ast.Ident(s)); err != nil {
				return nil, nil, err
			}
		}
	default:
		return nil, nil, fmt.Errorf("%w: %s.%s holds %T", ErrUnexpectedNodeShape, n.Kind, field, v)
	}
	return names, defaults, nil
}

// collect returns the names a binding pattern declares and the
// expressions it evaluates (defaults and computed keys).
func collect(p *ast.Node) ([]string, []*ast.Node, error) {
	var names []string
	var exprs []*ast.Node
	var rec func(p *ast.Node) error
	rec = func(p *ast.Node) error {
		if p == nil {
			return nil
		}
		switch p.Kind {
		case ast.KindIdentifier:
			if p.Name == "" {
				return fmt.Errorf("%w: in %s", ErrEmptyIdentifier, p)
			}
			names = append(names, norm.NFC.String(p.Name))
		case "AssignmentPattern":
			if r, ok := p.Fields["right"].(*ast.Node); ok && r != nil {
				exprs = append(exprs, r)
			}
			return recField(p, "left", rec)
		case "RestElement":
			return recField(p, "argument", rec)
		case "ArrayPattern":
			return recField(p, "elements", rec)
		case "ObjectPattern":
			return recField(p, "properties", rec)
		case "Property":
			if computed(p) {
				if k, ok := p.Fields["key"].(*ast.Node); ok && k != nil {
					exprs = append(exprs, k)
				}
			}
			return recField(p, "value", rec)
		default:
			return fmt.Errorf("%w: %s is not a binding pattern", ErrUnexpectedNodeShape, p)
		}
		return nil
	}
	if err := rec(p); err != nil {
		return nil, nil, err
	}
	return names, exprs, nil
}

func recField(p *ast.Node, field string, rec func(*ast.Node) error) error {
	switch v := p.Fields[field].(type) {
	case nil:
		return nil
	case *ast.Node:
		return rec(v)
	case []*ast.Node:
		for _, c := range v {
			if err := rec(c); err != nil {
				return err
			}
		}
		return nil
	case string:
		return rec(ast.Ident(v))
	default:
		return fmt.Errorf("%w: %s.%s holds %T", ErrUnexpectedNodeShape, p.Kind, field, v)
	}
}

// pattern handles a node at a definition site that is not a plain
// identifier.
func (w *Walker) pattern(n *ast.Node) error {
	switch n.Kind {
	case "AssignmentPattern", "ArrayPattern", "ObjectPattern", "RestElement":
		names, exprs, err := collect(n)
		if err != nil {
			return err
		}
		if err := w.readAll(exprs); err != nil {
			return err
		}
		for _, name := range names {
			w.define(name)
		}
		return nil
	case "MemberExpression":
		return w.node(n, use)
	}
	// declarations in for-in/of heads and similar structural forms
	return w.node(n, walk)
}

func (w *Walker) importDecl(n *ast.Node) error {
	locals, err := importLocals(n)
	if err != nil {
		return err
	}
	for _, name := range locals {
		if name == "" {
			return fmt.Errorf("%w: in %s", ErrEmptyIdentifier, n)
		}
		name = norm.NFC.String(name)
		if !w.imported.add(name) {
			msg := fmt.Sprintf("duplicate import %q", name)
			if n.Line > 0 {
				msg = fmt.Sprintf("line %d: %s", n.Line, msg)
			}
			log.Warnf("%s", msg)
			w.warnings = append(w.warnings, msg)
			continue
		}
		w.ctx.AddGlobal(name)
	}
	return nil
}

var (
	importNameFields = []string{"local", "imported", "exported"}
	exportNameFields = []string{"exported", "local"}
)

// importLocals returns the local names bound by an import declaration.
// Specifiers may be nodes with a local field or plain name strings.
func importLocals(n *ast.Node) ([]string, error) {
	return specifierNames(n, importNameFields)
}

// exportNames returns the names an export declaration makes visible:
// the alias of "a as b" rather than the local binding.
func exportNames(n *ast.Node) ([]string, error) {
	return specifierNames(n, exportNameFields)
}

// specifierNames reads each specifier's name from the first of fields
// present.
func specifierNames(n *ast.Node, fields []string) ([]string, error) {
	var out []string
	switch v := n.Fields["specifiers"].(type) {
	case nil:
	case []*ast.Node:
		for _, s := range v {
			if s == nil {
				continue
			}
			name, err := specifierName(s, fields)
			if err != nil {
				return nil, err
			}
			out = append(out, name)
		}
	case []any:
		for _, s := range v {
			name, ok := s.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s.specifiers holds %T", ErrUnexpectedNodeShape, n.Kind, s)
			}
			out = append(out, name)
		}
	default:
		return nil, fmt.Errorf("%w: %s.specifiers holds %T", ErrUnexpectedNodeShape, n.Kind, v)
	}
	return out, nil
}

func specifierName(s *ast.Node, fields []string) (string, error) {
	if s.IsIdent() {
		return s.Name, nil
	}
	for _, f := range fields {
		switch v := s.Fields[f].(type) {
		case *ast.Node:
			if v != nil {
				return v.Name, nil
			}
		case string:
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %s has no name", ErrUnexpectedNodeShape, s)
}

func (w *Walker) exportDecl(n *ast.Node) error {
	decl, _ := n.Fields["declaration"].(*ast.Node)
	if decl != nil {
		if n.Kind == "ExportDefaultDeclaration" && decl.IsIdent() {
			return w.export(decl.Name, n)
		}
		if err := w.node(decl, walk); err != nil {
			return err
		}
		names, err := declaredNames(decl)
		if err != nil {
			return err
		}
		for _, name := range names {
			if err := w.export(name, n); err != nil {
				return err
			}
		}
	}
	if _, ok := n.Fields["specifiers"]; !ok {
		return nil
	}
	names, err := exportNames(n)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := w.export(name, n); err != nil {
			return err
		}
	}
	return nil
}

func (w *Walker) export(name string, at *ast.Node) error {
	if name == "" {
		return fmt.Errorf("%w: in %s", ErrEmptyIdentifier, at)
	}
	w.exported.add(norm.NFC.String(name))
	return nil
}

// declaredNames returns the names an exported declaration introduces.
func declaredNames(decl *ast.Node) ([]string, error) {
	switch decl.Kind {
	case "FunctionDeclaration", "ClassDeclaration":
		if id, ok := decl.Fields["id"].(*ast.Node); ok && id != nil {
			return []string{id.Name}, nil
		}
		if id, ok := decl.Fields["id"].(string); ok {
			return []string{id}, nil
		}
	case "VariableDeclaration":
		var names []string
		decls, _ := decl.Fields["declarations"].([]*ast.Node)
		for _, d := range decls {
			id, ok := d.Fields["id"].(*ast.Node)
			if !ok || id == nil {
				continue
			}
			ns, _, err := collect(id)
			if err != nil {
				return nil, err
			}
			names = append(names, ns...)
		}
		return names, nil
	}
	return nil, nil
}
