package analysis

import (
	"github.com/symgraph/engine/internal/graphstore"
	"github.com/symgraph/engine/internal/symtypes"
)

// TypeRelations collects the relations of a type-like symbol from the
// edges incident on the root only; no relation is followed
// transitively. Definition edges into the root mean "extends";
// Implementation edges into the root mean "implements".
type TypeRelations struct {
	Users           []string
	Implementations []string
	Extensions      []string
	Members         []string
	Methods         []string
	TypeParameters  []string
}

// TypeHierarchy is the transitive parent/child/sibling view of a
// type-like symbol over Definition ("extends") edges.
type TypeHierarchy struct {
	Parents  []string
	Children []string
	Siblings []string
}

var implementationKind = symtypes.EdgeImplementation

// ComputeTypeRelations gathers the relations for a type-like root symbol.
func ComputeTypeRelations(g *graphstore.Graph, id string, depth int) (TypeRelations, error) {
	h, ok := g.GetHandle(id)
	if !ok {
		return TypeRelations{}, notFound("type_relations", id)
	}

	var rel TypeRelations

	refSources, err := g.Neighbors(h, symtypes.DirIncoming, &referenceKind)
	if err != nil {
		return TypeRelations{}, err
	}
	for _, s := range refSources {
		sym, ok := g.Symbol(s)
		if !ok {
			continue
		}
		switch sym.Kind {
		case symtypes.KindVariable, symtypes.KindParameter:
			rel.Users = append(rel.Users, sym.ID)
		case symtypes.KindField, symtypes.KindProperty:
			rel.Members = append(rel.Members, sym.ID)
		case symtypes.KindMethod:
			rel.Methods = append(rel.Methods, sym.ID)
		}
	}

	implSources, err := g.Neighbors(h, symtypes.DirIncoming, &implementationKind)
	if err != nil {
		return TypeRelations{}, err
	}
	for _, s := range implSources {
		if sym, ok := g.Symbol(s); ok {
			rel.Implementations = append(rel.Implementations, sym.ID)
		}
	}

	defSources, err := g.Neighbors(h, symtypes.DirIncoming, &definitionKind)
	if err != nil {
		return TypeRelations{}, err
	}
	for _, s := range defSources {
		if sym, ok := g.Symbol(s); ok {
			rel.Extensions = append(rel.Extensions, sym.ID)
		}
	}

	outRefs, err := g.Neighbors(h, symtypes.DirOutgoing, &referenceKind)
	if err != nil {
		return TypeRelations{}, err
	}
	for _, t := range outRefs {
		sym, ok := g.Symbol(t)
		if ok && sym.Kind.IsTypeLike() {
			rel.TypeParameters = append(rel.TypeParameters, sym.ID)
		}
	}

	_ = depth // accepted but not used: relations here are direct-edge only
	return rel, nil
}

// ComputeTypeHierarchy walks outgoing Definition edges from a type-like
// root to find parents, incoming Definition edges to find children,
// and other children of the parents to find siblings.
func ComputeTypeHierarchy(g *graphstore.Graph, id string, maxDepth int) (TypeHierarchy, error) {
	h, ok := g.GetHandle(id)
	if !ok {
		return TypeHierarchy{}, notFound("type_hierarchy", id)
	}

	var hier TypeHierarchy

	parents := walkTypeLike(g, h, symtypes.DirOutgoing, maxDepth)
	hier.Parents = parents

	children := walkTypeLike(g, h, symtypes.DirIncoming, maxDepth)
	hier.Children = children

	selfSym, _ := g.Symbol(h)
	seenSibling := map[string]bool{selfSym.ID: true}
	for _, p := range parents {
		seenSibling[p] = true
	}
	directParents, err := g.Neighbors(h, symtypes.DirOutgoing, &definitionKind)
	if err != nil {
		return TypeHierarchy{}, err
	}
	for _, p := range directParents {
		siblingsOfP, err := g.Neighbors(p, symtypes.DirIncoming, &definitionKind)
		if err != nil {
			continue
		}
		for _, s := range siblingsOfP {
			sym, ok := g.Symbol(s)
			if !ok || seenSibling[sym.ID] {
				continue
			}
			seenSibling[sym.ID] = true
			hier.Siblings = append(hier.Siblings, sym.ID)
		}
	}

	return hier, nil
}

func walkTypeLike(g *graphstore.Graph, root graphstore.Handle, dir symtypes.Direction, maxDepth int) []string {
	visited := map[graphstore.Handle]bool{root: true}
	queue := []graphstore.Handle{root}
	depth := 0
	var out []string

	for depth < maxDepth && len(queue) > 0 {
		var next []graphstore.Handle
		for _, h := range queue {
			neighbors, err := g.Neighbors(h, dir, &definitionKind)
			if err != nil {
				continue
			}
			for _, n := range neighbors {
				if visited[n] {
					continue
				}
				visited[n] = true
				sym, ok := g.Symbol(n)
				if !ok {
					continue
				}
				out = append(out, sym.ID)
				next = append(next, n)
			}
		}
		queue = next
		depth++
	}
	return out
}
