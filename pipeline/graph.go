package pipeline

import "slices"

// Edge represents a dependency: To depends on From.
type Edge struct {
	From string
	To   string
}

// graph is a directed graph over node and virtual input names. Vertex and
// edge insertion order is kept so that traversals are deterministic.
type graph struct {
	vertices []string
	preds    map[string][]string // to -> [from...]
	succs    map[string][]string // from -> [to...]
}

func newGraph() *graph {
	return &graph{
		preds: make(map[string][]string),
		succs: make(map[string][]string),
	}
}

func (g *graph) hasVertex(name string) bool {
	_, ok := g.preds[name]
	return ok
}

// addVertex adds name and reports whether it was new.
func (g *graph) addVertex(name string) bool {
	if g.hasVertex(name) {
		return false
	}
	g.vertices = append(g.vertices, name)
	g.preds[name] = nil
	g.succs[name] = nil
	return true
}

// removeVertex drops name together with its incident edges.
func (g *graph) removeVertex(name string) {
	if !g.hasVertex(name) {
		return
	}
	for _, from := range g.preds[name] {
		g.succs[from] = remove(g.succs[from], name)
	}
	for _, to := range g.succs[name] {
		g.preds[to] = remove(g.preds[to], name)
	}
	delete(g.preds, name)
	delete(g.succs, name)
	g.vertices = remove(g.vertices, name)
}

// addEdge adds from -> to and reports whether it was new.
func (g *graph) addEdge(from, to string) bool {
	if slices.Contains(g.succs[from], to) {
		return false
	}
	g.succs[from] = append(g.succs[from], to)
	g.preds[to] = append(g.preds[to], from)
	return true
}

func (g *graph) removeEdge(from, to string) {
	g.succs[from] = remove(g.succs[from], to)
	g.preds[to] = remove(g.preds[to], from)
}

func (g *graph) predecessors(name string) []string { return g.preds[name] }

func (g *graph) successors(name string) []string { return g.succs[name] }

// topoSort orders all vertices with Kahn's algorithm. Ties are broken by
// vertex insertion order. ok is false when the graph has a cycle.
func (g *graph) topoSort() (order []string, ok bool) {
	inDegree := make(map[string]int, len(g.vertices))
	for _, v := range g.vertices {
		inDegree[v] = len(g.preds[v])
	}

	var queue []string
	for _, v := range g.vertices {
		if inDegree[v] == 0 {
			queue = append(queue, v)
		}
	}

	order = make([]string, 0, len(g.vertices))
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		order = append(order, v)
		for _, to := range g.succs[v] {
			inDegree[to]--
			if inDegree[to] == 0 {
				queue = append(queue, to)
			}
		}
	}

	return order, len(order) == len(g.vertices)
}

// reaches reports whether to is reachable from from through at least one edge.
// After inserting edges into a single vertex v, the graph is cyclic exactly
// when reaches(v, v).
func (g *graph) reaches(from, to string) bool {
	seen := make(map[string]struct{})
	stack := slices.Clone(g.succs[from])
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if v == to {
			return true
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		stack = append(stack, g.succs[v]...)
	}
	return false
}

// ancestors returns every vertex from which one of names is reachable,
// excluding names themselves unless they are ancestors of one another.
func (g *graph) ancestors(names ...string) map[string]struct{} {
	seen := make(map[string]struct{})
	stack := make([]string, 0, len(names))
	for _, n := range names {
		stack = append(stack, g.preds[n]...)
	}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		stack = append(stack, g.preds[v]...)
	}
	return seen
}

func remove(list []string, name string) []string {
	i := slices.Index(list, name)
	if i < 0 {
		return list
	}
	return slices.Delete(list, i, i+1)
}
