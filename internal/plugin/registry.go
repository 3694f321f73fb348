package plugin

import (
	"sort"
	"sync"

	"inkwell/internal/document"
	"inkwell/internal/docerrors"
	"inkwell/internal/txn"
)

// Registry owns every registered Plugin and the order Kahn's algorithm
// assigns them once InitAll runs. Registration is locked after InitAll.
type Registry struct {
	mu sync.Mutex

	plugins  map[string]*Plugin
	order    []string // topo order, populated by InitAll
	instance map[string]any
	locked   bool

	ctx *Context
}

// NewRegistry returns an empty Registry wired to the given commands and
// keymap, which plugins populate from their Init hook via ctx.
func NewRegistry(commands *CommandRegistry, keymap KeymapSetter) *Registry {
	return &Registry{
		plugins:  make(map[string]*Plugin),
		instance: make(map[string]any),
		ctx:      &Context{Commands: commands, Keymap: keymap},
	}
}

// Register adds p to the registry. Fails with AlreadyRegisteredError for a
// duplicate name, or LockedError once InitAll has already run.
func (r *Registry) Register(p *Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locked {
		return &docerrors.LockedError{Op: "register plugin " + p.Name}
	}
	if _, exists := r.plugins[p.Name]; exists {
		return &docerrors.AlreadyRegisteredError{Plugin: p.Name}
	}
	r.plugins[p.Name] = p
	return nil
}

// InitAll performs Kahn's topological sort over declared dependencies, then
// calls each plugin's Init in that order, recording its returned instance.
// Registration is locked afterward, until DestroyAll unlocks it.
func (r *Registry) InitAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locked {
		return &docerrors.LockedError{Op: "InitAll"}
	}

	order, err := topoSort(r.plugins)
	if err != nil {
		return err
	}
	r.order = order
	r.locked = true

	for _, name := range order {
		p := r.plugins[name]
		for cmdName, handler := range p.Commands {
			if err := r.ctx.Commands.Register(cmdName, handler); err != nil {
				return err
			}
		}
		for chord, command := range p.Keymaps {
			if err := r.ctx.Keymap.Bind(chord, command); err != nil {
				return err
			}
		}
		if p.Init == nil {
			continue
		}
		instance, err := p.Init(r.ctx)
		if err != nil {
			return err
		}
		r.instance[name] = instance
	}
	return nil
}

// DestroyAll tears down every plugin in reverse init order, then clears the
// registries — including the commands and keymap bindings InitAll
// populated — so a fresh Register/InitAll cycle can re-declare the same
// names.
func (r *Registry) DestroyAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.order) - 1; i >= 0; i-- {
		name := r.order[i]
		p := r.plugins[name]
		if p.Destroy != nil {
			p.Destroy(r.instance[name])
		}
	}
	r.plugins = make(map[string]*Plugin)
	r.instance = make(map[string]any)
	r.order = nil
	r.locked = false

	r.ctx.Commands.Clear()
	if clearer, ok := r.ctx.Keymap.(KeymapClearer); ok {
		clearer.Clear()
	}
}

// topoSort runs Kahn's algorithm over the declared dependency edges.
// Unknown dependency -> UnknownPluginError. Any remaining in-degree after
// the queue drains -> CyclicDependencyError naming the stuck set.
func topoSort(plugins map[string]*Plugin) ([]string, error) {
	names := make([]string, 0, len(plugins))
	for n := range plugins {
		names = append(names, n)
	}
	sort.Strings(names) // deterministic iteration before the queue introduces its own order

	indegree := make(map[string]int, len(names))
	dependents := make(map[string][]string) // dep -> plugins that depend on it
	for _, n := range names {
		indegree[n] = 0
	}
	for _, n := range names {
		p := plugins[n]
		for _, dep := range p.Dependencies {
			if _, ok := plugins[dep]; !ok {
				return nil, &docerrors.UnknownPluginError{Plugin: n, Dependency: dep}
			}
			indegree[n]++
			dependents[dep] = append(dependents[dep], n)
		}
	}

	var queue []string
	for _, n := range names {
		if indegree[n] == 0 {
			queue = append(queue, n)
		}
	}
	sort.Strings(queue)

	var order []string
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)

		var freed []string
		for _, dependent := range dependents[n] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				freed = append(freed, dependent)
			}
		}
		sort.Strings(freed)
		queue = append(queue, freed...)
	}

	if len(order) != len(names) {
		var stuck []string
		for _, n := range names {
			if indegree[n] > 0 {
				stuck = append(stuck, n)
			}
		}
		sort.Strings(stuck)
		return nil, &docerrors.CyclicDependencyError{Cycle: stuck}
	}
	return order, nil
}

// RunTransactionPipeline folds OnTransaction across every plugin in init
// order. An abort=true result drops the transaction entirely; a rewrite
// replaces the running value; ok=false passes it through unchanged.
func (r *Registry) RunTransactionPipeline(tr txn.Transaction, state document.ContentState) (txn.Transaction, bool) {
	r.mu.Lock()
	order := r.order
	r.mu.Unlock()

	current := tr
	for _, name := range order {
		p := r.plugins[name]
		if p.OnTransaction == nil {
			continue
		}
		rewritten, abort, ok := p.OnTransaction(current, state)
		if abort {
			return txn.Transaction{}, false
		}
		if ok {
			current = rewritten
		}
	}
	return current, true
}

// NotifyUpdate calls OnUpdate on every plugin in init order. Callers must
// not invoke this when RunTransactionPipeline aborted the transaction.
func (r *Registry) NotifyUpdate(prev, next document.ContentState) {
	r.mu.Lock()
	order := r.order
	r.mu.Unlock()
	for _, name := range order {
		p := r.plugins[name]
		if p.OnUpdate != nil {
			p.OnUpdate(prev, next)
		}
	}
}

// RunKeyPipeline runs OnKeyDown handlers in init order; the first that
// returns true consumes the chord.
func (r *Registry) RunKeyPipeline(chord string) bool {
	r.mu.Lock()
	order := r.order
	r.mu.Unlock()
	for _, name := range order {
		p := r.plugins[name]
		if p.OnKeyDown == nil {
			continue
		}
		if p.OnKeyDown(r.ctx, chord) {
			return true
		}
	}
	return false
}

// GetAllNodeTypes aggregates every plugin's NodeTypes in init order, with no
// deduplication — a name collision is an upstream configuration error.
func (r *Registry) GetAllNodeTypes() []string {
	var out []string
	for _, name := range r.order {
		out = append(out, r.plugins[name].NodeTypes...)
	}
	return out
}

// GetAllMarkTypes aggregates every plugin's MarkTypes in init order.
func (r *Registry) GetAllMarkTypes() []string {
	var out []string
	for _, name := range r.order {
		out = append(out, r.plugins[name].MarkTypes...)
	}
	return out
}

// GetAllToolbarItems aggregates every plugin's ToolbarItems, sorted
// ascending by Order (default 0); ties keep plugin init order.
func (r *Registry) GetAllToolbarItems() []ToolbarItem {
	var out []ToolbarItem
	for _, name := range r.order {
		out = append(out, r.plugins[name].ToolbarItems...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
