package command

// Registry is an ordered name→Command mapping. Registration order is
// preserved; re-registering a name replaces the command in place, so
// the last registration wins while the listing position stays stable.
type Registry struct {
	order  []string
	byName map[string]*Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Command)}
}

// Register adds or replaces a command by name.
func (r *Registry) Register(cmd *Command) {
	if _, ok := r.byName[cmd.Name]; !ok {
		r.order = append(r.order, cmd.Name)
	}
	r.byName[cmd.Name] = cmd
}

// Lookup returns the command registered under name.
func (r *Registry) Lookup(name string) (*Command, bool) {
	cmd, ok := r.byName[name]
	return cmd, ok
}

// Names returns all registered names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Commands returns all registered commands in registration order.
func (r *Registry) Commands() []*Command {
	cmds := make([]*Command, 0, len(r.order))
	for _, name := range r.order {
		cmds = append(cmds, r.byName[name])
	}
	return cmds
}
