package repository

// Relation describes how one table relates to another.
// Implementations are OneToMany, OneToOne, and ManyToMany.
type Relation interface {
	RelationName() string
	cascades() bool
}

// OneToMany links a parent to child rows holding ForeignKey = parent.id.
type OneToMany struct {
	Name       string
	Target     string
	ForeignKey string
	Cascade    bool
}

// OneToOne links a row to a single Target row. The owning side holds JoinColumn.
type OneToOne struct {
	Name       string
	Target     string
	JoinColumn string
	Owner      bool
	Cascade    bool
}

// ManyToMany links rows through JunctionTable. The owning side's id is stored
// in OwnerColumn and the far side's in TargetColumn.
type ManyToMany struct {
	Name          string
	Target        string
	JunctionTable string
	OwnerColumn   string
	TargetColumn  string
	Owner         bool
	Cascade       bool
}

func (r OneToMany) RelationName() string  { return r.Name }
func (r OneToOne) RelationName() string   { return r.Name }
func (r ManyToMany) RelationName() string { return r.Name }

func (r OneToMany) cascades() bool  { return r.Cascade }
func (r OneToOne) cascades() bool   { return r.Cascade && r.Owner }
func (r ManyToMany) cascades() bool { return r.Cascade && r.Owner }

// Registry holds the relations of every table. It is built once at startup
// and read concurrently afterwards.
type Registry struct {
	tables map[string][]Relation
}

func NewRegistry() *Registry {
	return &Registry{tables: make(map[string][]Relation)}
}

// Register appends relations declared by table.
func (r *Registry) Register(table string, rels ...Relation) *Registry {
	r.tables[table] = append(r.tables[table], rels...)
	return r
}

// Relations returns every relation declared by table.
func (r *Registry) Relations(table string) []Relation {
	if r == nil {
		return nil
	}
	return r.tables[table]
}

// Cascades returns the relations a soft delete of table must follow:
// cascading one-to-many relations and cascading owning-side one-to-one and
// many-to-many relations.
func (r *Registry) Cascades(table string) []Relation {
	var out []Relation
	for _, rel := range r.Relations(table) {
		if rel.cascades() {
			out = append(out, rel)
		}
	}
	return out
}
