package ast

// UpdateKind distinguishes the update operations the parameter detector
// must treat differently (spec.md §4.2): INSERT/DELETE … WHERE have a
// WHERE clause to descend into; INSERT DATA, DELETE DATA, LOAD, CREATE,
// DROP, CLEAR have none and are skipped entirely.
type UpdateKind int

const (
	UpdateInsertWhere UpdateKind = iota
	UpdateDeleteWhere
	UpdateInsertData
	UpdateDeleteData
	UpdateLoad
	UpdateCreate
	UpdateDrop
	UpdateClear
)

// UpdateOperation is one operation of an update request (SPARQL 1.1
// Update allows ";"-separated sequences; this core treats each operation
// independently for parameter detection).
type UpdateOperation struct {
	Kind UpdateKind

	// Template is the raw INSERT/DELETE triples template text, present for
	// UpdateInsertWhere, UpdateDeleteWhere, UpdateInsertData,
	// UpdateDeleteData.
	Template string

	// Where is the WHERE clause of an INSERT/DELETE … WHERE operation; nil
	// for every other kind.
	Where *GroupGraphPattern

	// Raw carries the full untouched source text for operations the core
	// never rewrites (LOAD/CREATE/DROP/CLEAR and the DATA forms), so the
	// generator can emit them unchanged.
	Raw string
}

// UpdateOperations is the AST for a full SPARQL 1.1 Update request: a
// sequence of UpdateOperation, each independently parameter-detectable.
type UpdateOperations struct {
	Operations []UpdateOperation
}
