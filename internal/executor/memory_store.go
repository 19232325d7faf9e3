package executor

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/recalcitrant/querylib/internal/term"
)

// Quad is one stored triple (the "graph" position is not modeled; GRAPH
// blocks are evaluated against the same default store, per this
// executor's scope as a test/demo backend rather than a full quad
// store — see SPEC_FULL.md's non-goals for the in-memory executor).
type Quad struct {
	S, P, O term.Term
}

// Store abstracts the quad index an OxigraphMemory executor evaluates
// against. Two implementations exist: mapStore (pure in-process, default)
// and badgerStore (persistent), mirroring wbrown/janus-datalog's own
// Badger-backed datom index. The caller picks one; nothing in the module
// reads INTERNAL_OXIGRAPH_DB_PATH to choose between them.
type Store interface {
	Add(q Quad) error
	All() ([]Quad, error)
}

// NewMapStore builds a Store backed by a plain in-process slice.
func NewMapStore() Store {
	return &mapStore{}
}

type mapStore struct {
	mu    sync.RWMutex
	quads []Quad
}

func (s *mapStore) Add(q Quad) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quads = append(s.quads, q)
	return nil
}

func (s *mapStore) All() ([]Quad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Quad, len(s.quads))
	copy(out, s.quads)
	return out, nil
}

// NewBadgerStore opens (or creates) a Badger-backed quad index at path.
// Quads already stored there are kept, and new ones are appended after them.
func NewBadgerStore(path string) (Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("executor: opening badger store at %q: %w", path, err)
	}
	var seq uint64
	err = db.View(func(txn *badger.Txn) error {
		iopts := badger.DefaultIteratorOptions
		iopts.PrefetchValues = false
		it := txn.NewIterator(iopts)
		defer it.Close()
		for it.Seek([]byte("quad:")); it.ValidForPrefix([]byte("quad:")); it.Next() {
			seq++
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("executor: reading badger store at %q: %w", path, err)
	}
	return &badgerStore{db: db, seq: seq}, nil
}

type badgerStore struct {
	db  *badger.DB
	mu  sync.Mutex
	seq uint64
}

// quadRecord is Quad flattened into plain strings so it can round-trip
// through JSON without registering term.Term's concrete types with a
// generic encoder.
type quadRecord struct {
	SKind, SValue, SDatatype, SLang string
	PKind, PValue, PDatatype, PLang string
	OKind, OValue, ODatatype, OLang string
}

func toRecordField(t term.Term) (kind, value, datatype, lang string) {
	switch v := t.(type) {
	case term.IRI:
		return "iri", string(v), "", ""
	case term.Literal:
		return "literal", v.Lexical, string(v.Datatype), v.Lang
	case term.Blank:
		return "blank", string(v), "", ""
	case term.PrefixedName:
		return "prefixed", string(v), "", ""
	default:
		return "iri", t.String(), "", ""
	}
}

func fromRecordField(kind, value, datatype, lang string) term.Term {
	switch kind {
	case "literal":
		return term.Literal{Lexical: value, Datatype: term.IRI(datatype), Lang: lang}
	case "blank":
		return term.Blank(value)
	case "prefixed":
		return term.PrefixedName(value)
	default:
		return term.IRI(value)
	}
}

func (b *badgerStore) Add(q Quad) error {
	b.mu.Lock()
	b.seq++
	key := fmt.Sprintf("quad:%020d", b.seq)
	b.mu.Unlock()

	sk, sv, sd, sl := toRecordField(q.S)
	pk, pv, pd, pl := toRecordField(q.P)
	ok, ov, od, ol := toRecordField(q.O)
	rec := quadRecord{
		SKind: sk, SValue: sv, SDatatype: sd, SLang: sl,
		PKind: pk, PValue: pv, PDatatype: pd, PLang: pl,
		OKind: ok, OValue: ov, ODatatype: od, OLang: ol,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (b *badgerStore) All() ([]Quad, error) {
	var out []Quad
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte("quad:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var rec quadRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				out = append(out, Quad{
					S: fromRecordField(rec.SKind, rec.SValue, rec.SDatatype, rec.SLang),
					P: fromRecordField(rec.PKind, rec.PValue, rec.PDatatype, rec.PLang),
					O: fromRecordField(rec.OKind, rec.OValue, rec.ODatatype, rec.OLang),
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}
