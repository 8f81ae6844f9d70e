// Package store is the reference implementation of the keyed document
// store collaborator: a synchronous, upsert-by-id save
// and load for every persisted entity, backed by a single JSON-blob
// table so the schema tracks the compiled IR's evolution without
// migrations per entity type.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/Smarticus81/psurRegOSv1/internal/model"
)

// SQLiteStore is a synchronous, single-connection keyed document store.
// The core never holds a connection itself; SQLiteStore exists outside
// the core's import graph except where callers (cmd/psurctl) choose to
// wire it in.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens db and ensures the documents table exists.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS documents (
		kind TEXT NOT NULL,
		id TEXT NOT NULL,
		data JSON NOT NULL,
		PRIMARY KEY (kind, id)
	);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

const (
	kindCompiledObligations = "compiled_obligations"
	kindCompiledRules       = "compiled_rules"
	kindTemplateSchema      = "template_schema"
	kindObligationMapping   = "obligation_mapping"
	kindEvidenceAtom        = "evidence_atom"
	kindSlotProposal        = "slot_proposal"
	kindAdjudicationResult  = "adjudication_result"
	kindTraceNode           = "trace_node"
)

func (s *SQLiteStore) save(ctx context.Context, kind, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: marshal %s %s: %w", kind, id, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (kind, id, data) VALUES (?, ?, ?)
		ON CONFLICT (kind, id) DO UPDATE SET data = excluded.data
	`, kind, id, string(data))
	if err != nil {
		return fmt.Errorf("store: save %s %s: %w", kind, id, err)
	}
	return nil
}

func (s *SQLiteStore) load(ctx context.Context, kind, id string, dest any) (bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE kind = ? AND id = ?`, kind, id).Scan(&data)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: load %s %s: %w", kind, id, err)
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("store: unmarshal %s %s: %w", kind, id, err)
	}
	return true, nil
}

func (s *SQLiteStore) loadAll(ctx context.Context, kind string) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, `SELECT id, data FROM documents WHERE kind = ?`, kind)
}

// SaveCompiledObligations upserts a CompiledObligations document under
// the caller-supplied key.
func (s *SQLiteStore) SaveCompiledObligations(ctx context.Context, key string, doc *model.CompiledObligations) error {
	return s.save(ctx, kindCompiledObligations, key, doc)
}

// LoadCompiledObligations loads a previously saved CompiledObligations,
// returning ok=false when no document with that key exists.
func (s *SQLiteStore) LoadCompiledObligations(ctx context.Context, key string) (*model.CompiledObligations, bool, error) {
	var doc model.CompiledObligations
	ok, err := s.load(ctx, kindCompiledObligations, key, &doc)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &doc, true, nil
}

// SaveCompiledRules upserts a CompiledRules document under the
// caller-supplied key.
func (s *SQLiteStore) SaveCompiledRules(ctx context.Context, key string, doc *model.CompiledRules) error {
	return s.save(ctx, kindCompiledRules, key, doc)
}

// LoadCompiledRules loads a previously saved CompiledRules.
func (s *SQLiteStore) LoadCompiledRules(ctx context.Context, key string) (*model.CompiledRules, bool, error) {
	var doc model.CompiledRules
	ok, err := s.load(ctx, kindCompiledRules, key, &doc)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &doc, true, nil
}

// SaveTemplateSchema upserts a TemplateSchema keyed by template_id.
func (s *SQLiteStore) SaveTemplateSchema(ctx context.Context, tmpl *model.TemplateSchema) error {
	return s.save(ctx, kindTemplateSchema, tmpl.TemplateID, tmpl)
}

// LoadTemplateSchema loads a TemplateSchema by template_id.
func (s *SQLiteStore) LoadTemplateSchema(ctx context.Context, templateID string) (*model.TemplateSchema, bool, error) {
	var tmpl model.TemplateSchema
	ok, err := s.load(ctx, kindTemplateSchema, templateID, &tmpl)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &tmpl, true, nil
}

// SaveObligationMapping upserts an ObligationMapping keyed by mapping_id.
func (s *SQLiteStore) SaveObligationMapping(ctx context.Context, mapping *model.ObligationMapping) error {
	return s.save(ctx, kindObligationMapping, mapping.MappingID, mapping)
}

// LoadObligationMapping loads an ObligationMapping by mapping_id.
func (s *SQLiteStore) LoadObligationMapping(ctx context.Context, mappingID string) (*model.ObligationMapping, bool, error) {
	var mapping model.ObligationMapping
	ok, err := s.load(ctx, kindObligationMapping, mappingID, &mapping)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &mapping, true, nil
}

// SaveEvidenceAtom upserts an EvidenceAtom keyed by atom_id.
func (s *SQLiteStore) SaveEvidenceAtom(ctx context.Context, atom *model.EvidenceAtom) error {
	return s.save(ctx, kindEvidenceAtom, atom.AtomID, atom)
}

// LoadEvidenceAtom loads an EvidenceAtom by atom_id.
func (s *SQLiteStore) LoadEvidenceAtom(ctx context.Context, atomID string) (*model.EvidenceAtom, bool, error) {
	var atom model.EvidenceAtom
	ok, err := s.load(ctx, kindEvidenceAtom, atomID, &atom)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &atom, true, nil
}

// LoadAllEvidenceAtoms returns every stored evidence atom keyed by
// atom_id, matching the shape the adjudication engine consumes directly.
func (s *SQLiteStore) LoadAllEvidenceAtoms(ctx context.Context) (map[string]model.EvidenceAtom, error) {
	rows, err := s.loadAll(ctx, kindEvidenceAtom)
	if err != nil {
		return nil, fmt.Errorf("store: load all evidence atoms: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]model.EvidenceAtom)
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("store: scan evidence atom: %w", err)
		}
		var atom model.EvidenceAtom
		if err := json.Unmarshal([]byte(data), &atom); err != nil {
			return nil, fmt.Errorf("store: unmarshal evidence atom %s: %w", id, err)
		}
		out[id] = atom
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveSlotProposal upserts a SlotProposal keyed by proposal_id.
func (s *SQLiteStore) SaveSlotProposal(ctx context.Context, proposal *model.SlotProposal) error {
	return s.save(ctx, kindSlotProposal, proposal.ProposalID, proposal)
}

// LoadSlotProposal loads a SlotProposal by proposal_id.
func (s *SQLiteStore) LoadSlotProposal(ctx context.Context, proposalID string) (*model.SlotProposal, bool, error) {
	var proposal model.SlotProposal
	ok, err := s.load(ctx, kindSlotProposal, proposalID, &proposal)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &proposal, true, nil
}

// SaveAdjudicationResult upserts an AdjudicationResult keyed by
// adjudication_id.
func (s *SQLiteStore) SaveAdjudicationResult(ctx context.Context, result *model.AdjudicationResult) error {
	return s.save(ctx, kindAdjudicationResult, result.AdjudicationID, result)
}

// LoadAdjudicationResult loads an AdjudicationResult by adjudication_id.
func (s *SQLiteStore) LoadAdjudicationResult(ctx context.Context, adjudicationID string) (*model.AdjudicationResult, bool, error) {
	var result model.AdjudicationResult
	ok, err := s.load(ctx, kindAdjudicationResult, adjudicationID, &result)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &result, true, nil
}

// SaveTraceNode upserts a TraceNode keyed by trace_id.
func (s *SQLiteStore) SaveTraceNode(ctx context.Context, node *model.TraceNode) error {
	return s.save(ctx, kindTraceNode, node.TraceID, node)
}

// LoadTraceNode loads a TraceNode by trace_id.
func (s *SQLiteStore) LoadTraceNode(ctx context.Context, traceID string) (*model.TraceNode, bool, error) {
	var node model.TraceNode
	ok, err := s.load(ctx, kindTraceNode, traceID, &node)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &node, true, nil
}

// ExportTraces returns every stored TraceNode. psurRef is accepted for
// interface parity but not applied as a filter; it is reserved for
// future use.
func (s *SQLiteStore) ExportTraces(ctx context.Context, psurRef *string) ([]model.TraceNode, error) {
	_ = psurRef
	rows, err := s.loadAll(ctx, kindTraceNode)
	if err != nil {
		return nil, fmt.Errorf("store: export traces: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.TraceNode
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("store: scan trace node: %w", err)
		}
		var node model.TraceNode
		if err := json.Unmarshal([]byte(data), &node); err != nil {
			return nil, fmt.Errorf("store: unmarshal trace node %s: %w", id, err)
		}
		out = append(out, node)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
