package ledger

import (
	"github.com/ashita-ai/keifu/internal/model"
)

// Lineage reconstructs the full supersession/reversal chain containing id,
// ordered from earliest ancestor to latest descendant, with id's own record
// at its correct position. An unknown id yields an empty chain.
//
// Identifiers are allocated monotonically and links only point at records
// created later, so the graph is acyclic by construction. The visited set
// is kept anyway: Import trusts its source, and a malformed snapshot must
// terminate with a partial chain rather than loop.
func (s *Store) Lineage(id string) []model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lineage(id, make(map[string]bool))
}

func (s *Store) lineage(id string, visited map[string]bool) []model.Record {
	if visited[id] {
		return nil
	}
	visited[id] = true

	i, ok := s.index(id)
	if !ok {
		return nil
	}
	cur := s.records[i]
	chain := []model.Record{cur.Clone()}

	// The record that id replaced: the one whose superseded_by names id.
	// Linear scan; lineage chains are short relative to the ledger.
	for j := range s.records {
		if s.records[j].SupersededBy == id && !visited[s.records[j].ID] {
			chain = append(s.lineage(s.records[j].ID, visited), chain...)
			break
		}
	}

	// The record that replaced id.
	if succ := cur.SupersededBy; succ != "" && !visited[succ] {
		if _, ok := s.index(succ); ok {
			chain = append(chain, s.lineage(succ, visited)...)
		}
	}

	return chain
}
