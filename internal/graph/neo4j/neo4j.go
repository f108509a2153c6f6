package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/efebarandurmaz/ompcfg/internal/cfg"
	"github.com/efebarandurmaz/ompcfg/internal/graph"
)

// Neo4jRepository implements graph.Repository using Neo4j. A unit becomes a
// (:Unit) node owning (:Block) nodes linked by [:FLOWS_TO].
type Neo4jRepository struct {
	driver neo4j.DriverWithContext
}

// NewNeo4j creates a Neo4j-backed repository and verifies connectivity.
func NewNeo4j(ctx context.Context, uri, username, password string) (*Neo4jRepository, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Neo4jRepository{driver: driver}, nil
}

const (
	clearUnit = "MERGE (u:Unit {name: $unit}) SET u.archetype = $archetype, u.title = $title " +
		"WITH u OPTIONAL MATCH (u)-[:HAS_BLOCK]->(b:Block) DETACH DELETE b"
	createBlocks = "MATCH (u:Unit {name: $unit}) UNWIND $blocks AS blk " +
		"CREATE (u)-[:HAS_BLOCK]->(b:Block) SET b = blk"
	createEdges = "UNWIND $edges AS e " +
		"MATCH (a:Block {key: e.from}), (b:Block {key: e.to}) " +
		"CREATE (a)-[:FLOWS_TO {label: e.label, repeat: e.repeat, color: e.color, seq: e.seq}]->(b)"
	loadUnit   = "MATCH (u:Unit {name: $unit}) RETURN u.title AS title"
	loadBlocks = "MATCH (:Unit {name: $unit})-[:HAS_BLOCK]->(b:Block) " +
		"RETURN b.id AS id, b.label AS label, b.kind AS kind, b.entry AS entry, b.exit AS exit ORDER BY b.seq"
	loadEdges = "MATCH (:Unit {name: $unit})-[:HAS_BLOCK]->(a:Block)-[r:FLOWS_TO]->(b:Block) " +
		"RETURN a.id AS from, b.id AS to, r.label AS label, r.repeat AS repeat, r.color AS color ORDER BY r.seq"
	querySuccessors = "MATCH (:Unit {name: $unit})-[:HAS_BLOCK]->(a:Block {id: $block})-[r:FLOWS_TO]->(b:Block) " +
		"RETURN b.id AS id ORDER BY r.seq"
)

// blockKey makes block identifiers unique across units.
func blockKey(unit, id string) string {
	return unit + "#" + id
}

// blockRows flattens g's nodes into Cypher parameters.
func blockRows(unit string, g *cfg.Graph) []map[string]any {
	rows := make([]map[string]any, len(g.Nodes))
	for i, n := range g.Nodes {
		rows[i] = map[string]any{
			"key":   blockKey(unit, n.ID),
			"id":    n.ID,
			"label": n.Label,
			"kind":  string(n.Kind),
			"entry": n.Entry,
			"exit":  n.Exit,
			"seq":   int64(i),
		}
	}
	return rows
}

// edgeRows flattens g's edges into Cypher parameters.
func edgeRows(unit string, g *cfg.Graph) []map[string]any {
	rows := make([]map[string]any, len(g.Edges))
	for i, e := range g.Edges {
		rows[i] = map[string]any{
			"from":   blockKey(unit, e.From),
			"to":     blockKey(unit, e.To),
			"label":  e.Label,
			"repeat": e.Repeat,
			"color":  e.Color,
			"seq":    int64(i),
		}
	}
	return rows
}

func (r *Neo4jRepository) StoreGraph(ctx context.Context, unit, archetype string, g *cfg.Graph) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		steps := []struct {
			query  string
			params map[string]any
		}{
			{clearUnit, map[string]any{"unit": unit, "archetype": archetype, "title": g.Name}},
			{createBlocks, map[string]any{"unit": unit, "blocks": blockRows(unit, g)}},
			{createEdges, map[string]any{"edges": edgeRows(unit, g)}},
		}
		for _, s := range steps {
			if _, err := tx.Run(ctx, s.query, s.params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("store graph %s: %w", unit, err)
	}
	return nil
}

func (r *Neo4jRepository) LoadGraph(ctx context.Context, unit string) (*cfg.Graph, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		params := map[string]any{"unit": unit}

		res, err := tx.Run(ctx, loadUnit, params)
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, graph.ErrNotFound
		}
		g := &cfg.Graph{Name: stringValue(res.Record(), "title")}

		res, err = tx.Run(ctx, loadBlocks, params)
		if err != nil {
			return nil, err
		}
		for res.Next(ctx) {
			rec := res.Record()
			g.Nodes = append(g.Nodes, cfg.Node{
				ID:    stringValue(rec, "id"),
				Label: stringValue(rec, "label"),
				Kind:  cfg.NodeKind(stringValue(rec, "kind")),
				Entry: boolValue(rec, "entry"),
				Exit:  boolValue(rec, "exit"),
			})
		}

		res, err = tx.Run(ctx, loadEdges, params)
		if err != nil {
			return nil, err
		}
		for res.Next(ctx) {
			rec := res.Record()
			g.Edges = append(g.Edges, cfg.Edge{
				From:   stringValue(rec, "from"),
				To:     stringValue(rec, "to"),
				Label:  stringValue(rec, "label"),
				Repeat: boolValue(rec, "repeat"),
				Color:  stringValue(rec, "color"),
			})
		}
		return g, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("load graph %s: %w", unit, err)
	}
	return result.(*cfg.Graph), nil
}

func (r *Neo4jRepository) QuerySuccessors(ctx context.Context, unit, block string) ([]string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, querySuccessors, map[string]any{"unit": unit, "block": block})
		if err != nil {
			return nil, err
		}
		var ids []string
		for res.Next(ctx) {
			ids = append(ids, stringValue(res.Record(), "id"))
		}
		return ids, res.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (r *Neo4jRepository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

type record interface {
	Get(key string) (any, bool)
}

func stringValue(rec record, key string) string {
	v, _ := rec.Get(key)
	s, _ := v.(string)
	return s
}

func boolValue(rec record, key string) bool {
	v, _ := rec.Get(key)
	b, _ := v.(bool)
	return b
}

var _ graph.Repository = (*Neo4jRepository)(nil)
