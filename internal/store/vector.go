package store

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"
)

// VectorGraph holds one collection's embeddings in an HNSW graph keyed by
// chunk identifier. Deletion is lazy: the node stays in the graph but loses
// its ID mapping, which keeps coder/hnsw's delete path out of the picture
// and costs only orphaned nodes until the graph is rebuilt.
type VectorGraph struct {
	mu         sync.RWMutex
	graph      *hnsw.Graph[uint64]
	dimensions int

	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64

	closed bool
}

// graphMeta is the sidecar state persisted next to the exported graph.
type graphMeta struct {
	IDMap      map[string]uint64
	NextKey    uint64
	Dimensions int
}

// NewVectorGraph creates an empty cosine-distance graph for vectors of the
// given width.
func NewVectorGraph(dimensions int) *VectorGraph {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 20
	graph.Ml = 0.25

	return &VectorGraph{
		graph:      graph,
		dimensions: dimensions,
		idMap:      make(map[string]uint64),
		keyMap:     make(map[uint64]string),
	}
}

// Dimensions reports the vector width the graph accepts.
func (g *VectorGraph) Dimensions() int {
	return g.dimensions
}

// Add inserts or replaces vectors by ID.
func (g *VectorGraph) Add(ids []string, vectors [][]float32) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return fmt.Errorf("vector graph is closed")
	}
	for _, v := range vectors {
		if len(v) != g.dimensions {
			return fmt.Errorf("vector dimension mismatch: expected %d, got %d", g.dimensions, len(v))
		}
	}

	for i, id := range ids {
		if oldKey, ok := g.idMap[id]; ok {
			delete(g.keyMap, oldKey)
			delete(g.idMap, id)
		}

		key := g.nextKey
		g.nextKey++

		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		normalizeInPlace(vec)

		g.graph.Add(hnsw.MakeNode(key, vec))
		g.idMap[id] = key
		g.keyMap[key] = id
	}
	return nil
}

// Search returns the k nearest neighbors of query with cosine similarity
// reported as 1 - distance/2.
func (g *VectorGraph) Search(query []float32, k int) ([]VectorHit, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed {
		return nil, fmt.Errorf("vector graph is closed")
	}
	if len(query) != g.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", g.dimensions, len(query))
	}
	if g.graph.Len() == 0 {
		return nil, nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	normalizeInPlace(q)

	// Over-fetch so lazily deleted nodes do not eat into k.
	fetch := k + (g.graph.Len() - len(g.idMap))
	nodes := g.graph.Search(q, fetch)

	hits := make([]VectorHit, 0, k)
	for _, node := range nodes {
		id, ok := g.keyMap[node.Key]
		if !ok {
			continue // orphaned by lazy deletion
		}
		distance := g.graph.Distance(q, node.Value)
		hits = append(hits, VectorHit{
			ID:         id,
			Distance:   distance,
			Similarity: 1 - distance/2,
		})
		if len(hits) == k {
			break
		}
	}
	return hits, nil
}

// Delete removes vectors by ID. Unknown IDs are ignored.
func (g *VectorGraph) Delete(ids []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	for _, id := range ids {
		if key, ok := g.idMap[id]; ok {
			delete(g.keyMap, key)
			delete(g.idMap, id)
		}
	}
}

// Contains reports whether id has a live vector.
func (g *VectorGraph) Contains(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.idMap[id]
	return ok
}

// Count returns the number of live vectors.
func (g *VectorGraph) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.idMap)
}

// Save writes the graph and its ID mappings atomically (temp file + rename).
func (g *VectorGraph) Save(path string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed {
		return fmt.Errorf("vector graph is closed")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create graph file: %w", err)
	}
	if err := g.graph.Export(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to export graph: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close graph file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename graph file: %w", err)
	}

	return g.saveMeta(path + ".meta")
}

func (g *VectorGraph) saveMeta(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create graph metadata: %w", err)
	}
	meta := graphMeta{IDMap: g.idMap, NextKey: g.nextKey, Dimensions: g.dimensions}
	if err := gob.NewEncoder(f).Encode(meta); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode graph metadata: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close graph metadata: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadVectorGraph opens the graph saved at path, or returns a fresh empty
// graph when no file exists yet.
func LoadVectorGraph(path string, dimensions int) (*VectorGraph, error) {
	g := NewVectorGraph(dimensions)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return g, nil
	}
	if err := g.Load(path); err != nil {
		return nil, err
	}
	return g, nil
}

// Load reads a graph previously written by Save.
func (g *VectorGraph) Load(path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return fmt.Errorf("vector graph is closed")
	}
	if err := g.loadMeta(path + ".meta"); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open graph file: %w", err)
	}
	defer f.Close()

	// Import needs an io.ByteReader.
	if err := g.graph.Import(bufio.NewReader(f)); err != nil {
		return fmt.Errorf("failed to import graph: %w", err)
	}
	return nil
}

func (g *VectorGraph) loadMeta(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open graph metadata: %w", err)
	}
	defer f.Close()

	var meta graphMeta
	if err := gob.NewDecoder(f).Decode(&meta); err != nil {
		return fmt.Errorf("failed to decode graph metadata: %w", err)
	}

	g.idMap = meta.IDMap
	g.nextKey = meta.NextKey
	g.dimensions = meta.Dimensions
	g.keyMap = make(map[uint64]string, len(meta.IDMap))
	for id, key := range meta.IDMap {
		g.keyMap[key] = id
	}
	return nil
}

// Close releases the graph. Further calls error.
func (g *VectorGraph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	g.graph = nil
	return nil
}

// normalizeInPlace scales v to unit length; the zero vector is left alone.
func normalizeInPlace(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}
