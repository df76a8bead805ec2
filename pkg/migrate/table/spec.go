package table

// DefaultChunkSize : rows per batch when neither the table nor the run sets one
const DefaultChunkSize = 10000

// Spec : a table to migrate. ChunkSize 0 means the run default.
type Spec struct {
	Name      string
	ChunkSize int
}

// Specs wraps plain names.
func Specs(names ...string) []Spec {
	specs := make([]Spec, len(names))
	for i, n := range names {
		specs[i] = Spec{Name: n}
	}
	return specs
}

// Resolve keeps first occurrence order, drops repeated names (the first
// occurrence's chunk size wins) and fills in chunk sizes from runChunkSize,
// then DefaultChunkSize.
func Resolve(specs []Spec, runChunkSize int) []Spec {
	if runChunkSize <= 0 {
		runChunkSize = DefaultChunkSize
	}
	seen := make(map[string]struct{}, len(specs))
	out := make([]Spec, 0, len(specs))
	for _, s := range specs {
		if _, dup := seen[s.Name]; dup {
			continue
		}
		seen[s.Name] = struct{}{}
		if s.ChunkSize <= 0 {
			s.ChunkSize = runChunkSize
		}
		out = append(out, s)
	}
	return out
}
