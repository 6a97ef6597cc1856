package testutil

// FixedIDGenerator returns the same session id every time.
//
// Useful when a trace should not depend on how many sessions were opened.
// If id is empty, Generate returns "test-session".
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a new fixed session id generator.
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-session"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed id. Implements session.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
