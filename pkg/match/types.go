package match

// Mode selects which signals a match request needs computed.
type Mode int

const (
	ModeSemantic Mode = iota
	ModePerceptual
	ModeHybrid
)

func (m Mode) needsSemantic() bool   { return m == ModeSemantic || m == ModeHybrid }
func (m Mode) needsPerceptual() bool { return m == ModePerceptual || m == ModeHybrid }

// Config is the per-request match configuration.
type Config struct {
	Mode             Mode
	Strategy         Expr
	MaxResults       int
	TenantEnforce    bool
	OversampleFactor float64
	Explain          bool
	PolicyID         string
	PolicyVersion    string
}

// Request is the Matcher's single entry point's input.
type Request struct {
	TenantID           string
	QueryText          string
	Config             Config
	QueryCanonicalHash string
}

// Scores bundles the three signals a MatchExpr evaluates against.
type Scores struct {
	Semantic      float64
	Perceptual    float64
	Exact         float64
	HasExact      bool
}

// Hit is one match result: the final scalar score plus the per-signal
// components that produced it, for callers that want an explanation.
type Hit struct {
	CanonicalHash string
	Score         float64
	Semantic      float64
	Perceptual    float64
	Exact         float64
}

// Metrics receives one record per completed match_document call.
type Metrics interface {
	RecordMatch(tenantID string, mode Mode, latencySeconds float64, hitCount int)
}
