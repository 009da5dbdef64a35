package match

// Expr is a declarative scoring expression (§4.8's MatchExpr). Evaluate
// returns both the scalar score and whether the candidate should be
// included, since inclusion is defined recursively on the children's own
// inclusion decisions rather than derived purely from the combined score.
type Expr interface {
	Evaluate(s Scores) (score float64, included bool)
}

// Exact passes iff the candidate's canonical_hash equals the request's
// query_canonical_hash.
type Exact struct{}

func (Exact) Evaluate(s Scores) (float64, bool) {
	return s.Exact, s.HasExact && s.Exact >= 1.0
}

// Semantic gates the semantic signal against MinScore.
type Semantic struct {
	MinScore float64
}

func (e Semantic) Evaluate(s Scores) (float64, bool) {
	return s.Semantic, s.Semantic >= e.MinScore
}

// Perceptual gates the perceptual signal against MinScore.
type Perceptual struct {
	MinScore float64
}

func (e Perceptual) Evaluate(s Scores) (float64, bool) {
	return s.Perceptual, s.Perceptual >= e.MinScore
}

// Weighted blends semantic and perceptual scores by SemanticWeight and
// requires the blend to clear MinOverall.
type Weighted struct {
	SemanticWeight float64
	MinOverall     float64
}

func (e Weighted) Evaluate(s Scores) (float64, bool) {
	score := e.SemanticWeight*s.Semantic + (1-e.SemanticWeight)*s.Perceptual
	return score, score >= e.MinOverall
}

// And combines two expressions: the scalar score is the minimum of the
// children's scores; inclusion requires both children to include.
type And struct {
	L, R Expr
}

func (e And) Evaluate(s Scores) (float64, bool) {
	lScore, lInc := e.L.Evaluate(s)
	rScore, rInc := e.R.Evaluate(s)
	score := lScore
	if rScore < score {
		score = rScore
	}
	return score, lInc && rInc
}

// Or combines two expressions: the scalar score is the maximum of the
// children's scores; inclusion requires either child to include.
type Or struct {
	L, R Expr
}

func (e Or) Evaluate(s Scores) (float64, bool) {
	lScore, lInc := e.L.Evaluate(s)
	rScore, rInc := e.R.Evaluate(s)
	score := lScore
	if rScore > score {
		score = rScore
	}
	return score, lInc || rInc
}
