package decompose

import "errors"

var (
	// ErrInvalidTiers is returned for an empty ladder or one that is not strictly
	// descending with positive magnitudes.
	ErrInvalidTiers = errors.New("invalid tiers")
	// ErrNonFinite is returned when a current or target value is NaN or infinite.
	ErrNonFinite = errors.New("non-finite value")
)

// #region plan
// Plan is an ordered token sequence and the value after each token.
// Trajectory[0] is the starting value, so len(Trajectory) == len(Tokens)+1.
type Plan[T any] struct {
	Tokens     []int
	Trajectory []T
}

func newPlan[T any](start T) Plan[T] {
	return Plan[T]{Tokens: []int{}, Trajectory: []T{start}}
}

func (p *Plan[T]) push(token int, value T) {
	p.Tokens = append(p.Tokens, token)
	p.Trajectory = append(p.Trajectory, value)
}

// Len is the number of tokens.
func (p Plan[T]) Len() int { return len(p.Tokens) }

// Final is the value after the last token.
func (p Plan[T]) Final() T { return p.Trajectory[len(p.Trajectory)-1] }

// #endregion plan
