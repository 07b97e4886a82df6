package als

// None is a Source that always reports zero ambient light. It is used when
// no ALS is configured at all, so that the rest of the fabric (fan-out,
// predictors) still has something to poll.
type None struct{}

// Get always returns 0, nil.
func (None) Get() (uint64, error) {
	return 0, nil
}

var _ Source = None{}
