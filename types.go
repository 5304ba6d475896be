package lplib

// The types below are the named function types of the
// lplib/speculative package; coloring also uses lplib.Predicate when
// it calls speculative.And. The lplib/parallel and lplib/sequential
// packages spell out their function parameter types inline and do not
// use these names.
type (
	// A Thunk is a function that neither receives nor returns any
	// parameters.
	Thunk func()

	// An ErrThunk is a function that receives no parameters and
	// returns only an error value or nil.
	ErrThunk func() error

	// A RangeFunc is a function that receives a range from low to
	// high, with 0 <= low <= high.
	RangeFunc func(low, high int)

	// An ErrRangeFunc is a function that receives a range from low to
	// high, with 0 <= low <= high, and returns an error value or nil.
	ErrRangeFunc func(low, high int) error

	// A Predicate is a function that receives no parameters and
	// returns a bool.
	Predicate func() bool

	// An ErrPredicate is a function that receives no parameters and
	// returns a bool, and an error value or nil.
	ErrPredicate func() (bool, error)

	// A RangePredicate is a function that receives a range from low
	// to high, with 0 <= low <= high, and returns a bool.
	RangePredicate func(low, high int) bool

	// An ErrRangePredicate is a function that receives a range from
	// low to high, with 0 <= low <= high, and returns a bool, and an
	// error value or nil.
	ErrRangePredicate func(low, high int) (bool, error)

	// An ErrRangeReducer reduces a range to an interface{} result, or
	// an error.
	ErrRangeReducer func(low, high int) (interface{}, error)

	// An ErrPairReducer combines two interface{} results, or returns
	// an error.
	ErrPairReducer func(x, y interface{}) (interface{}, error)

	// An ErrIntRangeReducer reduces a range to an int result, or an
	// error.
	ErrIntRangeReducer func(low, high int) (int, error)

	// An ErrIntPairReducer combines two int results, or returns an
	// error.
	ErrIntPairReducer func(x, y int) (int, error)

	// An ErrFloat64RangeReducer reduces a range to a float64 result,
	// or an error.
	ErrFloat64RangeReducer func(low, high int) (float64, error)

	// An ErrFloat64PairReducer combines two float64 results, or
	// returns an error.
	ErrFloat64PairReducer func(x, y float64) (float64, error)

	// An ErrStringRangeReducer reduces a range to a string result, or
	// an error.
	ErrStringRangeReducer func(low, high int) (string, error)

	// An ErrStringPairReducer combines two string results, or returns
	// an error.
	ErrStringPairReducer func(x, y string) (string, error)
)
