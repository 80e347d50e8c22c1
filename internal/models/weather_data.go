package models

// CallResult is the weather reported for one city.
type CallResult struct {
	City        string  `json:"city"`
	Weather     string  `json:"weather"`
	Temperature float64 `json:"temperature"`
}

// Result is what a fetch unit hands to the aggregator: Success when Err is
// nil, Failure(Query, Err) otherwise.
type Result struct {
	RunID      string
	Query      string
	CallResult CallResult
	Err        error
}

func Success(query string, data CallResult) Result {
	return Result{Query: query, CallResult: data}
}

func Failure(query string, err error) Result {
	return Result{Query: query, Err: err}
}

func (r Result) OK() bool {
	return r.Err == nil
}
