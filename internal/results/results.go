// Package results defines the operation result contract shared by all
// service layers. Business failures are values carried in the Failure
// payload with a nil error, so the transport only redelivers on
// infrastructure errors.
package results

// OperationResult carries either a success payload or a business failure
// payload. Both nil means the operation produced nothing to report.
type OperationResult[S any, F any] struct {
	Success *S
	Failure *F
}

// SuccessResult wraps a success payload.
func SuccessResult[S any, F any](payload *S) OperationResult[S, F] {
	return OperationResult[S, F]{Success: payload}
}

// FailureResult wraps a business failure payload.
func FailureResult[S any, F any](payload *F) OperationResult[S, F] {
	return OperationResult[S, F]{Failure: payload}
}

func (r OperationResult[S, F]) IsSuccess() bool { return r.Success != nil }

func (r OperationResult[S, F]) IsFailure() bool { return r.Failure != nil }
