package driven

import "context"

// TaskRunner executes fire-and-forget work decoupled from the request
// path, such as analytics persistence. A task's failure must never
// affect the synchronous response that scheduled it.
type TaskRunner interface {
	// Submit schedules fn for asynchronous execution.
	Submit(fn func(ctx context.Context))

	// Close waits for in-flight tasks and stops accepting new ones.
	Close() error
}
