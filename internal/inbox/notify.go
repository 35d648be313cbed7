package inbox

import (
	"fmt"
	"io"
	"sync"
)

// Notifier delivers user-visible notifications. How they block the user is
// up to the front-end.
type Notifier interface {
	Notify(message string)
}

// Queue collects notifications until they are drained.
type Queue struct {
	mu       sync.Mutex
	messages []string
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Notify implements Notifier.
func (q *Queue) Notify(message string) {
	q.mu.Lock()
	q.messages = append(q.messages, message)
	q.mu.Unlock()
}

// Drain returns all queued notifications in order and empties the queue.
func (q *Queue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.messages
	q.messages = nil
	return out
}

// Len returns the number of queued notifications.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}

// WriterNotifier prints each notification on its own line.
type WriterNotifier struct {
	W io.Writer
}

// Notify implements Notifier.
func (n WriterNotifier) Notify(message string) {
	fmt.Fprintln(n.W, message)
}
