// Package notify is the user-facing notification side channel. Every
// mutating storefront operation emits exactly one success or one failure
// notification; no structured error detail crosses this boundary.
package notify

import (
	"sync"

	"github.com/relovehq/storefront/pkg/logger"
)

type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// LogNotifier is the default Notifier for headless runs; it forwards
// notifications to the application log.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Success(msg string) {
	logger.Info("Notification", map[string]interface{}{
		"kind":    "success",
		"message": msg,
	})
}

func (n *LogNotifier) Error(msg string) {
	logger.Warn("Notification", map[string]interface{}{
		"kind":    "error",
		"message": msg,
	})
}

// Recorder captures notifications for assertions in tests.
type Recorder struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Success(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, msg)
}

func (r *Recorder) Error(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

// Successes returns a copy of the success messages recorded so far.
func (r *Recorder) Successes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.successes...)
}

// Errors returns a copy of the error messages recorded so far.
func (r *Recorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}

// Reset clears everything recorded.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = nil
	r.errors = nil
}
