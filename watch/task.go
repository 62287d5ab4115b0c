package watch

import (
	"github.com/sourcegraph/conc/panics"
	"github.com/yato-cli/yato/log"
)

// task is a background job owned by a session. The session never waits for
// it; it is abandoned on teardown and only Done is observable.
type task struct {
	name string
	done chan struct{}
	err  error
}

func spawn(name string, f func()) *task {
	t := &task{name: name, done: make(chan struct{})}

	go func() {
		defer close(t.done)

		var catcher panics.Catcher
		catcher.Try(f)
		if r := catcher.Recovered(); r != nil {
			t.err = r.AsError()
			log.Errorf("%s task panicked: %v", name, t.err)
		}
	}()

	return t
}

// Done is closed when the task has returned.
func (t *task) Done() <-chan struct{} {
	return t.done
}

// Err is the recovered panic of a finished task, if any.
func (t *task) Err() error {
	<-t.done
	return t.err
}
