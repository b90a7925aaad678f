package mail

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// sendTimeout bounds a single SMTP delivery attempt.
const sendTimeout = 30 * time.Second

// task is one queued verification send.
type task struct {
	to    string
	token string
}

// Dispatcher decouples email delivery from the HTTP response: handlers
// enqueue a task and return, a single background worker drains the queue.
//
// There is no retry queue and no delivery confirmation. If the buffer is
// full the task is dropped (and logged) rather than blocking a request.
type Dispatcher struct {
	mailer Mailer
	logger *slog.Logger

	tasks chan task
	wg    sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewDispatcher creates a Dispatcher with the given queue capacity.
func NewDispatcher(mailer Mailer, logger *slog.Logger, buffer int) *Dispatcher {
	return &Dispatcher{
		mailer: mailer,
		logger: logger,
		tasks:  make(chan task, buffer),
	}
}

// Start launches the background worker.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		d.wg.Add(1)
		go d.worker()
	})
}

// Stop closes the queue and waits for in-flight sends to finish.
// Queued tasks are drained before the worker exits.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.tasks)
	})
	d.wg.Wait()
}

// Enqueue schedules a verification email. It never blocks: when the queue
// is full the send is dropped, which is acceptable for best-effort delivery
// (the user can hit resend-verification).
func (d *Dispatcher) Enqueue(to, token string) {
	select {
	case d.tasks <- task{to: to, token: token}:
	default:
		d.logger.Warn("mail queue full, dropping verification email",
			slog.String("to", to),
		)
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for t := range d.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		err := d.mailer.SendVerification(ctx, t.to, t.token)
		cancel()

		if err != nil {
			d.logger.Error("verification email failed",
				slog.String("to", t.to),
				slog.String("error", err.Error()),
			)
			continue
		}

		d.logger.Info("verification email sent", slog.String("to", t.to))
	}
}
