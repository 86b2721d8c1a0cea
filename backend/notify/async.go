// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const deliveryTimeout = 5 * time.Second

type job struct {
	userID string
	n      Notification
}

// AsyncSink decouples notification delivery from the message write path.
// Notify enqueues onto a bounded queue and returns immediately; a worker
// drains the queue against the underlying sink. When the queue is full the
// notification is dropped with a warning rather than blocking a send.
type AsyncSink struct {
	sink Sink
	jobs chan job
	log  zerolog.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewAsyncSink(sink Sink, queueSize int, log zerolog.Logger) *AsyncSink {
	if queueSize <= 0 {
		queueSize = 256
	}
	s := &AsyncSink{
		sink: sink,
		jobs: make(chan job, queueSize),
		log:  log,
	}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *AsyncSink) Notify(_ context.Context, userID string, n Notification) error {
	select {
	case s.jobs <- job{userID: userID, n: n}:
	default:
		s.log.Warn().Str("user_id", userID).Msg("notification queue full, dropping")
	}
	return nil
}

// Close drains outstanding notifications and stops the worker.
func (s *AsyncSink) Close() {
	s.stopOnce.Do(func() {
		close(s.jobs)
	})
	s.wg.Wait()
}

func (s *AsyncSink) run() {
	defer s.wg.Done()

	for j := range s.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		if err := s.sink.Notify(ctx, j.userID, j.n); err != nil {
			s.log.Warn().Err(err).Str("user_id", j.userID).Msg("notification delivery failed")
		}
		cancel()
	}
}
