package db

import (
	"database/sql"
	"errors"
	"sync"
	"time"
)

type DBTask struct {
	Exec func(*sql.DB) (interface{}, error)
	Resp chan DBResult
}

type DBResult struct {
	Data interface{}
	Err  error
}

// DBQueue funnels every statement through one worker goroutine so sqlite sees
// a single writer. Failed tasks are retried with a linear backoff, except for
// sql.ErrNoRows which is an answer, not a failure.
type DBQueue struct {
	tasks      chan DBTask
	db         *sql.DB
	maxRetry   int
	retryDelay time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

func NewDBQueue(db *sql.DB) *DBQueue {
	return newDBQueue(db, 100*time.Millisecond)
}

func NewDBQueueForTest(db *sql.DB) *DBQueue {
	return newDBQueue(db, time.Millisecond)
}

func newDBQueue(db *sql.DB, retryDelay time.Duration) *DBQueue {
	q := &DBQueue{
		tasks:      make(chan DBTask, 100),
		db:         db,
		maxRetry:   3,
		retryDelay: retryDelay,
		done:       make(chan struct{}),
	}
	go q.worker()
	return q
}

func (q *DBQueue) Execute(task func(*sql.DB) (interface{}, error)) (interface{}, error) {
	resp := make(chan DBResult, 1)
	q.tasks <- DBTask{Exec: task, Resp: resp}
	result := <-resp
	return result.Data, result.Err
}

func (q *DBQueue) worker() {
	defer close(q.done)
	for task := range q.tasks {
		task.Resp <- q.executeWithRetry(task)
	}
}

func (q *DBQueue) executeWithRetry(task DBTask) DBResult {
	var lastErr error
	for attempt := 0; attempt < q.maxRetry; attempt++ {
		data, err := task.Exec(q.db)
		if err == nil || errors.Is(err, sql.ErrNoRows) {
			return DBResult{Data: data, Err: err}
		}
		lastErr = err
		if attempt < q.maxRetry-1 {
			time.Sleep(time.Duration(attempt+1) * q.retryDelay)
		}
	}
	return DBResult{Err: lastErr}
}

// Close stops the worker after queued tasks finish. Execute must not be
// called afterwards.
func (q *DBQueue) Close() {
	q.closeOnce.Do(func() {
		close(q.tasks)
	})
	<-q.done
}

func (q *DBQueue) DB() *sql.DB {
	return q.db
}
