package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// maxFileSizeMB caps a single log file between daily rotations.
const maxFileSizeMB = 1024

// openFile opens path for appending. With purgeCount > 0 the file is
// rotated daily at local midnight, archives are gzip-compressed and named
// with a timestamp, and only purgeCount archives are kept.
func openFile(path string, purgeCount int) (io.WriteCloser, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	if purgeCount <= 0 {
		return f, nil
	}
	// lumberjack opens lazily; the probe above surfaces errors at open time.
	f.Close()

	r := &rotatingFile{
		Logger: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxFileSizeMB,
			MaxBackups: purgeCount,
			LocalTime:  true,
			Compress:   true,
		},
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go r.daily(time.Now)
	return r, nil
}

// rotatingFile is a lumberjack logger with a midnight rotation schedule.
type rotatingFile struct {
	*lumberjack.Logger
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func (r *rotatingFile) daily(now func() time.Time) {
	defer close(r.done)
	for {
		timer := time.NewTimer(untilMidnight(now()))
		select {
		case <-r.stop:
			timer.Stop()
			return
		case <-timer.C:
			if err := r.Rotate(); err != nil {
				stderrf("log rotation of %s failed: %v\n", r.Filename, err)
			}
		}
	}
}

// Close stops the rotation schedule and closes the current file.
func (r *rotatingFile) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.stop)
		<-r.done
		err = r.Logger.Close()
	})
	return err
}

// untilMidnight returns the time left until the next local midnight.
func untilMidnight(t time.Time) time.Duration {
	y, m, d := t.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
	return next.Sub(t)
}
