package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	serrors "github.com/swarmcom/swarm/internal/errors"
	"github.com/swarmcom/swarm/internal/metrics"
)

// VerifyInterval is the minimum time between two checks that the bound log
// file still exists.
const VerifyInterval = 5 * time.Second

// stderr receives open failures. Replaced in tests.
var stderr io.Writer = os.Stderr

func stderrf(format string, args ...any) {
	fmt.Fprintf(stderr, format, args...)
}

// Sink is a named, leveled log channel bound to a file. If the file is
// removed while the sink is open, the sink notices on a later emit and
// reopens the same path under a new internal name.
//
// A Sink is safe for concurrent use.
type Sink struct {
	name     string
	priority atomic.Int32

	mu           sync.Mutex
	instance     int
	internalName string
	path         string
	format       string
	purgeCount   int
	pattern      *Pattern
	out          io.WriteCloser
	lastVerify   time.Time
	now          func() time.Time
}

// NewSink creates a closed sink. The internal name starts as name-0.
func NewSink(name string) *Sink {
	s := &Sink{
		name:   name,
		format: DefaultFormat,
		now:    time.Now,
	}
	s.internalName = fmt.Sprintf("%s-%d", name, s.instance)
	s.priority.Store(int32(PrioInformation))
	return s
}

type openOptions struct {
	priority   Priority
	format     string
	purgeCount int
}

// OpenOption configures Open.
type OpenOption func(*openOptions)

// WithPriority sets the most verbose priority written. Default Information.
func WithPriority(p Priority) OpenOption {
	return func(o *openOptions) { o.priority = p }
}

// WithFormat sets the line pattern. Default DefaultFormat.
func WithFormat(format string) OpenOption {
	return func(o *openOptions) { o.format = format }
}

// WithPurgeCount enables daily rotation keeping n archives. Default 0,
// which disables rotation.
func WithPurgeCount(n int) OpenOption {
	return func(o *openOptions) { o.purgeCount = n }
}

// Open binds the sink to path, replacing any previous binding. On failure
// the sink is left closed, the reason is written to stderr and a
// LogChannelError is returned.
func (s *Sink) Open(path string, opts ...OpenOption) error {
	o := openOptions{
		priority: PrioInformation,
		format:   DefaultFormat,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLocked(path, o)
}

func (s *Sink) openLocked(path string, o openOptions) error {
	s.closeLocked()

	out, err := openFile(path, o.purgeCount)
	if err != nil {
		stderrf("Sink.Open(%s) error: %v\n", s.internalName, err)
		return serrors.Wrapf(serrors.KindLogChannel, err, "open %s", path)
	}

	s.out = out
	s.path = path
	s.format = o.format
	s.purgeCount = o.purgeCount
	s.pattern = NewPattern(o.format)
	s.priority.Store(int32(o.priority))

	s.writeLocked(PrioNotice, s.now(), fmt.Sprintf("Sink.Open(%s) path: %s", s.internalName, path), nil)
	return nil
}

// Close releases the file and clears the bound path. Safe to call more
// than once.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Sink) closeLocked() {
	if s.out != nil {
		if err := s.out.Close(); err != nil {
			stderrf("Sink.Close(%s) error: %v\n", s.internalName, err)
		}
		s.out = nil
	}
	s.path = ""
}

// Name returns the name the sink was created with.
func (s *Sink) Name() string {
	return s.name
}

// InternalName returns name-N, where N counts the reopens.
func (s *Sink) InternalName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.internalName
}

// Path returns the bound file path, or "" when closed.
func (s *Sink) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Priority returns the current priority threshold.
func (s *Sink) Priority() Priority {
	return Priority(s.priority.Load())
}

// SetPriority changes the threshold for subsequent messages.
func (s *Sink) SetPriority(p Priority) {
	s.priority.Store(int32(p))
}

// WillLog reports whether a message at p passes the priority threshold.
func (s *Sink) WillLog(p Priority) bool {
	return p <= s.Priority()
}

// VerifyLogFile checks, at most once per VerifyInterval, that the bound
// file still exists and reopens it if it does not. It reports false when
// the sink ended up without a bound file.
func (s *Sink) VerifyLogFile() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verifyLocked()
}

func (s *Sink) verifyLocked() bool {
	now := s.now()
	if !s.lastVerify.IsZero() && now.Sub(s.lastVerify) < VerifyInterval {
		return s.path != ""
	}
	s.lastVerify = now

	if s.path != "" {
		if _, err := os.Stat(s.path); os.IsNotExist(err) {
			o := openOptions{
				priority:   s.Priority(),
				format:     s.format,
				purgeCount: s.purgeCount,
			}
			path := s.path
			s.closeLocked()

			s.instance++
			s.internalName = fmt.Sprintf("%s-%d", s.name, s.instance)
			metrics.RecordLogReopen(s.name)

			return s.openLocked(path, o) == nil
		}
	}
	return s.path != ""
}

// Log writes msg at priority p. args are key/value pairs or slog.Attr
// values, as accepted by slog.Logger.Log.
func (s *Sink) Log(p Priority, msg string, args ...any) {
	if !s.WillLog(p) {
		return
	}
	s.emit(p, s.clock(), msg, argsToAttrs(args))
}

// Logf writes a formatted message at priority p.
func (s *Sink) Logf(p Priority, format string, args ...any) {
	if !s.WillLog(p) {
		return
	}
	s.emit(p, s.clock(), fmt.Sprintf(format, args...), nil)
}

// Fatal logs at Fatal priority.
func (s *Sink) Fatal(msg string, args ...any) { s.Log(PrioFatal, msg, args...) }

// Critical logs at Critical priority.
func (s *Sink) Critical(msg string, args ...any) { s.Log(PrioCritical, msg, args...) }

// Error logs at Error priority.
func (s *Sink) Error(msg string, args ...any) { s.Log(PrioError, msg, args...) }

// Warning logs at Warning priority.
func (s *Sink) Warning(msg string, args ...any) { s.Log(PrioWarning, msg, args...) }

// Notice logs at Notice priority.
func (s *Sink) Notice(msg string, args ...any) { s.Log(PrioNotice, msg, args...) }

// Information logs at Information priority.
func (s *Sink) Information(msg string, args ...any) { s.Log(PrioInformation, msg, args...) }

// Debug logs at Debug priority.
func (s *Sink) Debug(msg string, args ...any) { s.Log(PrioDebug, msg, args...) }

// Trace logs at Trace priority.
func (s *Sink) Trace(msg string, args ...any) { s.Log(PrioTrace, msg, args...) }

func (s *Sink) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}

// emit verifies the file and writes one record. Records are dropped
// silently when the sink is closed.
func (s *Sink) emit(p Priority, t time.Time, msg string, attrs []slog.Attr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.verifyLocked() {
		return
	}
	s.writeLocked(p, t, msg, attrs)
}

func (s *Sink) writeLocked(p Priority, t time.Time, msg string, attrs []slog.Attr) {
	if s.out == nil || !s.WillLog(p) {
		return
	}
	line := s.pattern.Format(Record{
		Time:     t,
		Priority: p,
		Source:   s.internalName,
		Message:  msg,
		Attrs:    attrs,
	})
	if _, err := io.WriteString(s.out, line+"\n"); err != nil {
		stderrf("Sink.Write(%s) error: %v\n", s.internalName, err)
	}
}

// argsToAttrs converts slog-style arguments into attributes.
func argsToAttrs(args []any) []slog.Attr {
	if len(args) == 0 {
		return nil
	}
	var r slog.Record
	r.Add(args...)
	attrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	return attrs
}
