package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultFormat is the pattern used when Open is given no format:
// 12-hour clock time with milliseconds, then the message.
const DefaultFormat = "%h-%M-%S.%i: %t"

// Record is a single log event as seen by a Pattern.
type Record struct {
	Time     time.Time
	Priority Priority
	Source   string
	Message  string
	Attrs    []slog.Attr
}

// Pattern formats records according to a printf-like pattern.
//
// Supported specifiers:
//
//	%s source name          %t message and remaining attributes
//	%p priority name        %q priority abbreviation  %l priority number
//	%P process id           %N host name
//	%w/%W weekday           %b/%B month name
//	%d/%e day of month      %m/%n month number        %y/%Y year
//	%H hour (00-23)         %h hour (01-12)           %a/%A am/pm
//	%M minute  %S second    %i millisecond  %c centisecond  %F microsecond
//	%z ISO 8601 zone        %Z RFC 822 zone
//	%[key] attribute value  %% percent sign
//
// Unknown specifiers are copied through unchanged.
type Pattern struct {
	segments []segment
	keys     map[string]struct{}
}

type segment struct {
	literal string
	verb    byte
	key     string
}

// NewPattern compiles format.
func NewPattern(format string) *Pattern {
	p := &Pattern{keys: make(map[string]struct{})}

	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			p.segments = append(p.segments, segment{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			lit.WriteByte(c)
			continue
		}
		i++
		verb := format[i]
		switch verb {
		case '%':
			lit.WriteByte('%')
		case '[':
			end := strings.IndexByte(format[i:], ']')
			if end < 0 {
				lit.WriteString(format[i-1:])
				i = len(format)
				continue
			}
			key := format[i+1 : i+end]
			flush()
			p.segments = append(p.segments, segment{verb: '[', key: key})
			p.keys[key] = struct{}{}
			i += end
		default:
			flush()
			p.segments = append(p.segments, segment{verb: verb})
		}
	}
	flush()
	return p
}

var (
	pid      = strconv.Itoa(os.Getpid())
	hostname = func() string {
		h, err := os.Hostname()
		if err != nil {
			return "localhost"
		}
		return h
	}()
)

// messageEscaper keeps a record on a single line.
var messageEscaper = strings.NewReplacer("\r\n", `\n`, "\n", `\n`, "\r", `\r`)

// Format renders r without a trailing newline.
func (p *Pattern) Format(r Record) string {
	var b strings.Builder
	t := r.Time
	for _, seg := range p.segments {
		if seg.verb == 0 {
			b.WriteString(seg.literal)
			continue
		}
		switch seg.verb {
		case 's':
			b.WriteString(r.Source)
		case 't':
			messageEscaper.WriteString(&b, r.Message)
			p.writeRemaining(&b, r.Attrs)
		case 'p':
			b.WriteString(r.Priority.String())
		case 'q':
			b.WriteByte(r.Priority.String()[0])
		case 'l':
			b.WriteString(strconv.Itoa(int(r.Priority)))
		case 'P':
			b.WriteString(pid)
		case 'N':
			b.WriteString(hostname)
		case 'w':
			b.WriteString(t.Format("Mon"))
		case 'W':
			b.WriteString(t.Format("Monday"))
		case 'b':
			b.WriteString(t.Format("Jan"))
		case 'B':
			b.WriteString(t.Format("January"))
		case 'd':
			b.WriteString(t.Format("02"))
		case 'e':
			b.WriteString(strconv.Itoa(t.Day()))
		case 'm':
			b.WriteString(t.Format("01"))
		case 'n':
			b.WriteString(strconv.Itoa(int(t.Month())))
		case 'y':
			b.WriteString(t.Format("06"))
		case 'Y':
			b.WriteString(t.Format("2006"))
		case 'H':
			b.WriteString(t.Format("15"))
		case 'h':
			b.WriteString(t.Format("03"))
		case 'a':
			b.WriteString(strings.ToLower(t.Format("PM")))
		case 'A':
			b.WriteString(t.Format("PM"))
		case 'M':
			b.WriteString(t.Format("04"))
		case 'S':
			b.WriteString(t.Format("05"))
		case 'i':
			fmt.Fprintf(&b, "%03d", t.Nanosecond()/int(time.Millisecond))
		case 'c':
			fmt.Fprintf(&b, "%d", t.Nanosecond()/int(100*time.Millisecond))
		case 'F':
			fmt.Fprintf(&b, "%06d", t.Nanosecond()/int(time.Microsecond))
		case 'z':
			b.WriteString(t.Format("Z07:00"))
		case 'Z':
			b.WriteString(t.Format("-0700"))
		case '[':
			if v, ok := lookupAttr(r.Attrs, seg.key); ok {
				b.WriteString(v)
			}
		default:
			b.WriteByte('%')
			b.WriteByte(seg.verb)
		}
	}
	return b.String()
}

// writeRemaining appends the attributes not consumed by a %[key] specifier.
func (p *Pattern) writeRemaining(b *strings.Builder, attrs []slog.Attr) {
	for _, a := range attrs {
		if _, used := p.keys[a.Key]; used {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteByte('=')
		b.WriteString(quoteIfNeeded(a.Value.Resolve().String()))
	}
}

func lookupAttr(attrs []slog.Attr, key string) (string, bool) {
	for i := len(attrs) - 1; i >= 0; i-- {
		if attrs[i].Key == key {
			return attrs[i].Value.Resolve().String(), true
		}
	}
	return "", false
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
