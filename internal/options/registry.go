// Package options holds the command-line option table of a daemon and
// parses arguments against it.
package options

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	serrors "github.com/swarmcom/swarm/internal/errors"
	"github.com/swarmcom/swarm/internal/metrics"
)

// Descriptor describes one command-line option.
type Descriptor struct {
	// FullName is the long name, used as --FullName. Must be unique.
	FullName string
	// ShortName is an optional one-character alias, used as -S.
	ShortName string
	// Description is shown in the help text.
	Description string
	// ArgName names the argument in the help text. An option without an
	// ArgName takes no argument.
	ArgName string
	// Required options must appear at least once.
	Required bool
	// Repeatable options may appear more than once.
	Repeatable bool
	// ArgRequired makes the argument mandatory. Without it the argument is
	// optional and "" is passed when it is omitted.
	ArgRequired bool
	// HasCallback is set by Add when a callback is registered.
	HasCallback bool
}

// TakesArg reports whether the option accepts an argument.
func (d Descriptor) TakesArg() bool {
	return d.ArgName != "" || d.ArgRequired
}

// Result tells the caller whether to keep going after a callback.
type Result int

const (
	// Continue proceeds with the startup sequence.
	Continue Result = iota
	// StopProcessing ends the run successfully before initialization,
	// typically after printing help.
	StopProcessing
)

// Callback is invoked once per occurrence of an option with the option's
// full name and its literal argument value.
type Callback func(name, value string) (Result, error)

// ParseResult is the outcome of Parse.
type ParseResult struct {
	// Stop is true when any callback returned StopProcessing or help was
	// requested without a registered help option.
	Stop bool
	// HelpRequested is true when -h/--help was given and no option of that
	// name is registered.
	HelpRequested bool
	// Args holds the positional arguments.
	Args []string
}

// Registry is an ordered option table with a callback per option.
type Registry struct {
	descriptors []Descriptor
	callbacks   map[string]Callback
	byShort     map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		callbacks: make(map[string]Callback),
		byShort:   make(map[string]string),
	}
}

// Add appends d to the table. A nil cb registers the option without a
// callback. Duplicate full or short names are configuration errors.
func (r *Registry) Add(d Descriptor, cb Callback) error {
	if d.FullName == "" {
		return serrors.New(serrors.KindConfiguration, "option without a name")
	}
	if len(d.ShortName) > 1 {
		return serrors.Newf(serrors.KindConfiguration, "option %s: short name %q must be a single character", d.FullName, d.ShortName)
	}
	if _, ok := r.Lookup(d.FullName); ok {
		return serrors.Newf(serrors.KindConfiguration, "duplicate option %q", d.FullName)
	}
	if d.ShortName != "" {
		if other, ok := r.byShort[d.ShortName]; ok {
			return serrors.Newf(serrors.KindConfiguration, "option %s: short name -%s already used by %s", d.FullName, d.ShortName, other)
		}
		r.byShort[d.ShortName] = d.FullName
	}

	d.HasCallback = cb != nil
	if cb != nil {
		r.callbacks[d.FullName] = cb
	}
	r.descriptors = append(r.descriptors, d)
	return nil
}

// Descriptors returns the table in registration order.
func (r *Registry) Descriptors() []Descriptor {
	return append([]Descriptor(nil), r.descriptors...)
}

// Lookup returns the descriptor with the given full name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	for _, d := range r.descriptors {
		if d.FullName == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// noValue marks an option given without an attached argument.
const noValue = "\x00"

type occurrence struct {
	name  string
	value string
}

// optionValue is the pflag.Value recording every occurrence of one option.
type optionValue struct {
	desc  Descriptor
	seen  *[]occurrence
	count int
}

func (v *optionValue) String() string { return "" }

func (v *optionValue) Type() string {
	if !v.desc.TakesArg() {
		return "bool"
	}
	return "string"
}

func (v *optionValue) Set(value string) error {
	if v.count > 0 && !v.desc.Repeatable {
		return fmt.Errorf("option may be given only once")
	}
	if !v.desc.TakesArg() && value != noValue {
		return fmt.Errorf("option takes no argument")
	}
	if value == noValue {
		value = ""
	}
	v.count++
	*v.seen = append(*v.seen, occurrence{name: v.desc.FullName, value: value})
	return nil
}

// Parse parses args against the table and invokes the callbacks once per
// occurrence, in command-line order. All callbacks run; their results are
// combined so that any StopProcessing stops. Usage problems are returned
// as UsageError, failing callbacks as ConfigurationError.
func (r *Registry) Parse(command string, args []string) (*ParseResult, error) {
	fs := pflag.NewFlagSet(command, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SetInterspersed(true)
	fs.Usage = func() {}

	var seen []occurrence
	values := make(map[string]*optionValue, len(r.descriptors))
	for _, d := range r.descriptors {
		v := &optionValue{desc: d, seen: &seen}
		values[d.FullName] = v
		f := fs.VarPF(v, d.FullName, d.ShortName, d.Description)
		if !d.ArgRequired {
			f.NoOptDefVal = noValue
		}
	}

	res := &ParseResult{}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			res.Stop = true
			res.HelpRequested = true
			return res, nil
		}
		return nil, serrors.Wrap(serrors.KindUsage, err, "invalid arguments")
	}
	res.Args = fs.Args()

	for _, occ := range seen {
		cb, ok := r.callbacks[occ.name]
		if !ok {
			continue
		}
		result, err := invoke(cb, occ)
		metrics.RecordOptionCallback(occ.name)
		if err != nil {
			return nil, serrors.Wrapf(serrors.KindConfiguration, err, "option %s", occ.name)
		}
		if result == StopProcessing {
			res.Stop = true
		}
	}

	if res.Stop {
		return res, nil
	}

	var missing []string
	for _, d := range r.descriptors {
		if d.Required && values[d.FullName].count == 0 {
			missing = append(missing, "--"+d.FullName)
		}
	}
	if len(missing) > 0 {
		return nil, serrors.Newf(serrors.KindUsage, "missing required option: %s", strings.Join(missing, ", "))
	}
	return res, nil
}

// invoke runs cb, converting a panic into an error.
func invoke(cb Callback, occ occurrence) (result Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("callback panicked: %v", p)
		}
	}()
	return cb(occ.name, occ.value)
}
