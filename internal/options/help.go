package options

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// FormatHelp writes the usage line, header and one line per option.
func (r *Registry) FormatHelp(w io.Writer, command, usage, header string) error {
	line := "usage: " + command
	if usage != "" {
		line += " " + usage
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	if header != "" {
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}
	}
	if len(r.descriptors) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	for _, d := range r.descriptors {
		fmt.Fprintf(tw, "  %s\t%s\n", optionSynopsis(d), optionDescription(d))
	}
	return tw.Flush()
}

func optionSynopsis(d Descriptor) string {
	var b strings.Builder
	if d.ShortName != "" {
		b.WriteString("-" + d.ShortName + ", ")
	} else {
		b.WriteString("    ")
	}
	b.WriteString("--" + d.FullName)

	if d.TakesArg() {
		arg := d.ArgName
		if arg == "" {
			arg = "VALUE"
		}
		if d.ArgRequired {
			b.WriteString("=" + arg)
		} else {
			b.WriteString("[=" + arg + "]")
		}
	}
	return b.String()
}

func optionDescription(d Descriptor) string {
	desc := d.Description
	var notes []string
	if d.Required {
		notes = append(notes, "required")
	}
	if d.Repeatable {
		notes = append(notes, "repeatable")
	}
	if len(notes) > 0 {
		desc = strings.TrimSpace(desc + " (" + strings.Join(notes, ", ") + ")")
	}
	return desc
}
