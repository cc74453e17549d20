package ast

import (
	"fmt"
	"strconv"
	"strings"
)

func (i Integer) String() string {
	return strconv.FormatInt(int64(i), 10)
}

// String keeps a fractional part on whole decimals so they re-parse as decimals.
func (d Decimal) String() string {
	if d.IsInteger() {
		return d.StringFixed(1)
	}
	return d.Decimal.String()
}

func (b Boolean) String() string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func (s String) String() string {
	if strings.Contains(string(s), `"`) && !strings.Contains(string(s), "'") {
		return "'" + string(s) + "'"
	}
	return `"` + string(s) + `"`
}

func (c Color) String() string {
	if c.A == 255 {
		return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
	}
	return fmt.Sprintf(`"#%02X%02X%02X%02X"`, c.R, c.G, c.B, c.A)
}

func (p Path) String() string {
	return "/" + string(p)
}

func (u Union) String() string {
	parts := make([]string, len(u))
	for i, p := range u {
		parts[i] = p.String()
	}
	return strings.Join(parts, "|")
}

func (l List) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = v.String()
	}
	return "list(" + strings.Join(parts, ", ") + ")"
}

func (d *Dict) String() string {
	parts := make([]string, len(d.entries))
	for i, e := range d.entries {
		parts[i] = e.Key.String() + " = " + e.Value.String()
	}
	return "list(" + strings.Join(parts, ", ") + ")"
}

func (r ObjectRecord) String() string {
	var b strings.Builder

	b.WriteString(r.Path.String())
	b.WriteString("\n")
	if r.Properties != nil {
		for name, value := range r.Properties.All() {
			b.WriteString(fmt.Sprintf("\t%s = %s\n", name, value))
		}
	}

	return b.String()
}

func (d Document) String() string {
	parts := make([]string, len(d))
	for i, r := range d {
		parts[i] = r.String()
	}
	return strings.Join(parts, "\n")
}
