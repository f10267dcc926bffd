package snapshot

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"
)

// Severity ranks a schema change by how likely it breaks offset-based code.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARN"
	case SeverityCritical:
		return "CRIT"
	default:
		return "INFO"
	}
}

// ChangeOp is the kind of schema change.
type ChangeOp string

const (
	ClassAdded   ChangeOp = "class_added"
	ClassRemoved ChangeOp = "class_removed"
	FieldAdded   ChangeOp = "field_added"
	FieldRemoved ChangeOp = "field_removed"
	OffsetChange ChangeOp = "offset"
	TypeChange   ChangeOp = "type"
	SizeChange   ChangeOp = "size"

	EnumAdded        ChangeOp = "enum_added"
	EnumRemoved      ChangeOp = "enum_removed"
	EnumValueAdded   ChangeOp = "enum_value_added"
	EnumValueRemoved ChangeOp = "enum_value_removed"
	EnumValueChange  ChangeOp = "enum_value"
)

// Change is one difference between two schema dumps. For enum changes Class
// holds the enum name and Field the constant name.
type Change struct {
	Op       ChangeOp
	Class    string
	Field    string
	Old      string
	New      string
	Severity Severity
}

func (c Change) String() string {
	switch c.Op {
	case ClassAdded:
		return "+ " + c.Class
	case ClassRemoved:
		return "- " + c.Class
	case FieldAdded:
		return fmt.Sprintf("%s: + %s %s", c.Class, c.Field, c.New)
	case FieldRemoved:
		return fmt.Sprintf("%s: - %s %s", c.Class, c.Field, c.Old)
	case SizeChange:
		return fmt.Sprintf("%s: size %s -> %s", c.Class, c.Old, c.New)
	case EnumAdded:
		return fmt.Sprintf("+ enum %s (%s values)", c.Class, c.New)
	case EnumRemoved:
		return "- enum " + c.Class
	case EnumValueAdded:
		return fmt.Sprintf("%s: + %s = %s", c.Class, c.Field, c.New)
	case EnumValueRemoved:
		return fmt.Sprintf("%s: - %s = %s", c.Class, c.Field, c.Old)
	case EnumValueChange:
		return fmt.Sprintf("%s: ~ %s: %s -> %s", c.Class, c.Field, c.Old, c.New)
	default:
		return fmt.Sprintf("%s: %s %s: %s -> %s", c.Class, strings.ToUpper(string(c.Op)), c.Field, c.Old, c.New)
	}
}

// DiffReport lists the changes from an old schema to a new one: enums first,
// then classes, each ordered by name.
type DiffReport struct {
	OldHash    string
	NewHash    string
	OldVersion string
	NewVersion string
	Changes    []Change
}

// Diff compares two schema dumps.
func Diff(from, to *Schema) *DiffReport {
	r := &DiffReport{
		OldHash:    from.DumpHash,
		NewHash:    to.DumpHash,
		OldVersion: from.Version,
		NewVersion: to.Version,
	}

	for _, name := range unionKeys(from.Enums, to.Enums) {
		o, inOld := from.Enums[name]
		n, inNew := to.Enums[name]
		switch {
		case !inOld:
			r.add(Change{Op: EnumAdded, Class: name, New: strconv.Itoa(len(n.Values)), Severity: SeverityInfo})
		case !inNew:
			r.add(Change{Op: EnumRemoved, Class: name, Severity: SeverityInfo})
		default:
			r.diffEnum(name, o, n)
		}
	}

	oldClasses := indexClasses(from)
	newClasses := indexClasses(to)

	for _, name := range unionKeys(oldClasses, newClasses) {
		o, inOld := oldClasses[name]
		n, inNew := newClasses[name]
		switch {
		case !inOld:
			r.add(Change{Op: ClassAdded, Class: name, Severity: SeverityInfo})
		case !inNew:
			r.add(Change{Op: ClassRemoved, Class: name, Severity: SeverityInfo})
		default:
			r.diffClass(o, n)
		}
	}

	Logger().Debug("schema diff",
		zap.Int("changes", len(r.Changes)),
		zap.Int("critical", r.Count(SeverityCritical)))
	return r
}

func (r *DiffReport) diffClass(o, n *ClassSchema) {
	if so, sn := sizeString(o.InstanceSize), sizeString(n.InstanceSize); so != sn {
		r.add(Change{Op: SizeChange, Class: o.Name, Old: so, New: sn, Severity: SeverityCritical})
	}

	oldFields := indexFields(o)
	newFields := indexFields(n)
	for _, name := range unionKeys(oldFields, newFields) {
		of, inOld := oldFields[name]
		nf, inNew := newFields[name]
		switch {
		case !inOld:
			r.add(Change{Op: FieldAdded, Class: o.Name, Field: name, New: describeField(nf), Severity: SeverityInfo})
		case !inNew:
			r.add(Change{Op: FieldRemoved, Class: o.Name, Field: name, Old: describeField(of), Severity: SeverityInfo})
		default:
			if of.Offset != nf.Offset {
				r.add(Change{
					Op: OffsetChange, Class: o.Name, Field: name,
					Old: fmt.Sprintf("0x%x", of.Offset), New: fmt.Sprintf("0x%x", nf.Offset),
					Severity: SeverityCritical,
				})
			}
			if of.Type != nf.Type {
				r.add(Change{Op: TypeChange, Class: o.Name, Field: name, Old: of.Type, New: nf.Type, Severity: SeverityWarning})
			}
		}
	}
}

// diffEnum reports constants whose value moved as critical: code that
// compares against baked-in enum values silently misreads them.
func (r *DiffReport) diffEnum(name string, o, n EnumSchema) {
	for _, k := range unionKeys(o.Values, n.Values) {
		ov, inOld := o.Values[k]
		nv, inNew := n.Values[k]
		switch {
		case !inOld:
			r.add(Change{Op: EnumValueAdded, Class: name, Field: k, New: strconv.FormatInt(nv, 10), Severity: SeverityInfo})
		case !inNew:
			r.add(Change{Op: EnumValueRemoved, Class: name, Field: k, Old: strconv.FormatInt(ov, 10), Severity: SeverityInfo})
		case ov != nv:
			r.add(Change{
				Op: EnumValueChange, Class: name, Field: k,
				Old: strconv.FormatInt(ov, 10), New: strconv.FormatInt(nv, 10),
				Severity: SeverityCritical,
			})
		}
	}
}

func (r *DiffReport) add(c Change) {
	r.Changes = append(r.Changes, c)
}

// Downgrade reports whether the new schema comes from an older runtime
// build. Versions that are not valid semver never compare as a downgrade.
func (r *DiffReport) Downgrade() bool {
	from, to := canonicalVersion(r.OldVersion), canonicalVersion(r.NewVersion)
	if !semver.IsValid(from) || !semver.IsValid(to) {
		return false
	}
	return semver.Compare(to, from) < 0
}

func canonicalVersion(v string) string {
	if v != "" && v[0] != 'v' {
		v = "v" + v
	}
	return v
}

// Critical reports whether any change breaks fixed offsets, sizes or enum
// values.
func (r *DiffReport) Critical() bool {
	return r.Count(SeverityCritical) > 0
}

// Count returns the number of changes with severity s.
func (r *DiffReport) Count(s Severity) int {
	n := 0
	for _, c := range r.Changes {
		if c.Severity == s {
			n++
		}
	}
	return n
}

// WriteTo writes a human-readable report.
func (r *DiffReport) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "old: %s%s\nnew: %s%s\n",
		shortHash(r.OldHash), versionSuffix(r.OldVersion),
		shortHash(r.NewHash), versionSuffix(r.NewVersion))
	if r.Downgrade() {
		b.WriteString("WARN new schema is from an older runtime build\n")
	}
	if n := r.Count(SeverityCritical); n > 0 {
		fmt.Fprintf(&b, "CRIT %d critical changes: offset-based code must be regenerated\n", n)
	}
	if len(r.Changes) == 0 {
		b.WriteString("no changes\n")
	}
	for _, c := range r.Changes {
		fmt.Fprintf(&b, "%-4s %s\n", c.Severity, c)
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func indexClasses(s *Schema) map[string]*ClassSchema {
	m := make(map[string]*ClassSchema, len(s.Classes))
	for i := range s.Classes {
		m[s.Classes[i].Name] = &s.Classes[i]
	}
	return m
}

func indexFields(c *ClassSchema) map[string]FieldSchema {
	m := make(map[string]FieldSchema, len(c.Fields))
	for _, f := range c.Fields {
		m[f.Name] = f
	}
	return m
}

func unionKeys[V any](a, b map[string]V) []string {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func sizeString(size *uint32) string {
	if size == nil {
		return "?"
	}
	return fmt.Sprintf("0x%x", *size)
}

func describeField(f FieldSchema) string {
	if f.Type == "" {
		return fmt.Sprintf("@ 0x%x", f.Offset)
	}
	return fmt.Sprintf("%s @ 0x%x", f.Type, f.Offset)
}

func versionSuffix(v string) string {
	if v == "" {
		return ""
	}
	return " (" + v + ")"
}

func shortHash(h string) string {
	if h == "" {
		return "?"
	}
	if len(h) > 16 {
		return h[:16] + "..."
	}
	return h
}
