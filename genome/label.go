package genome

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// Non-numeric labels that sort before the other non-numeric ones, in this
// order.
var priorityLabels = []string{"X", "Y", "M"}

// template matches chromosome file names.
type template struct {
	glob string
	full *regexp.Regexp
	// name matches the template up to its first '.', i.e. a file name
	// without extension.  Nil if the '.' precedes the %s.
	name *regexp.Regexp
}

func parseTemplate(t string) (template, error) {
	if strings.Count(t, "%s") != 1 || strings.Count(t, "%") != 1 {
		return template{}, errors.E(errors.Invalid, fmt.Sprintf("genome: file template %q must contain exactly one %%s", t))
	}
	compile := func(t string) *regexp.Regexp {
		i := strings.Index(t, "%s")
		return regexp.MustCompile("^" + regexp.QuoteMeta(t[:i]) + "(.*)" + regexp.QuoteMeta(t[i+2:]) + "$")
	}
	tmpl := template{
		glob: strings.Replace(t, "%s", "*", 1),
		full: compile(t),
	}
	if i := strings.IndexByte(t, '.'); i >= 0 && strings.Contains(t[:i], "%s") {
		tmpl.name = compile(t[:i])
	}
	return tmpl, nil
}

// label extracts the chromosome label from a file base name, or a bare
// chromosome name such as "chr01".
func (t template) label(name string) (string, bool) {
	m := t.full.FindStringSubmatch(name)
	if m == nil && t.name != nil {
		m = t.name.FindStringSubmatch(name)
	}
	if m == nil {
		return "", false
	}
	return normalizeLabel(m[1]), true
}

func isNumeric(label string) bool {
	if label == "" {
		return false
	}
	for i := 0; i < len(label); i++ {
		if label[i] < '0' || label[i] > '9' {
			return false
		}
	}
	return true
}

// normalizeLabel strips leading zeros from numeric labels.
func normalizeLabel(label string) string {
	if !isNumeric(label) {
		return label
	}
	if label = strings.TrimLeft(label, "0"); label == "" {
		return "0"
	}
	return label
}

// numericLess compares normalized numeric labels by value.
func numericLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// chromosome is a discovered chromosome file.
type chromosome struct {
	label, path string
}

// discover lists the chromosome files in dir that match tmpl and pass the
// readChrms filter, in chromosome index order.
func discover(ctx context.Context, dir string, tmpl template, readChrms []string) ([]chromosome, error) {
	var found []chromosome
	lister := file.List(ctx, dir, false)
	for lister.Scan() {
		if lister.IsDir() {
			continue
		}
		base := file.Base(lister.Path())
		if ok, _ := path.Match(tmpl.glob, base); !ok {
			continue
		}
		label, ok := tmpl.label(base)
		if !ok {
			continue
		}
		found = append(found, chromosome{label: label, path: lister.Path()})
	}
	if err := lister.Err(); err != nil {
		return nil, errors.E(err, "genome: list", dir)
	}
	if len(found) == 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("genome: no files matching %s found in %s", tmpl.glob, dir))
	}
	sort.Slice(found, func(i, j int) bool { return found[i].path < found[j].path })

	admit := make(map[string]bool, len(readChrms))
	for _, l := range readChrms {
		if l != NumericLabels {
			l = normalizeLabel(l)
		}
		admit[l] = true
	}
	var (
		numeric, other []chromosome
		seen           = make(map[string]string)
	)
	for _, c := range found {
		isNum := isNumeric(c.label)
		if !admit[c.label] && !(isNum && admit[NumericLabels]) {
			continue
		}
		if prev, ok := seen[c.label]; ok {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("genome: chromosome %s found in both %s and %s", c.label, prev, c.path))
		}
		seen[c.label] = c.path
		if isNum {
			numeric = append(numeric, c)
		} else {
			other = append(other, c)
		}
	}
	if len(seen) == 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("genome: none of the chromosomes in %s pass the filter %v", dir, readChrms))
	}
	sort.SliceStable(numeric, func(i, j int) bool { return numericLess(numeric[i].label, numeric[j].label) })

	chrms := numeric
	for _, l := range priorityLabels {
		for _, c := range other {
			if c.label == l {
				chrms = append(chrms, c)
			}
		}
	}
	for _, c := range other {
		if !isPriority(c.label) {
			chrms = append(chrms, c)
		}
	}
	return chrms, nil
}

func isPriority(label string) bool {
	for _, l := range priorityLabels {
		if l == label {
			return true
		}
	}
	return false
}
