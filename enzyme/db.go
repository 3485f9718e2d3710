package enzyme

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/hicgenome/interval"
)

// builtin lists the enzymes commonly used in chromosome conformation capture
// protocols, plus a few frequent cutters.
var builtin = []struct{ name, site string }{
	{"AluI", "AG^CT"},
	{"ApaI", "GGGCC^C"},
	{"BamHI", "G^GATCC"},
	{"BglII", "A^GATCT"},
	{"Csp6I", "G^TAC"},
	{"CviQI", "G^TAC"},
	{"DdeI", "C^TNAG"},
	{"DpnII", "^GATC"},
	{"EcoRI", "G^AATTC"},
	{"EcoRV", "GAT^ATC"},
	{"HaeIII", "GG^CC"},
	{"HhaI", "GCG^C"},
	{"HindIII", "A^AGCTT"},
	{"HinfI", "G^ANTC"},
	{"KpnI", "GGTAC^C"},
	{"MboI", "^GATC"},
	{"MluCI", "^AATT"},
	{"MseI", "T^TAA"},
	{"MspI", "C^CGG"},
	{"NcoI", "C^CATGG"},
	{"NdeI", "CA^TATG"},
	{"NheI", "G^CTAGC"},
	{"NlaIII", "CATG^"},
	{"NotI", "GC^GGCCGC"},
	{"PstI", "CTGCA^G"},
	{"SacI", "GAGCT^C"},
	{"SalI", "G^TCGAC"},
	{"Sau3AI", "^GATC"},
	{"SmaI", "CCC^GGG"},
	{"SpeI", "A^CTAGT"},
	{"XbaI", "T^CTAGA"},
	{"XhoI", "C^TCGAG"},
}

// DB is a set of enzymes looked up by name.  Lookups are case-insensitive.
type DB struct {
	byName map[string]Enzyme
}

// NewDB returns a DB holding the given enzymes.  Later enzymes replace
// earlier ones with the same name.
func NewDB(enzymes ...Enzyme) *DB {
	db := &DB{byName: make(map[string]Enzyme, len(enzymes))}
	for _, e := range enzymes {
		db.Add(e)
	}
	return db
}

// Builtin returns a DB with the built-in enzyme table.
func Builtin() *DB {
	db := NewDB()
	for _, b := range builtin {
		e, err := New(b.name, b.site)
		if err != nil {
			panic(err)
		}
		db.Add(e)
	}
	return db
}

// Add adds e to db, replacing any enzyme with the same name.
func (db *DB) Add(e Enzyme) {
	db.byName[strings.ToLower(e.Name)] = e
}

// Names returns the sorted enzyme names.
func (db *DB) Names() []string {
	names := make([]string, 0, len(db.byName))
	for _, e := range db.byName {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

// Lookup finds the enzyme with the given name.  Unknown names yield an
// errors.Invalid error that suggests the closest known names.
func (db *DB) Lookup(name string) (Enzyme, error) {
	if e, ok := db.byName[strings.ToLower(name)]; ok {
		return e, nil
	}
	msg := fmt.Sprintf("unknown restriction enzyme %q", name)
	if s := db.Suggest(name); len(s) > 0 {
		msg += fmt.Sprintf("; did you mean %s?", strings.Join(s, " or "))
	}
	return Enzyme{}, errors.E(errors.Invalid, msg)
}

// maxSuggestDistance is the largest edit distance of a suggested name.
const maxSuggestDistance = 3

// Suggest returns the known names closest to name by edit distance, if any
// is within maxSuggestDistance.
func (db *DB) Suggest(name string) []string {
	best := maxSuggestDistance + 1
	var names []string
	for _, n := range db.Names() {
		d := matchr.Levenshtein(strings.ToLower(name), strings.ToLower(n))
		switch {
		case d < best:
			best, names = d, []string{n}
		case d == best:
			names = append(names, n)
		}
	}
	return names
}

// Search returns the cut offsets of the named enzyme in seq; see
// Enzyme.Cuts.
func (db *DB) Search(name, seq string) ([]int64, error) {
	e, err := db.Lookup(name)
	if err != nil {
		return nil, err
	}
	return e.Cuts(seq), nil
}

// Describe returns the canonical form of the named enzyme, e.g.
// "HindIII(A^AGCTT)".  Two enzymes with equal descriptions cut alike.
func (db *DB) Describe(name string) (string, error) {
	e, err := db.Lookup(name)
	if err != nil {
		return "", err
	}
	return e.String(), nil
}

// ReadTable parses an enzyme table.  Each line holds a name and a site with a
// cut mark, separated by whitespace; further columns are ignored, as are
// blank lines and lines starting with '#'.
func ReadTable(r io.Reader) ([]Enzyme, error) {
	var (
		enzymes []Enzyme
		tokens  = make([][]byte, 2)
		scanner = bufio.NewScanner(r)
		lineno  = 0
	)
	for scanner.Scan() {
		lineno++
		line := scanner.Bytes()
		n := interval.GetTokens(tokens, line)
		if n == 0 || tokens[0][0] == '#' {
			continue
		}
		if n < 2 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("enzyme table line %d: expected name and site, got %q", lineno, line))
		}
		e, err := New(string(tokens[0]), string(tokens[1]))
		if err != nil {
			return nil, errors.E(err, fmt.Sprintf("enzyme table line %d", lineno))
		}
		enzymes = append(enzymes, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return enzymes, nil
}

// LoadTable reads the enzyme table at path.
func LoadTable(ctx context.Context, path string) (enzymes []Enzyme, err error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if e := f.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	enzymes, err = ReadTable(f.Reader(ctx))
	if err != nil {
		err = errors.E(err, path)
	}
	return
}
