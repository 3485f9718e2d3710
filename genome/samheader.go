package genome

import (
	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
)

// SAMHeader returns a SAM header listing the chromosomes in index order, so
// that reference IDs of records written with it equal chromosome indices.
// References are named "chr" + label.
func (g *Genome) SAMHeader() (*sam.Header, error) {
	refs := make([]*sam.Reference, g.ChrmCount)
	for i, label := range g.ChrmLabels {
		ref, err := sam.NewReference("chr"+label, "", "", int(g.ChrmLens[i]), nil, nil)
		if err != nil {
			return nil, errors.E(err, "genome: reference", label)
		}
		refs[i] = ref
	}
	h, err := sam.NewHeader(nil, refs)
	if err != nil {
		return nil, errors.E(err, "genome: SAM header")
	}
	return h, nil
}
