package enzyme

// Per-base masks, one bit per nucleotide.
const (
	maskA uint8 = 1 << iota
	maskC
	maskG
	maskT
)

var iupacMask = [256]uint8{
	'A': maskA,
	'C': maskC,
	'G': maskG,
	'T': maskT,
	'U': maskT,
	'R': maskA | maskG,
	'Y': maskC | maskT,
	'S': maskC | maskG,
	'W': maskA | maskT,
	'K': maskG | maskT,
	'M': maskA | maskC,
	'B': maskC | maskG | maskT,
	'D': maskA | maskG | maskT,
	'H': maskA | maskC | maskT,
	'V': maskA | maskC | maskG,
	'N': maskA | maskC | maskG | maskT,
}

var complement = [256]byte{
	'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A', 'U': 'A',
	'R': 'Y', 'Y': 'R', 'S': 'S', 'W': 'W', 'K': 'M', 'M': 'K',
	'B': 'V', 'V': 'B', 'D': 'H', 'H': 'D', 'N': 'N',
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// compileMask converts an IUPAC site to per-position masks.  It returns false
// if site contains anything but IUPAC nucleotide codes.
func compileMask(site string) ([]uint8, bool) {
	m := make([]uint8, len(site))
	for i := 0; i < len(site); i++ {
		if m[i] = iupacMask[upper(site[i])]; m[i] == 0 {
			return nil, false
		}
	}
	return m, true
}

// seqMask returns the mask of a reference base.  Only unambiguous bases
// match; N and other codes in the reference never do.
func seqMask(b byte) uint8 {
	switch b = upper(b); b {
	case 'A', 'C', 'G', 'T':
		return iupacMask[b]
	}
	return 0
}

// matchAt reports whether seq[pos:pos+len(mask)] matches mask.
func matchAt(mask []uint8, seq string, pos int) bool {
	for i, m := range mask {
		if seqMask(seq[pos+i])&m == 0 {
			return false
		}
	}
	return true
}

func reverseComplement(site string) string {
	rc := make([]byte, len(site))
	for i := 0; i < len(site); i++ {
		rc[len(site)-1-i] = complement[upper(site[i])]
	}
	return string(rc)
}
