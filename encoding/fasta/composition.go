package fasta

// gcTable[b] is 1 for bases counted towards GC content: G, C and the IUPAC
// code S (G or C), in either case.
var gcTable = [256]uint8{'G': 1, 'C': 1, 'S': 1, 'g': 1, 'c': 1, 's': 1}

// GCFraction returns the fraction of bases in bases that are G, C or S.  The
// denominator is the full length, ambiguous bases included.  It returns 0 for
// an empty string.
func GCFraction(bases string) float64 {
	if len(bases) == 0 {
		return 0
	}
	n := 0
	for i := 0; i < len(bases); i++ {
		n += int(gcTable[bases[i]])
	}
	return float64(n) / float64(len(bases))
}

// CountAmbiguous returns the number of 'N' (or 'n') bases, i.e. bases that
// cannot be mapped to.
func CountAmbiguous(bases string) int64 {
	var n int64
	for i := 0; i < len(bases); i++ {
		if c := bases[i]; c == 'N' || c == 'n' {
			n++
		}
	}
	return n
}
