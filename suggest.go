package cnext

import (
	"github.com/xrash/smetrics"
)

// NearestMatch finds the candidate closest to name by Levenshtein edit
// distance, for the "did you mean `X`?" diagnostic hints §3/§4.7 name.
// Promotes smetrics (already pulled in transitively by urfave/cli/v2's
// own command-suggestion feature) to a dependency this package's code
// exercises directly, rather than leaving it an unused indirect.
func NearestMatch(name string, candidates []string) (string, bool) {
	best := ""
	bestDist := -1
	for _, c := range candidates {
		d := smetrics.WagnerFischer(name, c, 1, 1, 1)
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = c
		}
	}
	if bestDist < 0 {
		return "", false
	}
	// A suggestion more different than half the candidate's own length
	// isn't useful — e.g. matching a 3-char name against something 12
	// chars away, where the diagnostic confuses more than it helps.
	if bestDist > (len(best)+1)/2 {
		return "", false
	}
	return best, true
}

func candidateNames[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
