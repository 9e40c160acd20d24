package domain

import "strings"

// DefaultMatchThreshold is the minimum Jaccard similarity for a fuzzy match.
const DefaultMatchThreshold = 0.6

// MatchType records how an event was resolved to a property key.
type MatchType string

const (
	MatchExact          MatchType = "exact"
	MatchExactComposite MatchType = "exact_composite"
	MatchFuzzy          MatchType = "fuzzy"
	MatchGenerated      MatchType = "generated"
)

// MatchTypes lists every provenance tag in resolution order.
var MatchTypes = []MatchType{MatchExact, MatchExactComposite, MatchFuzzy, MatchGenerated}

// Match is the outcome of resolving an address to a property key.
type Match struct {
	Key   string    `json:"property_key"`
	Type  MatchType `json:"match_type"`
	Score float64   `json:"score"`
}

type tokenSet map[string]struct{}

// TokenSet returns the distinct whitespace tokens of Normalize(s).
func TokenSet(s string) map[string]struct{} {
	return tokens(Normalize(s))
}

// tokens splits an already-normalized string.
func tokens(normalized string) tokenSet {
	fields := strings.Fields(normalized)
	set := make(tokenSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Jaccard is the token-set similarity of two strings: |A∩B| / |A∪B|.
// It is 0 when either side normalizes to nothing.
func Jaccard(a, b string) float64 {
	return jaccard(TokenSet(a), TokenSet(b))
}

func jaccard(a, b tokenSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	overlap := 0
	for t := range small {
		if _, ok := large[t]; ok {
			overlap++
		}
	}
	union := len(a) + len(b) - overlap
	return float64(overlap) / float64(union)
}

// BestMatch returns the candidate most similar to query. Only a strictly
// higher score replaces the running best, so ties keep the earliest
// candidate. ok is false when the best score is below threshold or no
// candidate scored above zero; score is the best seen either way.
func BestMatch(query string, candidates []string, threshold float64) (best string, score float64, ok bool) {
	q := TokenSet(query)
	idx := -1
	for i, c := range candidates {
		if s := jaccard(q, TokenSet(c)); s > score {
			score = s
			idx = i
		}
	}
	if idx < 0 || score < threshold {
		return "", score, false
	}
	return candidates[idx], score, true
}

// AddressIndex maps normalized addresses, and normalized "address district"
// composites, to registry keys. It is read-only once built.
type AddressIndex struct {
	keys       map[string]string
	candidates []string
	candTokens []tokenSet
}

// NewAddressIndex indexes each property under its normalized address and its
// normalized composite. A later property with the same index string takes
// over the key but the string keeps its original position in fuzzy order.
func NewAddressIndex(properties []Property) *AddressIndex {
	idx := &AddressIndex{keys: make(map[string]string, 2*len(properties))}
	for _, p := range properties {
		idx.add(Normalize(p.Address), p.Key)
		idx.add(Normalize(p.Address+" "+p.District), p.Key)
	}
	return idx
}

func (idx *AddressIndex) add(normalized, key string) {
	if normalized == "" {
		return
	}
	if _, ok := idx.keys[normalized]; !ok {
		idx.candidates = append(idx.candidates, normalized)
		idx.candTokens = append(idx.candTokens, tokens(normalized))
	}
	idx.keys[normalized] = key
}

// Len returns the number of distinct index strings.
func (idx *AddressIndex) Len() int {
	return len(idx.candidates)
}

// Resolve finds the property key for an address: exact address, exact
// composite, fuzzy match at threshold, then a generated key. It always
// returns a usable key.
func (idx *AddressIndex) Resolve(address, district string, threshold float64) Match {
	norm := Normalize(address)
	if key := idx.keys[norm]; key != "" {
		return Match{Key: key, Type: MatchExact, Score: 1}
	}

	composite := Normalize(address + " " + district)
	if key := idx.keys[composite]; key != "" {
		return Match{Key: key, Type: MatchExactComposite, Score: 1}
	}

	if i, score, ok := idx.bestCandidate(tokens(norm), threshold); ok {
		return Match{Key: idx.keys[idx.candidates[i]], Type: MatchFuzzy, Score: score}
	}

	return Match{Key: MakeKey(address, district), Type: MatchGenerated}
}

// bestCandidate is BestMatch over the precomputed candidate token sets.
func (idx *AddressIndex) bestCandidate(q tokenSet, threshold float64) (int, float64, bool) {
	best, score := -1, 0.0
	for i, ct := range idx.candTokens {
		if s := jaccard(q, ct); s > score {
			score = s
			best = i
		}
	}
	if best < 0 || score < threshold {
		return -1, score, false
	}
	return best, score, true
}
