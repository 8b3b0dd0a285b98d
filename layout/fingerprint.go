package layout

import (
	"hash/fnv"
	"math/bits"
	"strings"

	"golang.org/x/net/html"
)

// DefaultTemplateThreshold is the Hamming distance at or below which two
// structure hashes are considered the same page template.
const DefaultTemplateThreshold = 3

const shingleSize = 3

// StructureHash fingerprints the DOM structure of a page as a 64-bit
// simhash over overlapping tag shingles. Text content and attribute
// values do not participate, so pages built from the same template
// produce nearby hashes even when their content differs.
func StructureHash(rawHTML string) uint64 {
	tags := tagStream(rawHTML)
	if len(tags) == 0 {
		return 0
	}
	return simhash(shingle(tags))
}

// Distance returns the Hamming distance between two structure hashes.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// SameTemplate reports whether two hashes are within threshold bits of
// each other. A non-positive threshold uses DefaultTemplateThreshold.
func SameTemplate(a, b uint64, threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultTemplateThreshold
	}
	return Distance(a, b) <= threshold
}

// tagStream extracts the opening tag names of a document in order.
func tagStream(rawHTML string) []string {
	tz := html.NewTokenizer(strings.NewReader(rawHTML))
	var tags []string
	for {
		tt := tz.Next()
		if tt == html.ErrorToken {
			return tags
		}
		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			name, _ := tz.TagName()
			tags = append(tags, string(name))
		}
	}
}

// shingle groups the tag stream into overlapping n-grams so that local
// ordering contributes to the hash. Streams shorter than the shingle
// size collapse into a single token.
func shingle(tags []string) []string {
	if len(tags) < shingleSize {
		return []string{strings.Join(tags, "_")}
	}
	out := make([]string, 0, len(tags)-shingleSize+1)
	for i := 0; i+shingleSize <= len(tags); i++ {
		out = append(out, strings.Join(tags[i:i+shingleSize], "_"))
	}
	return out
}

// simhash folds the token hashes into a 64-dimension bit vector and
// takes the sign of each dimension.
func simhash(tokens []string) uint64 {
	var vector [64]int
	for _, tok := range tokens {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()
		for i := 0; i < 64; i++ {
			if sum&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}
	var fp uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}
