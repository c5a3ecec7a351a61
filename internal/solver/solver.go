// Package solver answers the login challenge: given a hand of numbered
// tiles, which ranks complete it into full groups plus a pair.
package solver

import "strings"

const maxRank = 9

// Solve returns the ranks (ascending, duplicate-free) that complete the
// hand. The hand is a string of digit ranks 1-9; other characters are
// ignored. A rank is a candidate only while fewer than four copies are in
// the hand, and only when adding it leaves a hand that splits into runs or
// triplets plus exactly one pair. An empty result means no tile completes
// the hand.
func Solve(hand string) []int {
	var counts [maxRank + 1]int
	total := 0
	for _, c := range hand {
		if c >= '1' && c <= '9' {
			counts[c-'0']++
			total++
		}
	}
	if total == 0 || (total+1)%3 != 2 {
		return nil
	}

	var waits []int
	for rank := 1; rank <= maxRank; rank++ {
		if counts[rank] >= 4 {
			continue
		}
		counts[rank]++
		if complete(&counts, true) {
			waits = append(waits, rank)
		}
		counts[rank]--
	}
	return waits
}

// Answer renders the waits the way the login packet carries them: the
// candidate digits concatenated, empty when nothing completes the hand.
func Answer(hand string) string {
	var b strings.Builder
	for _, rank := range Solve(hand) {
		b.WriteByte(byte('0' + rank))
	}
	return b.String()
}

// complete reports whether the counted tiles decompose into runs of three
// consecutive ranks and triplets, plus exactly one pair. It consumes from
// the lowest live rank: once a rank is left behind it can never be used
// again, so the branching stays tiny (pair, triplet, run at each level).
func complete(counts *[maxRank + 1]int, pairFree bool) bool {
	rank := 1
	for rank <= maxRank && counts[rank] == 0 {
		rank++
	}
	if rank > maxRank {
		return !pairFree
	}

	if pairFree && counts[rank] >= 2 {
		counts[rank] -= 2
		ok := complete(counts, false)
		counts[rank] += 2
		if ok {
			return true
		}
	}
	if counts[rank] >= 3 {
		counts[rank] -= 3
		ok := complete(counts, pairFree)
		counts[rank] += 3
		if ok {
			return true
		}
	}
	if rank+2 <= maxRank && counts[rank+1] > 0 && counts[rank+2] > 0 {
		counts[rank]--
		counts[rank+1]--
		counts[rank+2]--
		ok := complete(counts, pairFree)
		counts[rank]++
		counts[rank+1]++
		counts[rank+2]++
		if ok {
			return true
		}
	}
	return false
}
