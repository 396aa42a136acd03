// internal/game/score.go
//
// Pure scoring functions for the Greed and Balut rule sets.
// Responsibilities:
//   - CalculateGreedScore: combination detection for a Greed roll,
//     returning the score and the set of die indices that produced it.
//   - CalculateBalutScore: generic (category-independent) Balut
//     combination detection.
//   - CalculateCategoryScore: explicit scoring of a named Balut category.
//
// Notes:
//   - All functions are stateless; an empty index set with score 0 is
//     the bust signal consumed by the game managers.
//   - Straight detection accepts a qualifying run anywhere among the
//     distinct sorted values, not only one starting at the lowest die.

package game

import "sort"

// Greed scoring values.
const (
	greedStraightScore    = 1500
	greedSixOfAKindScore  = 3000
	greedFiveOfAKindScore = 2000
	greedThreePairsScore  = 1500
	singleOneScore        = 100
	singleFiveScore       = 50
)

// CalculateGreedScore scores a Greed roll.
// Special combinations are checked first (straight, six/five of a
// kind, three pairs) and short-circuit with every die scoring.
// Otherwise triples score face*100 (1000 for ones), extra 1s and 5s
// beyond a triple score at their single-die rate, and loose 1s and 5s
// score individually. The returned set holds the indices of every
// scoring die; an empty set means bust.
func CalculateGreedScore(dice []int) (int, map[int]struct{}) {
	if len(dice) == 0 {
		return 0, map[int]struct{}{}
	}

	// Occurrence indices per face, in roll order.
	positions := make(map[int][]int)
	for i, d := range dice {
		positions[d] = append(positions[d], i)
	}

	// Special combinations first.
	switch {
	case isGreedStraight(dice):
		return greedStraightScore, indexSet(len(dice))
	case anyFaceCount(positions, 6):
		return greedSixOfAKindScore, indexSet(len(dice))
	case anyFaceCount(positions, 5):
		return greedFiveOfAKindScore, indexSet(len(dice))
	case countFacesWith(positions, 2) == 3 && len(positions) == 3:
		return greedThreePairsScore, indexSet(len(dice))
	}

	score := 0
	scoring := make(map[int]struct{})
	for face, idxs := range positions {
		switch {
		case len(idxs) >= 3:
			if face == 1 {
				score += 1000
			} else {
				score += face * 100
			}
			for _, i := range idxs[:3] {
				scoring[i] = struct{}{}
			}
			// Trailing 1s and 5s beyond the triple still score singly.
			if face == 1 || face == 5 {
				rate := singleFiveScore
				if face == 1 {
					rate = singleOneScore
				}
				for _, i := range idxs[3:] {
					score += rate
					scoring[i] = struct{}{}
				}
			}
		case face == 1:
			for _, i := range idxs {
				score += singleOneScore
				scoring[i] = struct{}{}
			}
		case face == 5:
			for _, i := range idxs {
				score += singleFiveScore
				scoring[i] = struct{}{}
			}
		}
	}
	return score, scoring
}

// CalculateBalutScore detects the best generic Balut combination in a
// roll, independent of any chosen category. Checked in priority order:
// five of a kind (50), four of a kind (40), full house (35), large
// straight (40), small straight (30). Returns (0, empty) when nothing
// matches.
func CalculateBalutScore(dice []int) (int, map[int]struct{}) {
	if len(dice) == 0 {
		return 0, map[int]struct{}{}
	}
	positions := make(map[int][]int)
	for i, d := range dice {
		positions[d] = append(positions[d], i)
	}

	if anyFaceCount(positions, 5) {
		return 50, indexSet(len(dice))
	}

	for _, idxs := range positions {
		if len(idxs) >= 4 {
			scoring := make(map[int]struct{}, 4)
			for _, i := range idxs[:4] {
				scoring[i] = struct{}{}
			}
			return 40, scoring
		}
	}

	if isFullHouse(positions) {
		return 35, indexSet(len(dice))
	}
	if hasRun(dice, 5) {
		return 40, indexSet(len(dice))
	}
	if hasRun(dice, 4) {
		return 30, indexSet(len(dice))
	}
	return 0, map[int]struct{}{}
}

// CalculateCategoryScore scores a roll against a named Balut category.
// Number categories sum the matching faces; shape categories return a
// fixed value or 0; Choice sums every die. Unknown categories score 0.
func CalculateCategoryScore(dice []int, category Category) int {
	switch category {
	case CatOnes:
		return countFace(dice, 1) * 1
	case CatTwos:
		return countFace(dice, 2) * 2
	case CatThrees:
		return countFace(dice, 3) * 3
	case CatFours:
		return countFace(dice, 4) * 4
	case CatFives:
		return countFace(dice, 5) * 5
	case CatSixes:
		return countFace(dice, 6) * 6
	case CatFiveOfAKind:
		if hasFaceCount(dice, 5) {
			return 50
		}
	case CatFourOfAKind:
		if hasFaceCount(dice, 4) {
			return 40
		}
	case CatFullHouse:
		positions := make(map[int][]int)
		for i, d := range dice {
			positions[d] = append(positions[d], i)
		}
		if isFullHouse(positions) {
			return 35
		}
	case CatSmallStraight:
		if hasRun(dice, 4) {
			return 30
		}
	case CatLargeStraight:
		if hasRun(dice, 5) {
			return 40
		}
	case CatChoice:
		sum := 0
		for _, d := range dice {
			sum += d
		}
		return sum
	}
	return 0
}

// isGreedStraight reports whether the roll is exactly 1-2-3-4-5-6.
func isGreedStraight(dice []int) bool {
	if len(dice) != 6 {
		return false
	}
	seen := make(map[int]bool, 6)
	for _, d := range dice {
		seen[d] = true
	}
	for f := 1; f <= 6; f++ {
		if !seen[f] {
			return false
		}
	}
	return true
}

// isFullHouse: exactly two distinct faces, one appearing three times.
func isFullHouse(positions map[int][]int) bool {
	if len(positions) != 2 {
		return false
	}
	for _, idxs := range positions {
		if len(idxs) == 3 {
			return true
		}
	}
	return false
}

// hasRun reports whether the distinct sorted dice values contain a run
// of length n of consecutive faces, starting anywhere.
func hasRun(dice []int, n int) bool {
	seen := make(map[int]bool)
	for _, d := range dice {
		seen[d] = true
	}
	distinct := make([]int, 0, len(seen))
	for d := range seen {
		distinct = append(distinct, d)
	}
	sort.Ints(distinct)

	run := 1
	for i := 1; i < len(distinct); i++ {
		if distinct[i] == distinct[i-1]+1 {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 1
		}
	}
	return run >= n
}

// anyFaceCount reports whether any face occurs at least n times.
func anyFaceCount(positions map[int][]int, n int) bool {
	for _, idxs := range positions {
		if len(idxs) >= n {
			return true
		}
	}
	return false
}

// countFacesWith counts faces occurring exactly n times.
func countFacesWith(positions map[int][]int, n int) int {
	c := 0
	for _, idxs := range positions {
		if len(idxs) == n {
			c++
		}
	}
	return c
}

func hasFaceCount(dice []int, n int) bool {
	counts := make(map[int]int)
	for _, d := range dice {
		counts[d]++
		if counts[d] >= n {
			return true
		}
	}
	return false
}

func countFace(dice []int, face int) int {
	c := 0
	for _, d := range dice {
		if d == face {
			c++
		}
	}
	return c
}
