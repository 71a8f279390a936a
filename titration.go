package gofacscore

import "fmt"

// Well identifies one concentration stop of a titration on a plate.
// The instrument writes each well to a file whose name starts with
// Well.FilePrefix(), e.g. "Specimen_001_A2".
type Well struct {
	Specimen int
	Letter   byte
	Number   int
}

// FilePrefix renders the instrument's file-name prefix for this well.
func (w Well) FilePrefix() string {
	return fmt.Sprintf("Specimen_%03d_%c%d", w.Specimen, w.Letter, w.Number)
}

func (w Well) String() string {
	return fmt.Sprintf("(%d, %c, %d)", w.Specimen, w.Letter, w.Number)
}

// MakeTitration expands sparse well specifiers into one Well per
// concentration stop. Each specifier holds either one value (broadcast to
// every stop) or one value per stop; letters are given as a string, one
// byte per stop. At least one specifier must vary, and all varying
// specifiers must agree on the stop count C.
//
//	MakeTitration([]int{1}, "A", []int{1, 2, 3, 4, 5, 6})
//	  -> (1,A,1) (1,A,2) (1,A,3) (1,A,4) (1,A,5) (1,A,6)
//	MakeTitration([]int{2}, "ABCD", []int{8, 9, 10, 11})
//	  -> (2,A,8) (2,B,9) (2,C,10) (2,D,11)
//
// Wells come back in positional order, unsorted and undeduplicated.
func MakeTitration(specimens []int, letters string, numbers []int) ([]Well, error) {
	if len(specimens) <= 1 && len(letters) <= 1 && len(numbers) <= 1 {
		return nil, ErrNoVariation
	}

	stops := max(len(specimens), max(len(letters), len(numbers)))

	if len(specimens) != stops && len(specimens) != 1 {
		return nil, fmt.Errorf("%w: %d specimens for %d stops", ErrLengthMismatch, len(specimens), stops)
	}
	if len(letters) != stops && len(letters) != 1 {
		return nil, fmt.Errorf("%w: %d letters for %d stops", ErrLengthMismatch, len(letters), stops)
	}
	if len(numbers) != stops && len(numbers) != 1 {
		return nil, fmt.Errorf("%w: %d well numbers for %d stops", ErrLengthMismatch, len(numbers), stops)
	}

	wells := make([]Well, stops)
	for i := range wells {
		wells[i] = Well{
			Specimen: broadcast(specimens, i),
			Letter:   letters[min(i, len(letters)-1)],
			Number:   broadcast(numbers, i),
		}
	}
	return wells, nil
}

// broadcast indexes s at i, repeating a single-element specifier forever.
func broadcast(s []int, i int) int {
	if len(s) == 1 {
		return s[0]
	}
	return s[i]
}
