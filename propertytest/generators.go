// Package propertytest holds property-based and command-sequence tests that
// exercise the deck, review and study packages together.
package propertytest

import (
	"reflect"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
)

// Epoch is the creation instant of generated cards.
var Epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// GenFront draws from a small pool so duplicate fronts come up often.
func GenFront() gopter.Gen {
	return gen.OneConstOf("hola", "adios", "gracias", "perro", "gato", "casa", "agua", "libro")
}

// GenText produces a non-blank answer.
func GenText(maxLen int) gopter.Gen {
	return gen.Identifier().
		Map(func(s string) string {
			if len(s) > maxLen {
				return s[:maxLen]
			}
			return s
		})
}

// GenOutcomes produces a review history of up to n pass/fail outcomes.
func GenOutcomes(n int) gopter.Gen {
	return gen.IntRange(0, n).FlatMap(func(v interface{}) gopter.Gen {
		return gen.SliceOfN(v.(int), gen.Bool())
	}, reflect.TypeOf([]bool{}))
}

// GenAge produces a card age between one minute and thirty days.
func GenAge() gopter.Gen {
	return gen.Int64Range(int64(time.Minute), int64(30*24*time.Hour)).
		Map(func(n int64) time.Duration { return time.Duration(n) })
}
