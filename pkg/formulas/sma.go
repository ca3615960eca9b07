package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// SMASeries returns the simple moving average aligned with values.
// The first length-1 entries have no average and are nil; nil is returned when
// there are fewer than length values.
func SMASeries(values []float64, length int) []*float64 {
	if length <= 0 || len(values) < length {
		return nil
	}

	sma := talib.Sma(values, length)

	out := make([]*float64, len(values))
	for i := length - 1; i < len(sma) && i < len(values); i++ {
		if math.IsNaN(sma[i]) {
			continue
		}
		v := sma[i]
		out[i] = &v
	}
	return out
}
