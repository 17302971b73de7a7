package mathutil

// Rate conversion limits
const (
	// maxRateValue bounds integer rates so that products of rates and
	// fragment sizes stay well inside int64.
	maxRateValue = 1<<31 - 1

	// defaultHelperFactor leaves rates unscaled before the exactness check.
	defaultHelperFactor = 1.0
)
