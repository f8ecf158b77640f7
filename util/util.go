package util

// General purpose helpers shared across the pipeline tasks.

// GetStringListAsBatch splits the list into batches of given size. Used to
// fan identities and purchases out to worker goroutines.
func GetStringListAsBatch(list []string, batchSize int) [][]string {
	batchList := make([][]string, 0)
	listLen := len(list)
	for i := 0; i < listLen; i += batchSize {
		batch := list[i:MinInt(i+batchSize, listLen)]
		batchList = append(batchList, batch)
	}
	return batchList
}

func MinInt(x, y int) int {
	if x < y {
		return x
	}
	return y
}

func ContainsStringInArray(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

// SafeRate returns numerator/denominator, or 0 for an empty denominator.
// Used for quality-flag rates where an empty feed must not divide by zero.
func SafeRate(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}

func StringPtr(value string) *string {
	return &value
}

func Float64Ptr(value float64) *float64 {
	return &value
}
