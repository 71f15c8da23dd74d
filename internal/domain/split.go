package domain

import (
	"fmt"
	"math"
)

// DefaultTrainRatio is the share of records assigned to the training partition.
const DefaultTrainRatio = 0.8

// Split partitions records chronologically: train = records[:floor(N*ratio)],
// test = the remainder. Both partitions share the input's backing array and
// must be treated as read-only.
func Split(records []HourlyRecord, ratio float64) (train, test Partition, err error) {
	n := len(records)
	if n < 2 {
		return nil, nil, &InsufficientDataError{Have: n, Need: 2}
	}
	if math.IsNaN(ratio) || ratio <= 0 || ratio >= 1 {
		return nil, nil, fmt.Errorf("split ratio %v outside (0, 1): %w", ratio, &InsufficientDataError{Have: n, Need: 2})
	}

	at := int(math.Floor(float64(n) * ratio))
	if at == 0 || at == n {
		need := int(math.Ceil(1 / math.Min(ratio, 1-ratio)))
		return nil, nil, &InsufficientDataError{Have: n, Need: need}
	}

	// Cap capacities so an append on train can never overwrite test.
	return Partition(records[:at:at]), Partition(records[at:n:n]), nil
}
