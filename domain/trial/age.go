package trial

import "strconv"

// The intake form stores one representative age per range; reports group by
// the range label.
var ageBuckets = map[int]string{
	22: "18-25",
	30: "26-35",
	40: "36-45",
	53: "46-60",
	65: "60+",
}

// AgeBucketOrder is the ordinal ordering for age-group comparisons.
var AgeBucketOrder = []string{"18-25", "26-35", "36-45", "46-60", "60+"}

// AgeBucket maps a stored age value to its display range. Ages outside the
// known mapping pass through as their literal value so they are still
// visible in reports rather than silently dropped.
func AgeBucket(age int) string {
	if bucket, ok := ageBuckets[age]; ok {
		return bucket
	}
	return strconv.Itoa(age)
}
