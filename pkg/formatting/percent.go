package formatting

import "math"

// Percent returns part as a percentage of whole, rounded to the given number of
// decimal places. A zero or negative whole yields 0.
func Percent(part, whole, places int) float64 {
	if whole <= 0 {
		return 0
	}
	if places < 0 {
		places = 0
	}
	scale := math.Pow(10, float64(places))
	return math.Round(float64(part)/float64(whole)*100*scale) / scale
}
