package forecast

import "strings"

// Classify maps a parameter tuple to a discrete condition label. The rules
// are evaluated top to bottom and the first match wins; the ordering is part
// of the contract, since reordering changes the output for overlapping
// tuples.
func Classify(temp, humidity, pressure, wind float64) string {
	switch {
	case temp > 30 && humidity < 40:
		return "Hot and Dry"
	case temp > 30 && humidity > 70:
		return "Hot and Humid"
	case temp > 30:
		return "Hot"
	case humidity > 85 && pressure < 100.5:
		return "Rainy"
	case humidity > 85:
		return "Overcast"
	case temp < 0:
		return "Freezing"
	case temp < 10 && wind > 8:
		return "Cold and Windy"
	case temp < 10:
		return "Cold"
	case humidity > 65:
		return "Partly Cloudy"
	case wind > 12:
		return "Windy"
	default:
		return "Clear"
	}
}

// ConditionSlug normalizes a condition label for use as a cache key or file
// name.
func ConditionSlug(condition string) string {
	return strings.ReplaceAll(strings.ToLower(condition), " ", "_")
}
