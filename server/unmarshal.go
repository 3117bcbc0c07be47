package server

import (
	"fmt"
	"slices"
	"strconv"
)

// unmarshalPointsListFast parses a JSON array of coordinate pairs
// ([[lat, lon], ...]) without going through encoding/json. The contains
// endpoint can be called with thousands of pairs per request and this path
// is allocation-free apart from the result slice. Any body encoding/json
// would reject is an error here too; the reverse does not hold (a pair must
// have at least two coordinates).
func unmarshalPointsListFast(data []byte, result *[][2]float64) error {
	i := 0
	n := len(data)

	*result = slices.Grow(*result, n/16) // n/16 is a heuristic

	i = skipSpace(data, i)
	if i >= n || data[i] != '[' {
		return fmt.Errorf("invalid format: expected '['")
	}
	i++

	i = skipSpace(data, i)
	if i < n && data[i] == ']' {
		return expectEnd(data, i+1)
	}

	for {
		i = skipSpace(data, i)
		if i >= n || data[i] != '[' {
			return fmt.Errorf("invalid format: expected '[' for point")
		}
		i++

		var point [2]float64
		for j := 0; j < 2; j++ {
			i = skipSpace(data, i)

			num, end, err := scanNumber(data, i)
			if err != nil {
				return err
			}
			point[j] = num
			i = skipSpace(data, end)

			if j < 1 {
				if i >= n || data[i] != ',' {
					return fmt.Errorf("invalid format: expected ',' between coordinates")
				}
				i++
			}
		}

		// coordinates past the second are validated and dropped
		for {
			if i < n && data[i] == ']' {
				i++
				break
			}
			if i >= n || data[i] != ',' {
				return fmt.Errorf("invalid format: expected ']' at end of point")
			}
			i = skipSpace(data, i+1)

			_, end, err := scanNumber(data, i)
			if err != nil {
				return err
			}
			i = skipSpace(data, end)
		}

		*result = append(*result, point)

		i = skipSpace(data, i)
		if i < n && data[i] == ',' {
			i++
			continue
		}
		if i < n && data[i] == ']' {
			return expectEnd(data, i+1)
		}
		return fmt.Errorf("invalid format: expected ',' or ']' after point")
	}
}

func scanNumber(data []byte, i int) (float64, int, error) {
	start := i
	for i < len(data) && isNumberByte(data[i]) {
		i++
	}
	if start == i || !jsonNumber(data[start:i]) {
		return 0, i, fmt.Errorf("invalid number at offset %d", start)
	}

	num, err := strconv.ParseFloat(string(data[start:i]), 64)
	if err != nil {
		return 0, i, fmt.Errorf("invalid number: %v", err)
	}
	return num, i, nil
}

// jsonNumber reports whether b matches the JSON number grammar. ParseFloat
// is more permissive (leading zeros, bare dots, a leading '+') and those
// forms must stay invalid here.
func jsonNumber(b []byte) bool {
	i, n := 0, len(b)
	if i < n && b[i] == '-' {
		i++
	}
	switch {
	case i < n && b[i] == '0':
		i++
	case i < n && b[i] >= '1' && b[i] <= '9':
		i++
		for i < n && b[i] >= '0' && b[i] <= '9' {
			i++
		}
	default:
		return false
	}
	if i < n && b[i] == '.' {
		i++
		start := i
		for i < n && b[i] >= '0' && b[i] <= '9' {
			i++
		}
		if i == start {
			return false
		}
	}
	if i < n && (b[i] == 'e' || b[i] == 'E') {
		i++
		if i < n && (b[i] == '+' || b[i] == '-') {
			i++
		}
		start := i
		for i < n && b[i] >= '0' && b[i] <= '9' {
			i++
		}
		if i == start {
			return false
		}
	}
	return i == n
}

func expectEnd(data []byte, i int) error {
	if skipSpace(data, i) != len(data) {
		return fmt.Errorf("invalid format: unexpected data after point list")
	}
	return nil
}

func skipSpace(data []byte, i int) int {
	for i < len(data) && (data[i] == ' ' || data[i] == '\n' || data[i] == '\t' || data[i] == '\r') {
		i++
	}
	return i
}

func isNumberByte(b byte) bool {
	return (b >= '0' && b <= '9') || b == '-' || b == '+' || b == '.' || b == 'e' || b == 'E'
}
