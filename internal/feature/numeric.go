package feature

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	errs "cardealworker/pkg/errors"
)

const component = "feature"

var digitsRegexp = regexp.MustCompile(`\d+`)

const (
	secondsPerYear = 365 * 24 * 60 * 60

	// huNewYears is credited when the inspection field reads "Neu"
	// instead of a date.
	huNewYears = 2.0
)

// ExtractNumber parses an integer out of a string with dotted
// thousands separators, e.g. "9.999" or "150.000 km". Separators are
// stripped first, then the first maximal digit run is taken.
func ExtractNumber(s string) (int, error) {
	cleaned := strings.ReplaceAll(s, ".", "")
	match := digitsRegexp.FindString(cleaned)
	if match == "" {
		return 0, errs.NewUnparsableNumeric(component, fmt.Sprintf("no digits in %q", s))
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, errs.NewUnparsableNumeric(component, fmt.Sprintf("digit run too large in %q", s))
	}
	return n, nil
}

// SecondNumber returns the second integer found in a string. The power
// field lists two values, kW first and PS second; PS is the one used.
func SecondNumber(s string) (int, error) {
	matches := digitsRegexp.FindAllString(strings.ReplaceAll(s, ".", ""), -1)
	if len(matches) < 2 {
		return 0, errs.NewUnparsableNumeric(component, fmt.Sprintf("expected two numbers in %q", s))
	}
	n, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, errs.NewUnparsableNumeric(component, fmt.Sprintf("digit run too large in %q", s))
	}
	return n, nil
}

// YearsSince parses an MM/YYYY date and returns the fractional years
// elapsed until now.
func YearsSince(s string, now time.Time) (float64, error) {
	t, err := time.Parse("01/2006", strings.TrimSpace(s))
	if err != nil {
		return 0, errs.NewUnparsableNumeric(component, fmt.Sprintf("not an MM/YYYY date: %q", s))
	}
	return now.Sub(t).Seconds() / secondsPerYear, nil
}

// YearsUntil parses an MM/YYYY date and returns the fractional years
// remaining from now. The literal "Neu" means the inspection was just
// passed and maps to a fixed credit instead of a date.
func YearsUntil(s string, now time.Time) (float64, error) {
	if strings.TrimSpace(s) == "Neu" {
		return huNewYears, nil
	}
	t, err := time.Parse("01/2006", strings.TrimSpace(s))
	if err != nil {
		return 0, errs.NewUnparsableNumeric(component, fmt.Sprintf("not an MM/YYYY date: %q", s))
	}
	return t.Sub(now).Seconds() / secondsPerYear, nil
}
