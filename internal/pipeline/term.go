package pipeline

import (
	"regexp"
	"strconv"
)

// Standard auction ladders. Bills are quoted in weeks, notes and bonds in
// years; raw term strings come in mixed forms like "9-Year 10-Month",
// "29-Year 11-Month", "42-Day" or "13-Week".
var (
	weekLadder = []int{4, 8, 13, 17, 26, 52}
	yearLadder = []int{2, 3, 5, 7, 10, 20, 30}

	yearMonthRe = regexp.MustCompile(`^(\d+)-Year(?: (\d+)-Month)?$`)
	monthRe     = regexp.MustCompile(`^(\d+)-Month$`)
	weekRe      = regexp.MustCompile(`^(\d+)-Week$`)
	dayRe       = regexp.MustCompile(`^(\d+)-Day$`)
)

// StandardizeTerm maps a raw security term string onto the nearest standard
// auction term. Returns "" when the input does not parse; callers store the
// raw value alongside, so nothing is lost by an unmapped term.
func StandardizeTerm(raw string) string {
	if raw == "" {
		return ""
	}

	if m := yearMonthRe.FindStringSubmatch(raw); m != nil {
		years, _ := strconv.Atoi(m[1])
		months := 0
		if m[2] != "" {
			months, _ = strconv.Atoi(m[2])
		}
		return nearestYears(years*12 + months)
	}
	if m := monthRe.FindStringSubmatch(raw); m != nil {
		months, _ := strconv.Atoi(m[1])
		if months >= 18 {
			return nearestYears(months)
		}
		return nearestWeeks(months * 52 / 12)
	}
	if m := weekRe.FindStringSubmatch(raw); m != nil {
		weeks, _ := strconv.Atoi(m[1])
		return nearestWeeks(weeks)
	}
	if m := dayRe.FindStringSubmatch(raw); m != nil {
		days, _ := strconv.Atoi(m[1])
		return nearestWeeks((days + 3) / 7)
	}
	return ""
}

func nearestYears(totalMonths int) string {
	best := yearLadder[0]
	bestDiff := -1
	for _, y := range yearLadder {
		diff := totalMonths - y*12
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = y, diff
		}
	}
	return strconv.Itoa(best) + "-Year"
}

func nearestWeeks(weeks int) string {
	best := weekLadder[0]
	bestDiff := -1
	for _, w := range weekLadder {
		diff := weeks - w
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = w, diff
		}
	}
	return strconv.Itoa(best) + "-Week"
}
