package calendar

import "time"

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	TARGET CalendarID = "TARGET"
	JPN    CalendarID = "JPN"
	USD    CalendarID = "USD"
	KRW    CalendarID = "KRW"
	// WeekendsOnly treats every weekday as a business day.
	WeekendsOnly CalendarID = "WEEKENDS"
)

func isHoliday(cal CalendarID, t time.Time) bool {
	switch cal {
	case TARGET:
		return isTargetHoliday(t)
	case USD:
		return isUSDHoliday(t)
	case JPN:
		return isFixedHoliday(t, jpnFixed)
	case KRW:
		return isFixedHoliday(t, krwFixed)
	default:
		return false
	}
}

type monthDay struct {
	month time.Month
	day   int
}

var jpnFixed = []monthDay{
	{time.January, 1}, {time.January, 2}, {time.January, 3},
	{time.February, 11}, {time.April, 29}, {time.May, 3}, {time.May, 4}, {time.May, 5},
	{time.November, 3}, {time.November, 23}, {time.December, 31},
}

var krwFixed = []monthDay{
	{time.January, 1}, {time.March, 1}, {time.May, 5}, {time.June, 6},
	{time.August, 15}, {time.October, 3}, {time.October, 9}, {time.December, 25},
}

func isFixedHoliday(t time.Time, days []monthDay) bool {
	for _, md := range days {
		if t.Month() == md.month && t.Day() == md.day {
			return true
		}
	}
	return false
}

func isTargetHoliday(t time.Time) bool {
	m, d := t.Month(), t.Day()
	switch {
	case m == time.January && d == 1,
		m == time.May && d == 1,
		m == time.December && (d == 25 || d == 26):
		return true
	}
	easter := EasterSunday(t.Year())
	return sameDay(t, easter.AddDate(0, 0, -2)) || sameDay(t, easter.AddDate(0, 0, 1))
}

// isUSDHoliday covers the SIFMA-style fixed and floating federal holidays.
func isUSDHoliday(t time.Time) bool {
	y, m, d := t.Date()
	switch m {
	case time.January:
		return sameDay(t, observed(time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC))) ||
			sameDay(t, nthWeekday(y, time.January, time.Monday, 3))
	case time.February:
		return sameDay(t, nthWeekday(y, time.February, time.Monday, 3))
	case time.May:
		return sameDay(t, lastWeekday(y, time.May, time.Monday))
	case time.June:
		return y >= 2022 && sameDay(t, observed(time.Date(y, time.June, 19, 0, 0, 0, 0, time.UTC)))
	case time.July:
		return sameDay(t, observed(time.Date(y, time.July, 4, 0, 0, 0, 0, time.UTC)))
	case time.September:
		return sameDay(t, nthWeekday(y, time.September, time.Monday, 1))
	case time.October:
		return sameDay(t, nthWeekday(y, time.October, time.Monday, 2))
	case time.November:
		return sameDay(t, observed(time.Date(y, time.November, 11, 0, 0, 0, 0, time.UTC))) ||
			sameDay(t, nthWeekday(y, time.November, time.Thursday, 4))
	case time.December:
		return d >= 24 && sameDay(t, observed(time.Date(y, time.December, 25, 0, 0, 0, 0, time.UTC)))
	}
	return false
}

func observed(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, -1)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	}
	return t
}

func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(wd) - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, offset+7*(n-1))
}

func lastWeekday(year int, month time.Month, wd time.Weekday) time.Time {
	t := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	offset := (int(t.Weekday()) - int(wd) + 7) % 7
	return t.AddDate(0, 0, -offset)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// EasterSunday returns Gregorian Easter Sunday (anonymous Gregorian algorithm).
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// IsBusinessDay checks weekends and holiday sets.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// Adjust applies Modified Following.
func Adjust(cal CalendarID, t time.Time) time.Time {
	origMonth := t.Month()
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AdjustFollowing applies a simple Following convention (no month preservation).
func AdjustFollowing(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}

// NextIMMDate returns the first CDS roll date (20th of Mar, Jun, Sep, Dec) strictly after t.
func NextIMMDate(t time.Time) time.Time {
	y, m, d := t.Date()
	for {
		if (m-1)%3 == 2 && d < 20 {
			return time.Date(y, m, 20, 0, 0, 0, 0, time.UTC)
		}
		d = 0
		m++
		if m > time.December {
			m = time.January
			y++
		}
	}
}
