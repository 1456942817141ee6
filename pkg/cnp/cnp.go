// Package cnp decodes Romanian personal numeric codes (CNP). A CNP is 13
// digits: a sex/century digit, the birth date as YYMMDD, a county code, a
// serial number and a check digit. Only the first seven digits are used here.
package cnp

import (
	"time"
)

// Length is the number of characters in a CNP.
const Length = 13

// Valid reports whether code is exactly 13 ASCII digits.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// century maps the sex/century digit to the base year. Digits outside the
// known ranges fall back to 1900.
func century(s byte) int {
	switch s {
	case '1', '2':
		return 1900
	case '3', '4':
		return 1800
	case '5', '6', '7', '8':
		return 2000
	default:
		return 1900
	}
}

// BirthDate returns the birth date encoded in code. The second value is false
// when the code is not 13 characters long, the date digits are not numeric,
// or they do not form a real calendar date.
func BirthDate(code string) (time.Time, bool) {
	if len(code) != Length {
		return time.Time{}, false
	}
	yy, ok1 := twoDigits(code[1:3])
	mm, ok2 := twoDigits(code[3:5])
	dd, ok3 := twoDigits(code[5:7])
	if !ok1 || !ok2 || !ok3 {
		return time.Time{}, false
	}

	year := century(code[0]) + yy
	d := time.Date(year, time.Month(mm), dd, 0, 0, 0, 0, time.UTC)
	// time.Date normalises overflow (e.g. 31 Feb -> 3 Mar); reject those.
	if d.Year() != year || int(d.Month()) != mm || d.Day() != dd {
		return time.Time{}, false
	}
	return d, true
}

// AgeAt returns the age in completed years at now for the person identified
// by code. It reports false for malformed codes and for birth dates after now.
func AgeAt(code string, now time.Time) (int, bool) {
	born, ok := BirthDate(code)
	if !ok {
		return 0, false
	}
	return yearsBetween(born, now)
}

// AgeFromBirthDate returns the completed years between an ISO (YYYY-MM-DD)
// birth date and now.
func AgeFromBirthDate(isoDate string, now time.Time) (int, bool) {
	born, err := time.Parse("2006-01-02", isoDate)
	if err != nil {
		return 0, false
	}
	return yearsBetween(born, now)
}

func yearsBetween(born, now time.Time) (int, bool) {
	by, bm, bd := born.Date()
	ny, nm, nd := now.Date()
	if ny < by || (ny == by && (nm < bm || (nm == bm && nd < bd))) {
		return 0, false
	}
	age := ny - by
	if nm < bm || (nm == bm && nd < bd) {
		age--
	}
	return age, true
}

func twoDigits(s string) (int, bool) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}
