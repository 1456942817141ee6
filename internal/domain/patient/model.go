package patient

import (
	"time"

	"github.com/eessp/eessp/pkg/cnp"
)

// Patient is the identity record keyed by CNP. Dates travel as strings:
// DataNasterii is YYYY-MM-DD, DataAdaugarii is "YYYY-MM-DD HH:MM:SS".
type Patient struct {
	CNP                    string  `json:"cnp"`
	Nume                   string  `json:"nume"`
	Prenume                string  `json:"prenume"`
	Sex                    string  `json:"sex"`
	DataNasterii           *string `json:"data_nasterii"`
	Varsta                 *int    `json:"varsta"`
	DataAdaugarii          string  `json:"data_adaugarii"`
	DataAdaugariiFormatted string  `json:"data_adaugarii_formatted"`
}

// Filter narrows List. Search matches nume, prenume or cnp.
type Filter struct {
	Search string
}

// Changes holds the whitelisted fields of a partial update; nil means
// "leave as is". Varsta is written whenever DataNasterii is.
type Changes struct {
	Nume         *string
	Prenume      *string
	Sex          *string
	DataNasterii *string // "" clears the column
	Varsta       *int
}

// Empty reports whether no field was supplied.
func (c Changes) Empty() bool {
	return c.Nume == nil && c.Prenume == nil && c.Sex == nil && c.DataNasterii == nil
}

// ComputeAge derives the age from the CNP and falls back to the birth date
// when the code does not carry a decodable date. nil means unknown.
func ComputeAge(code string, birthDate *string, now time.Time) *int {
	if age, ok := cnp.AgeAt(code, now); ok {
		return &age
	}
	if birthDate != nil {
		if age, ok := cnp.AgeFromBirthDate(*birthDate, now); ok {
			return &age
		}
	}
	return nil
}
