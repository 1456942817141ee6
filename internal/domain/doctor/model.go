package doctor

// Doctor is a staff record. Specializari is an ordered set; it is only
// flattened to a delimited string inside the repository.
type Doctor struct {
	ID                     int64    `json:"id"`
	CNP                    string   `json:"cnp"`
	Nume                   string   `json:"nume"`
	Prenume                string   `json:"prenume"`
	Specializari           []string `json:"specializari"`
	Email                  *string  `json:"email"`
	Telefon                *string  `json:"telefon"`
	Activ                  bool     `json:"activ"`
	DataAngajarii          *string  `json:"data_angajarii"`
	DataAngajariiFormatted *string  `json:"data_angajarii_formatted"`
}

// Filter narrows List. Search matches nume, prenume or cnp; Activ, when set,
// keeps only doctors with that flag.
type Filter struct {
	Search string
	Activ  *bool
}

// Changes holds the whitelisted fields of a partial update; nil means
// "leave as is".
type Changes struct {
	Nume          *string
	Prenume       *string
	Specializari  *[]string
	Email         *string
	Telefon       *string
	Activ         *bool
	DataAngajarii *string // "" clears the column
}

func (c Changes) Empty() bool {
	return c.Nume == nil && c.Prenume == nil && c.Specializari == nil &&
		c.Email == nil && c.Telefon == nil && c.Activ == nil && c.DataAngajarii == nil
}
