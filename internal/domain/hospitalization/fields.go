package hospitalization

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/eessp/eessp/internal/platform/apperr"
	"github.com/eessp/eessp/internal/platform/payload"
	"github.com/eessp/eessp/internal/platform/query"
	"github.com/eessp/eessp/pkg/textnorm"
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindDate
	kindBool
	kindDoctor
	kindDiagnoses
)

// parentField describes one writable column of spitalizari_de_zi. The
// column name doubles as the JSON key.
type parentField struct {
	column string
	kind   fieldKind
	// def yields the value stored on create when the key is absent. A nil
	// def stores NULL.
	def func(now time.Time) interface{}
}

func constant(v interface{}) func(time.Time) interface{} {
	return func(time.Time) interface{} { return v }
}

func today(now time.Time) interface{} { return now.Format(payload.DateLayout) }

func systemStamp(now time.Time) interface{} { return now.Format("02.01.2006") + " - System" }

var empty = constant("")

// parentFields is the whitelist shared by Create and Update; the patient link
// (cnp_pacient) is set only on create and is not part of it.
var parentFields = []parentField{
	{column: "id_doctor", kind: kindDoctor},
	{column: "data_spitalizare", kind: kindDate, def: today},
	{column: "judet"},
	{column: "localitate"},
	{column: "spital"},
	{column: "sectie"},
	{column: "nr_registru"},
	{column: "tip_servicii"},
	{column: "status", def: constant("draft")},
	{column: "grup_sanguin", def: empty},
	{column: "rh", def: empty},
	{column: "alergic_la"},
	{column: "domiciliu_judet"},
	{column: "domiciliu_localitate"},
	{column: "domiciliu_mediu", def: empty},
	{column: "domiciliu_strada"},
	{column: "domiciliu_numar"},
	{column: "resedinta_same_domiciliu", kind: kindBool, def: constant(false)},
	{column: "resedinta_judet"},
	{column: "resedinta_localitate"},
	{column: "resedinta_mediu", def: empty},
	{column: "resedinta_strada"},
	{column: "resedinta_numar"},
	{column: "cetatenie", def: constant("romana")},
	{column: "ocupatia"},
	{column: "loc_de_munca"},
	{column: "nivel_instruire", def: empty},
	{column: "statut_asigurat", def: empty},
	{column: "categorie_asigurat"},
	{column: "diagnostic_principal"},
	{column: "cod_icd"},
	{column: "diagnostice_secundare", kind: kindDiagnoses},
	{column: "epicriza"},
	{column: "ultima_modificare", def: systemStamp},
}

func (pf parentField) cast() string {
	switch pf.kind {
	case kindDate:
		return "date"
	case kindDiagnoses:
		return "jsonb"
	}
	return ""
}

func (pf parentField) defaultValue(now time.Time) interface{} {
	if pf.def == nil {
		return nil
	}
	return pf.def(now)
}

// read decodes the field from a payload in which it is present. On create a
// blank date takes the default; on update it is rejected because the column
// is NOT NULL.
func (pf parentField) read(f payload.Fields, now time.Time, create bool) (interface{}, error) {
	switch pf.kind {
	case kindDate:
		d, err := f.Date(pf.column)
		if err != nil {
			return nil, apperr.Validation("%s", err.Error())
		}
		if d == nil {
			if create {
				return pf.defaultValue(now), nil
			}
			return nil, apperr.Validation("field %s must not be blank", pf.column)
		}
		return *d, nil

	case kindBool:
		b, err := f.Bool(pf.column)
		if err != nil {
			return nil, apperr.Validation("%s", err.Error())
		}
		return b, nil

	case kindDoctor:
		// Blank or zero unassigns the doctor.
		if s, err := f.String(pf.column); err == nil && strings.TrimSpace(s) == "" {
			return nil, nil
		}
		id, err := f.Int64(pf.column)
		if err != nil || id < 0 {
			return nil, apperr.Validation("field %s must be an integer", pf.column)
		}
		if id == 0 {
			return nil, nil
		}
		return id, nil

	case kindDiagnoses:
		list, err := f.Strings(pf.column)
		if err != nil {
			return nil, apperr.Validation("%s", err.Error())
		}
		raw, err := encodeDiagnoses(list)
		if err != nil {
			return nil, apperr.Validation("%s", err.Error())
		}
		if raw == nil {
			return nil, nil
		}
		return *raw, nil
	}

	s, err := f.String(pf.column)
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	return textnorm.Clean(s), nil
}

// parentSet builds the column assignments for the parent row. On create
// every whitelisted column is assigned, absent ones from their default; on
// update only the columns present in f are.
func parentSet(f payload.Fields, now time.Time, create bool) ([]query.Assignment, error) {
	set := make([]query.Assignment, 0, len(parentFields))
	for _, pf := range parentFields {
		var v interface{}
		switch {
		case f.Has(pf.column):
			var err error
			if v, err = pf.read(f, now, create); err != nil {
				return nil, err
			}
		case create:
			v = pf.defaultValue(now)
		default:
			continue
		}
		set = append(set, query.Assignment{Column: pf.column, Value: v, Cast: pf.cast()})
	}
	return set, nil
}

// encodeDiagnoses renders the secondary diagnoses as a JSON array with
// Unicode and HTML characters left unescaped. Blank entries are dropped and
// an empty list encodes as nil, stored as NULL.
func encodeDiagnoses(list []string) (*string, error) {
	cleaned := make([]string, 0, len(list))
	for _, d := range list {
		if d = textnorm.Clean(d); d != "" {
			cleaned = append(cleaned, d)
		}
	}
	if len(cleaned) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cleaned); err != nil {
		return nil, err
	}
	s := strings.TrimSuffix(buf.String(), "\n")
	return &s, nil
}

// decodeDiagnoses parses the stored column; NULL or blank is an empty list.
func decodeDiagnoses(raw *string) ([]string, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(*raw), &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

// children holds the child collections present in a payload, already
// filtered of blank items.
type children struct {
	items      map[Collection][]Item
	treatments []Treatment
	// hasTreatments is set when the tratamente key was present, even as [].
	hasTreatments bool
	skipped       map[string]int
}

func (c children) empty() bool {
	return len(c.items) == 0 && !c.hasTreatments
}

// readChildren decodes the child collection keys present in f. Items whose
// required field is blank are dropped and counted in skipped.
func readChildren(f payload.Fields, now time.Time) (children, error) {
	c := children{items: make(map[Collection][]Item), skipped: make(map[string]int)}

	for _, coll := range Collections {
		key := string(coll)
		if !f.Has(key) {
			continue
		}
		objs, err := f.Objects(key)
		if err != nil {
			return c, apperr.Validation("%s", err.Error())
		}
		items := make([]Item, 0, len(objs))
		for _, obj := range objs {
			it, ok, err := readItem(obj)
			if err != nil {
				return c, apperr.Validation("%s[]: %s", key, err.Error())
			}
			if !ok {
				c.skipped[key]++
				continue
			}
			items = append(items, it)
		}
		c.items[coll] = items
	}

	if f.Has(TreatmentsKey) {
		objs, err := f.Objects(TreatmentsKey)
		if err != nil {
			return c, apperr.Validation("%s", err.Error())
		}
		c.hasTreatments = true
		c.treatments = make([]Treatment, 0, len(objs))
		for _, obj := range objs {
			t, ok, err := readTreatment(obj, now)
			if err != nil {
				return c, apperr.Validation("%s[]: %s", TreatmentsKey, err.Error())
			}
			if !ok {
				c.skipped[TreatmentsKey]++
				continue
			}
			c.treatments = append(c.treatments, t)
		}
	}
	return c, nil
}

func readItem(obj payload.Fields) (Item, bool, error) {
	var it Item
	name, err := obj.String("denumire")
	if err != nil {
		return it, false, err
	}
	if it.Denumire = textnorm.Clean(name); it.Denumire == "" {
		return it, false, nil
	}

	code, err := obj.String("cod")
	if err != nil {
		return it, false, err
	}
	if code = textnorm.Clean(code); code != "" {
		it.Cod = &code
	}

	it.Numar = 1
	raw, err := obj.String("numar")
	if err != nil {
		return it, false, err
	}
	if strings.TrimSpace(raw) != "" {
		// numar is an INTEGER column.
		n, err := obj.Int64("numar")
		if err != nil || n < 1 || n > math.MaxInt32 {
			return it, false, errors.New("field numar must be a positive integer")
		}
		it.Numar = int(n)
	}
	return it, true, nil
}

// readTreatment accepts the date as "data" or, as returned by reads,
// "data_tratament". It defaults to the current date.
func readTreatment(obj payload.Fields, now time.Time) (Treatment, bool, error) {
	var t Treatment
	desc, err := obj.String("descriere")
	if err != nil {
		return t, false, err
	}
	if t.Descriere = textnorm.Clean(desc); t.Descriere == "" {
		return t, false, nil
	}

	key := "data"
	if !obj.Has(key) {
		key = "data_tratament"
	}
	d, err := obj.Date(key)
	if err != nil {
		return t, false, err
	}
	t.DataTratament = now.Format(payload.DateLayout)
	if d != nil {
		t.DataTratament = *d
	}
	return t, true, nil
}
