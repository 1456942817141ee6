package hospitalization

// Collection names a coded child collection; the value is both the JSON key
// and the table name.
type Collection string

const (
	ExplorariFunctionale    Collection = "explorari_functionale"
	InvestigatiiRadiologice Collection = "investigatii_radiologice"
	AlteProceduri           Collection = "alte_proceduri"
	AnalizeLaborator        Collection = "analize_laborator"
)

// TreatmentsKey is the JSON key and table of the treatment collection.
const TreatmentsKey = "tratamente"

// Collections lists the coded collections in response order.
var Collections = []Collection{
	ExplorariFunctionale,
	InvestigatiiRadiologice,
	AlteProceduri,
	AnalizeLaborator,
}

// Item is one row of a coded child collection.
type Item struct {
	ID            int64   `json:"id"`
	IDSpitalizare int64   `json:"id_spitalizare"`
	Denumire      string  `json:"denumire"`
	Cod           *string `json:"cod"`
	Numar         int     `json:"numar"`
}

// Treatment is one dated line of the treatment plan.
type Treatment struct {
	ID            int64  `json:"id"`
	IDSpitalizare int64  `json:"id_spitalizare"`
	DataTratament string `json:"data_tratament"`
	DataFormatted string `json:"data_formatted"`
	Descriere     string `json:"descriere"`
}

// Hospitalization is the aggregate: the episode row, the identity of the
// linked patient and the five child collections.
type Hospitalization struct {
	ID              int64   `json:"id"`
	CNPPacient      string  `json:"cnp_pacient"`
	IDDoctor        *int64  `json:"id_doctor"`
	DataSpitalizare string  `json:"data_spitalizare"`
	DataFormatted   string  `json:"data_formatted"`
	Judet           *string `json:"judet"`
	Localitate      *string `json:"localitate"`
	Spital          *string `json:"spital"`
	Sectie          *string `json:"sectie"`
	NrRegistru      *string `json:"nr_registru"`
	TipServicii     *string `json:"tip_servicii"`
	Status          string  `json:"status"`

	GrupSanguin string  `json:"grup_sanguin"`
	Rh          string  `json:"rh"`
	AlergicLa   *string `json:"alergic_la"`

	DomiciliuJudet      *string `json:"domiciliu_judet"`
	DomiciliuLocalitate *string `json:"domiciliu_localitate"`
	DomiciliuMediu      string  `json:"domiciliu_mediu"`
	DomiciliuStrada     *string `json:"domiciliu_strada"`
	DomiciliuNumar      *string `json:"domiciliu_numar"`

	ResedintaSameDomiciliu bool    `json:"resedinta_same_domiciliu"`
	ResedintaJudet         *string `json:"resedinta_judet"`
	ResedintaLocalitate    *string `json:"resedinta_localitate"`
	ResedintaMediu         string  `json:"resedinta_mediu"`
	ResedintaStrada        *string `json:"resedinta_strada"`
	ResedintaNumar         *string `json:"resedinta_numar"`

	Cetatenie      string  `json:"cetatenie"`
	Ocupatia       *string `json:"ocupatia"`
	LocDeMunca     *string `json:"loc_de_munca"`
	NivelInstruire string  `json:"nivel_instruire"`

	StatutAsigurat    string  `json:"statut_asigurat"`
	CategorieAsigurat *string `json:"categorie_asigurat"`

	DiagnosticPrincipal  *string  `json:"diagnostic_principal"`
	CodICD               *string  `json:"cod_icd"`
	DiagnosticeSecundare []string `json:"diagnostice_secundare"`
	Epicriza             *string  `json:"epicriza"`
	UltimaModificare     string   `json:"ultima_modificare"`

	Nume                string  `json:"nume"`
	Prenume             string  `json:"prenume"`
	PacientSex          string  `json:"pacient_sex"`
	PacientDataNasterii *string `json:"pacient_data_nasterii"`
	PacientVarsta       *int    `json:"pacient_varsta"`

	ExplorariFunctionale    []Item      `json:"explorari_functionale"`
	InvestigatiiRadiologice []Item      `json:"investigatii_radiologice"`
	AlteProceduri           []Item      `json:"alte_proceduri"`
	AnalizeLaborator        []Item      `json:"analize_laborator"`
	Tratamente              []Treatment `json:"tratamente"`

	// rawDiagnoses is the stored JSON text of diagnostice_secundare.
	rawDiagnoses *string
}

// Items returns a pointer to the slice holding collection c.
func (h *Hospitalization) Items(c Collection) *[]Item {
	switch c {
	case ExplorariFunctionale:
		return &h.ExplorariFunctionale
	case InvestigatiiRadiologice:
		return &h.InvestigatiiRadiologice
	case AlteProceduri:
		return &h.AlteProceduri
	case AnalizeLaborator:
		return &h.AnalizeLaborator
	}
	return nil
}

// Summary is a list row: the episode with the patient's name.
type Summary struct {
	ID               int64   `json:"id"`
	CNPPacient       string  `json:"cnp_pacient"`
	IDDoctor         *int64  `json:"id_doctor"`
	DataSpitalizare  string  `json:"data_spitalizare"`
	DataFormatted    string  `json:"data_formatted"`
	Sectie           *string `json:"sectie"`
	Status           string  `json:"status"`
	UltimaModificare string  `json:"ultima_modificare"`
	Nume             string  `json:"nume"`
	Prenume          string  `json:"prenume"`
	NumeComplet      string  `json:"nume_complet"`
}

// Filter narrows List. Empty fields are not applied.
type Filter struct {
	Search string
	Status string
	Sectie string
}
