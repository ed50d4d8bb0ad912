package domain

import "time"

// Case identifies one tracked expediente and where its published
// record set is fetched from.
type Case struct {
	ID        string    `json:"id"`
	Number    int       `json:"number"`
	Year      int       `json:"year"`
	CourtID   string    `json:"court_id"`
	SourceURL string    `json:"source_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Court is one catalog entry the case metadata resolves against.
type Court struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	ExtractCode string `json:"extract_code"`
}

// Extract groups courts under one published bulletin section.
type Extract struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	KeySearch   string `json:"key_search"`
}

// CaseEntry is one published agreement attached to a case. Field names
// mirror the upstream JSON keys; (EXP, FCH_ACU) is the natural key,
// everything else may change between fetches.
type CaseEntry struct {
	Exp             string `json:"EXP"`
	CourtCode       string `json:"CVE_JUZ"`
	ProcedureDate   string `json:"FCH_PRO"`
	AgreementDate   string `json:"FCH_ACU"`
	Bulletin        string `json:"BOLETIN"`
	Bulletin2       string `json:"BOLETIN2,omitempty"`
	Bulletin3       string `json:"BOLETIN3,omitempty"`
	Type            string `json:"TIPO"`
	Notification    string `json:"NOTIFICACI"`
	Direction       string `json:"DI"`
	ResolutionDate  string `json:"FCH_RES"`
	Description     string `json:"DESCRIP"`
	ActorNames      string `json:"act_names"`
	DefendantNames  string `json:"dem_names"`
	AuthorityNames  string `json:"aut_names,omitempty"`
	ProsecutorNames string `json:"pro_names,omitempty"`
}

// Key returns the composite natural key of the entry.
func (e CaseEntry) Key() string {
	return e.Exp + "|" + e.AgreementDate
}
