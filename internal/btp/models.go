package btp

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Date is a calendar day encoded as YYYY-MM-DD on the wire.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.Local)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())}
}

func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return Date{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// SameDay compares calendar days, ignoring location and clock.
func (d Date) SameDay(other Date) bool {
	return d.Year() == other.Year() && d.Month() == other.Month() && d.Day() == other.Day()
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if s == "" {
		*d = Date{}
		return nil
	}
	// Django sometimes serializes full ISO datetimes where a day is expected.
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type Slot struct {
	ID         int             `json:"id"`
	Date       Date            `json:"date"`
	UserID     int             `json:"user_id"`
	ChantierID int             `json:"chantier_id"`
	StartHour  string          `json:"start_hour"`
	EndHour    string          `json:"end_hour"`
	Hours      decimal.Decimal `json:"hours"`
	Cost       decimal.Decimal `json:"cost"`
}

type User struct {
	ID       int    `json:"id"`
	Prenom   string `json:"prenom"`
	Nom      string `json:"nom"`
	FullName string `json:"full_name"`
}

func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return strings.TrimSpace(u.Prenom + " " + u.Nom)
}

type Chantier struct {
	ID                    int             `json:"id"`
	NameChantier          string          `json:"name_chantier"`
	AdresseChantier       string          `json:"adresse_chantier"`
	CPVilleChantier       string          `json:"cp_ville_chantier"`
	DateDebutChantier     Date            `json:"date_debut_chantier"`
	ChefChantier          string          `json:"chef_chantier"`
	AvancementChantier    int             `json:"avancement_chantier"`
	AvancementStatut      []string        `json:"avancement_statut"`
	DevisHT               decimal.Decimal `json:"devis_ht"`
	NombreDeJoursChantier int             `json:"nombre_de_jours_chantier"`
}

const undefinedStatus = "NON DÉFINI"

// StatusBadge is the first progress label, or NON DÉFINI when none is set.
func (c Chantier) StatusBadge() string {
	if len(c.AvancementStatut) > 0 && c.AvancementStatut[0] != "" {
		return c.AvancementStatut[0]
	}
	return undefinedStatus
}

type Employee struct {
	ID              int              `json:"id"`
	Prenom          string           `json:"prenom"`
	Nom             string           `json:"nom"`
	FullName        string           `json:"full_name"`
	Email           string           `json:"email"`
	NumeroTelephone string           `json:"numero_telephone"`
	UserType        string           `json:"user_type"`
	CoutH           *decimal.Decimal `json:"cout_h"`
	Equipe          string           `json:"equipe"`
	Competences     []string         `json:"competences"`
}

type Team struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	ChefEquipe  string `json:"chef_equipe"`
	MemberCount int    `json:"member_count"`
}

type Commande struct {
	ID           int             `json:"id"`
	Reference    string          `json:"reference"`
	ChantierName string          `json:"chantier_name"`
	Fournisseur  string          `json:"fournisseur"`
	MontantHT    decimal.Decimal `json:"montant_ht"`
	Statut       string          `json:"statut"`
	CreatedAt    Date            `json:"created_at"`
}

type Piste struct {
	ID            int             `json:"id"`
	Client        string          `json:"client"`
	Statut        string          `json:"statut"`
	Source        string          `json:"source"`
	MontantEstime decimal.Decimal `json:"montant_estime"`
	Probabilite   int             `json:"probabilite"`
	DateRelance   Date            `json:"date_relance"`
	Notes         string          `json:"notes"`
}

type PlanningData struct {
	Slots     []Slot     `json:"slots"`
	Users     []User     `json:"users"`
	Chantiers []Chantier `json:"chantiers"`
}

type CreateResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      int    `json:"id"`
}
