package listing

import (
	"strconv"
	"strings"

	"github.com/christopherklint97/mybtp/internal/btp"
	"github.com/christopherklint97/mybtp/internal/format"
)

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return format.Missing
	}
	return s
}

var Chantiers = Spec[btp.Chantier]{
	Feature:     btp.Chantiers,
	Title:       "Chantiers",
	Columns:     []string{"Chantier", "Adresse", "Chef", "Avancement", "Devis HT"},
	Placeholder: "Aucun chantier trouvé",
	Fetch:       (*btp.Client).ListChantiers,
	Search: func(c btp.Chantier) []string {
		return []string{c.NameChantier, c.AdresseChantier, c.CPVilleChantier}
	},
	Enums: []Enum[btp.Chantier]{
		{Name: "manager", Label: "Chef", Value: func(c btp.Chantier) string { return c.ChefChantier }},
		{Name: "status", Label: "Statut", Value: btp.Chantier.StatusBadge},
	},
	RangeLabel: "Avancement",
	RangeValue: func(c btp.Chantier) int { return c.AvancementChantier },
	Row: func(c btp.Chantier) []string {
		address := strings.TrimSpace(c.AdresseChantier + " " + c.CPVilleChantier)
		return []string{
			orMissing(c.NameChantier),
			orMissing(address),
			orMissing(c.ChefChantier),
			format.Percentage(c.AvancementChantier) + " " + c.StatusBadge(),
			format.Currency(c.DevisHT),
		}
	},
}

var Employees = Spec[btp.Employee]{
	Feature:     btp.Employees,
	Title:       "Employés",
	Columns:     []string{"Nom", "Email", "Téléphone", "Type", "Équipe", "Coût/h", "Compétences", "ID"},
	Placeholder: "Aucun employé trouvé",
	Fetch:       (*btp.Client).ListEmployees,
	Search: func(e btp.Employee) []string {
		return []string{e.Prenom, e.Nom, e.Email}
	},
	Enums: []Enum[btp.Employee]{
		{Name: "type", Label: "Type", Value: func(e btp.Employee) string { return e.UserType }},
		{Name: "team", Label: "Équipe", Value: func(e btp.Employee) string { return e.Equipe }},
	},
	Row: func(e btp.Employee) []string {
		name := e.FullName
		if name == "" {
			name = strings.TrimSpace(e.Prenom + " " + e.Nom)
		}
		return []string{
			orMissing(name),
			orMissing(e.Email),
			orMissing(e.NumeroTelephone),
			orMissing(e.UserType),
			orMissing(e.Equipe),
			format.CurrencyPtr(e.CoutH),
			orMissing(strings.Join(e.Competences, ", ")),
			"#" + strconv.Itoa(e.ID),
		}
	},
}

var Teams = Spec[btp.Team]{
	Feature:     btp.Teams,
	Title:       "Équipes",
	Columns:     []string{"Équipe", "Couleur", "Chef d'équipe", "Membres"},
	Placeholder: "Aucune équipe",
	Fetch:       (*btp.Client).ListTeams,
	Search: func(t btp.Team) []string {
		return []string{t.Name, t.ChefEquipe}
	},
	Row: func(t btp.Team) []string {
		return []string{
			orMissing(t.Name),
			orMissing(t.Color),
			orMissing(t.ChefEquipe),
			strconv.Itoa(t.MemberCount),
		}
	},
}

var Commandes = Spec[btp.Commande]{
	Feature:     btp.Fleet,
	Title:       "Flotte",
	Columns:     []string{"Référence", "Chantier", "Fournisseur", "Montant HT", "Statut", "Date", "ID"},
	Placeholder: "Aucune commande trouvée",
	Fetch:       (*btp.Client).ListCommandes,
	Search: func(c btp.Commande) []string {
		return []string{c.Reference, c.ChantierName, c.Fournisseur}
	},
	Enums: []Enum[btp.Commande]{
		{Name: "status", Label: "Statut", Value: func(c btp.Commande) string { return c.Statut }},
	},
	Row: func(c btp.Commande) []string {
		return []string{
			orMissing(c.Reference),
			orMissing(c.ChantierName),
			orMissing(c.Fournisseur),
			format.Currency(c.MontantHT),
			orMissing(c.Statut),
			format.DateShort(c.CreatedAt.Time),
			"#" + strconv.Itoa(c.ID),
		}
	},
}

var Pistes = Spec[btp.Piste]{
	Feature:     btp.Pistes,
	Title:       "Pistes",
	Columns:     []string{"Client", "Statut", "Source", "Montant estimé", "Probabilité", "Relance", "ID"},
	Placeholder: "Aucune piste trouvée",
	Fetch:       (*btp.Client).ListPistes,
	Search: func(p btp.Piste) []string {
		return []string{p.Client, p.Source, p.Notes}
	},
	Enums: []Enum[btp.Piste]{
		{Name: "status", Label: "Statut", Value: func(p btp.Piste) string { return p.Statut }},
	},
	RangeLabel: "Probabilité",
	RangeValue: func(p btp.Piste) int { return p.Probabilite },
	Row: func(p btp.Piste) []string {
		return []string{
			orMissing(p.Client),
			orMissing(p.Statut),
			orMissing(p.Source),
			format.Currency(p.MontantEstime),
			format.Percentage(p.Probabilite),
			format.DateShort(p.DateRelance.Time),
			"#" + strconv.Itoa(p.ID),
		}
	},
}
