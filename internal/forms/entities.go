package forms

import (
	"strconv"

	"github.com/christopherklint97/mybtp/internal/btp"
)

const chefType = "Chef d'équipe"

type chantierInput struct {
	AdresseChantier  string `form:"adresse_chantier" validate:"required"`
	CPVilleChantier  string `form:"cp_ville_chantier" validate:"required,max=16"`
	VilleChantier    string `form:"ville_chantier" validate:"max=100"`
	ClientFinalType  string `form:"client_final_type" validate:"required,clienttype"`
	Contact          string `form:"contact"`
	DateRdvTechnique string `form:"date_rdv_technique" validate:"omitempty,isodate"`
	DateDebut        string `form:"date_debut_chantier" validate:"omitempty,isodate"`
	DevisHT          string `form:"devis_ht" validate:"required,amount"`
	TelephoneContact string `form:"telephone_contact" validate:"omitempty,frphone"`
	ChefChantier     string `form:"chef_chantier" validate:"omitempty,number"`
	BriefURL         string `form:"brief_url" validate:"omitempty,url"`
}

type ChantierForm struct {
	base
	input chantierInput
}

func NewChantierForm() *ChantierForm {
	f := &ChantierForm{input: chantierInput{ClientFinalType: "Particulier"}}
	f.base = base{
		title:   "Ajouter un Chantier",
		feature: btp.Chantiers,
		values:  bind(&f.input),
		fields: []Field{
			{Name: "adresse_chantier", Label: "Adresse", Kind: TextArea, Required: true, Placeholder: "Adresse complète du chantier"},
			{Name: "cp_ville_chantier", Label: "Code Postal et Ville", Kind: Text, Required: true, Placeholder: "Code postal et ville"},
			{Name: "ville_chantier", Label: "Ville", Kind: Text, Placeholder: "Ville"},
			{Name: "client_final_type", Label: "Type de Client", Kind: Select, Required: true, Options: optionsOf(ClientTypes...)},
			{Name: "contact", Label: "Contact", Kind: TextArea, Placeholder: "Si besoin pendant le chantier..."},
			{Name: "date_rdv_technique", Label: "RDV technique", Kind: Date, Placeholder: "AAAA-MM-JJ"},
			{Name: "date_debut_chantier", Label: "Date de début", Kind: Date, Placeholder: "AAAA-MM-JJ"},
			{Name: "devis_ht", Label: "Devis HT (€)", Kind: Number, Required: true, Placeholder: "0.00"},
			{Name: "telephone_contact", Label: "Téléphone", Kind: Text, Placeholder: "+33 6 12 34 56 78"},
			{Name: "chef_chantier", Label: "Chef de chantier", Kind: Select},
			{Name: "brief_url", Label: "Brief", Kind: Text, Placeholder: "https://..."},
		},
	}
	return f
}

func (f *ChantierForm) Validate() error {
	return check(&f.input, f.fields)
}

// SetChefs offers the team leads among employees as chef choices.
func (f *ChantierForm) SetChefs(employees []btp.Employee) {
	f.SetOptions("chef_chantier", chefOptions(employees))
}

type teamInput struct {
	Name       string `form:"name" validate:"required,max=100"`
	Color      string `form:"color" validate:"required,hexcolor"`
	ChefEquipe string `form:"chef_equipe" validate:"omitempty,number"`
}

type TeamForm struct {
	base
	input teamInput
}

func NewTeamForm() *TeamForm {
	f := &TeamForm{input: teamInput{Color: "#6366F1"}}
	f.base = base{
		title:   "Ajouter une Équipe",
		feature: btp.Teams,
		values:  bind(&f.input),
		fields: []Field{
			{Name: "name", Label: "Nom de l'équipe", Kind: Text, Required: true, Placeholder: "Nom de l'équipe"},
			{Name: "color", Label: "Couleur", Kind: Color, Required: true},
			{Name: "chef_equipe", Label: "Chef d'équipe", Kind: Select},
		},
	}
	return f
}

func (f *TeamForm) Validate() error {
	return check(&f.input, f.fields)
}

func (f *TeamForm) SetChefs(employees []btp.Employee) {
	f.SetOptions("chef_equipe", chefOptions(employees))
}

type employeeInput struct {
	Prenom          string `form:"prenom" validate:"required,max=100"`
	Nom             string `form:"nom" validate:"required,max=100"`
	Email           string `form:"email" validate:"required,email"`
	NumeroTelephone string `form:"numero_telephone" validate:"omitempty,frphone"`
	UserType        string `form:"user_type" validate:"required,usertype"`
	CoutH           string `form:"cout_h" validate:"omitempty,amount"`
	CoutJ           string `form:"cout_j" validate:"omitempty,amount"`
	Equipe          string `form:"equipe" validate:"omitempty,number"`
	Password        string `form:"password" validate:"required,min=8"`
}

type EmployeeForm struct {
	base
	input employeeInput
}

func NewEmployeeForm() *EmployeeForm {
	f := &EmployeeForm{input: employeeInput{UserType: "Employé"}}
	f.base = base{
		title:   "Ajouter un Employé",
		feature: btp.Employees,
		values:  bind(&f.input),
		fields: []Field{
			{Name: "prenom", Label: "Prénom", Kind: Text, Required: true, Placeholder: "Prénom"},
			{Name: "nom", Label: "Nom", Kind: Text, Required: true, Placeholder: "Nom"},
			{Name: "email", Label: "Email", Kind: Email, Required: true, Placeholder: "email@example.com"},
			{Name: "numero_telephone", Label: "Téléphone", Kind: Text, Placeholder: "+33 6 12 34 56 78"},
			{Name: "user_type", Label: "Type", Kind: Select, Required: true, Options: optionsOf(UserTypes...)},
			{Name: "cout_h", Label: "Coût Horaire (€)", Kind: Number, Placeholder: "0.00"},
			{Name: "cout_j", Label: "Coût Journalier (€)", Kind: Number, Placeholder: "0.00"},
			{Name: "equipe", Label: "Équipe", Kind: Select},
			{Name: "password", Label: "Mot de passe", Kind: Password, Required: true, Placeholder: "Mot de passe"},
		},
	}
	return f
}

func (f *EmployeeForm) Validate() error {
	return check(&f.input, f.fields)
}

func (f *EmployeeForm) SetTeams(teams []btp.Team) {
	opts := make([]Option, 0, len(teams))
	for _, t := range teams {
		opts = append(opts, Option{Value: strconv.Itoa(t.ID), Label: t.Name})
	}
	f.SetOptions("equipe", opts)
}

func chefOptions(employees []btp.Employee) []Option {
	var opts []Option
	for _, e := range employees {
		if e.UserType != chefType {
			continue
		}
		label := e.FullName
		if label == "" {
			label = e.Prenom + " " + e.Nom
		}
		opts = append(opts, Option{Value: strconv.Itoa(e.ID), Label: label})
	}
	return opts
}
