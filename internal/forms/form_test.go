package forms

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/mybtp/internal/btp"
	"github.com/christopherklint97/mybtp/internal/planning"
)

func setAll(t *testing.T, f Form, values map[string]string) {
	t.Helper()
	for k, v := range values {
		require.NoError(t, f.Set(k, v))
	}
}

func TestForFeature(t *testing.T) {
	for _, feature := range []btp.Feature{btp.Chantiers, btp.Teams, btp.Employees, btp.Planning} {
		f, err := ForFeature(feature)
		require.NoError(t, err)
		assert.Equal(t, feature, f.Feature())
	}

	_, err := ForFeature(btp.Pistes)
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestChantierForm_FirstFailingField(t *testing.T) {
	f := NewChantierForm()
	require.NoError(t, f.Set("cp_ville_chantier", "69003 Lyon"))

	err := f.Validate()
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "adresse_chantier", fe.Field)
	assert.Equal(t, "Adresse : Ce champ est obligatoire.", fe.Error())
}

func TestChantierForm_Values(t *testing.T) {
	f := NewChantierForm()
	setAll(t, f, map[string]string{
		"adresse_chantier":  "3 rue des Lilas",
		"cp_ville_chantier": "69003 Lyon",
		"devis_ht":          "12500,50",
		"telephone_contact": "06 12 34 56 78",
	})
	require.NoError(t, f.Validate())

	v := f.Values()
	assert.Equal(t, "12500.50", v.Get("devis_ht"))
	assert.Equal(t, "Particulier", v.Get("client_final_type"))
	_, hasBrief := v["brief_url"]
	assert.False(t, hasBrief)
}

func TestChantierForm_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value string
	}{
		{name: "negative devis", field: "devis_ht", value: "-3"},
		{name: "bad phone", field: "telephone_contact", value: "12"},
		{name: "bad date", field: "date_debut_chantier", value: "01/03/2024"},
		{name: "bad client type", field: "client_final_type", value: "Association"},
		{name: "bad url", field: "brief_url", value: "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewChantierForm()
			setAll(t, f, map[string]string{
				"adresse_chantier":  "3 rue des Lilas",
				"cp_ville_chantier": "69003 Lyon",
				"devis_ht":          "100",
			})
			require.NoError(t, f.Set(tt.field, tt.value))

			var fe *FieldError
			require.True(t, errors.As(f.Validate(), &fe))
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestTeamForm(t *testing.T) {
	f := NewTeamForm()
	assert.Error(t, f.Validate())

	require.NoError(t, f.Set("name", "Gros œuvre"))
	require.NoError(t, f.Validate())
	assert.Equal(t, "#6366F1", f.Values().Get("color"))

	assert.Error(t, f.Set("unknown", "x"))
}

func TestEmployeeForm(t *testing.T) {
	f := NewEmployeeForm()
	setAll(t, f, map[string]string{
		"prenom":   "Léa",
		"nom":      "Roux",
		"email":    "lea.roux",
		"password": "s3cretpass",
	})

	var fe *FieldError
	require.True(t, errors.As(f.Validate(), &fe))
	assert.Equal(t, "email", fe.Field)

	require.NoError(t, f.Set("email", "lea.roux@example.com"))
	require.NoError(t, f.Validate())
	assert.Equal(t, "Employé", f.Values().Get("user_type"))
}

func TestChefOptions(t *testing.T) {
	f := NewTeamForm()
	f.SetChefs([]btp.Employee{
		{ID: 1, Prenom: "Paul", Nom: "Martin", UserType: "Chef d'équipe"},
		{ID: 2, Prenom: "Léa", Nom: "Roux", UserType: "Employé"},
	})

	for _, field := range f.Fields() {
		if field.Name == "chef_equipe" {
			require.Len(t, field.Options, 1)
			assert.Equal(t, Option{Value: "1", Label: "Paul Martin"}, field.Options[0])
		}
	}
}

func TestSlotForm_PrefillAndPreset(t *testing.T) {
	f := NewSlotForm()
	f.Prefill(btp.NewDate(2024, time.March, 2), 5, 9)
	p, ok := planning.PresetByName("matin")
	require.True(t, ok)
	f.ApplyPreset(p)

	require.NoError(t, f.Validate())
	v := f.Values()
	assert.Equal(t, "2024-03-02", v.Get("date"))
	assert.Equal(t, "08:00", v.Get("start_hour"))
	assert.Equal(t, "12:00", v.Get("end_hour"))
	assert.Equal(t, "5", v.Get("user"))
	assert.Equal(t, "9", v.Get("chantier"))

	hours, err := f.Hours()
	require.NoError(t, err)
	assert.True(t, hours.Equal(decimal.NewFromInt(4)))
}

func TestSlotForm_EndAfterStart(t *testing.T) {
	f := NewSlotForm()
	f.Prefill(btp.NewDate(2024, time.March, 2), 5, 9)
	setAll(t, f, map[string]string{"start_hour": "13:00", "end_hour": "12:45"})

	var fe *FieldError
	require.True(t, errors.As(f.Validate(), &fe))
	assert.Equal(t, "end_hour", fe.Field)
	assert.Equal(t, "L'heure de fin doit être après l'heure de début.", fe.Message)
}

func TestSlotForm_TimeOptionsStepQuarterHours(t *testing.T) {
	for _, field := range NewSlotForm().Fields() {
		if field.Kind != Time {
			continue
		}
		require.Len(t, field.Options, 96)
		assert.Equal(t, "08:15", field.Options[33].Value)
	}
}
