package listing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/mybtp/internal/btp"
)

func intPtr(v int) *int { return &v }

func sampleChantiers() []btp.Chantier {
	return []btp.Chantier{
		{ID: 1, NameChantier: "CH-2024-0001", AdresseChantier: "3 rue des Lilas", CPVilleChantier: "69003 Lyon",
			ChefChantier: "Paul Martin", AvancementChantier: 40, AvancementStatut: []string{"En cours"}},
		{ID: 2, NameChantier: "CH-2024-0002", AdresseChantier: "12 avenue Foch", CPVilleChantier: "75016 Paris",
			ChefChantier: "Inès Faure", AvancementChantier: 100, AvancementStatut: []string{"Terminé"}},
		{ID: 3, NameChantier: "CH-2024-0003", AdresseChantier: "1 place Bellecour", CPVilleChantier: "69002 Lyon",
			ChefChantier: "Paul Martin", AvancementChantier: 0},
	}
}

func TestPage_LoadErrorShowsPlaceholder(t *testing.T) {
	tests := []struct {
		name   string
		result LoadResult[btp.Chantier]
	}{
		{name: "failed fetch", result: Err[btp.Chantier](errors.New("connection refused"))},
		{name: "unsuccessful envelope", result: Err[btp.Chantier](btp.ErrUnsuccessful)},
		{name: "empty list", result: Ok[btp.Chantier](nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage(Chantiers)
			p.Load(Ok(sampleChantiers()))
			p.Load(tt.result)

			table := p.Table()
			assert.True(t, table.Empty())
			assert.Equal(t, "Aucun chantier trouvé", table.Placeholder)
			assert.Equal(t, 5, table.Span())
			assert.Empty(t, p.All())
		})
	}
}

func TestPage_PlaceholderSpans(t *testing.T) {
	assert.Equal(t, 5, NewPage(Chantiers).Table().Span())
	assert.Equal(t, 8, NewPage(Employees).Table().Span())
	assert.Equal(t, 4, NewPage(Teams).Table().Span())
	assert.Equal(t, 7, NewPage(Commandes).Table().Span())
	assert.Equal(t, 7, NewPage(Pistes).Table().Span())

	assert.Equal(t, "Aucune équipe", NewPage(Teams).Table().Placeholder)
	assert.Equal(t, "Aucune commande trouvée", NewPage(Commandes).Table().Placeholder)
}

func TestPage_FilterExcludingEverything(t *testing.T) {
	p := NewPage(Chantiers)
	p.Load(Ok(sampleChantiers()))
	p.Apply(Filter{Query: "marseille"})

	table := p.Table()
	assert.True(t, table.Empty())
	assert.Equal(t, "Aucun chantier trouvé", table.Placeholder)
	require.NoError(t, p.Err())
}

func TestSpec_ApplyIsIdempotent(t *testing.T) {
	all := sampleChantiers()
	f := Filter{Query: "LYON", Enums: map[string]string{"manager": "Paul Martin"}}

	once := Chantiers.Apply(all, f)
	twice := Chantiers.Apply(once, f)
	assert.Equal(t, once, twice)
	require.Len(t, once, 2)
	assert.Equal(t, 1, once[0].ID)
	assert.Equal(t, 3, once[1].ID)
}

func TestSpec_EnumAndRange(t *testing.T) {
	all := sampleChantiers()

	got := Chantiers.Apply(all, Filter{Enums: map[string]string{"status": "NON DÉFINI"}})
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].ID)

	got = Chantiers.Apply(all, Filter{Range: Range{Min: intPtr(1), Max: intPtr(99)}})
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)
}

func TestPage_LoadReappliesFilter(t *testing.T) {
	p := NewPage(Pistes)
	p.Apply(Filter{Query: "vauban"})
	p.Load(Ok([]btp.Piste{
		{ID: 1, Client: "SCI Vauban", Statut: "Devis"},
		{ID: 2, Client: "Mairie de Bron", Statut: "Nouveau", Notes: "rappeler lundi"},
	}))

	require.Len(t, p.Filtered(), 1)
	assert.Equal(t, "SCI Vauban", p.Filtered()[0].Client)

	table := p.Table()
	require.Len(t, table.Rows, 1)
	assert.Len(t, table.Rows[0], table.Span())
}

func TestPage_EnumValues(t *testing.T) {
	p := NewPage(Chantiers)
	p.Load(Ok(sampleChantiers()))

	assert.Equal(t, []string{"Inès Faure", "Paul Martin"}, p.EnumValues("manager"))
	assert.Equal(t, []string{"En cours", "NON DÉFINI", "Terminé"}, p.EnumValues("status"))
	assert.Nil(t, p.EnumValues("unknown"))
}

func TestSummarize(t *testing.T) {
	slots := []btp.Slot{
		{Hours: decimal.NewFromInt(4), Cost: decimal.NewFromInt(120)},
		{Hours: decimal.RequireFromString("3.5"), Cost: decimal.NewFromInt(105)},
	}
	chantiers := sampleChantiers()
	chantiers[0].DevisHT = decimal.NewFromInt(1000)
	chantiers[1].DevisHT = decimal.NewFromInt(500)
	pistes := []btp.Piste{
		{Statut: "Qualifié", MontantEstime: decimal.NewFromInt(10)},
		{Statut: "Devis"},
		{Statut: "Gagné", MontantEstime: decimal.NewFromInt(5)},
		{Statut: "Perdu"},
	}

	s := Summarize(slots, chantiers, pistes)
	assert.True(t, s.WeekHours.Equal(decimal.RequireFromString("7.5")))
	assert.True(t, s.WeekCost.Equal(decimal.NewFromInt(225)))
	assert.Equal(t, 3, s.ChantiersTotal)
	assert.Equal(t, 2, s.ChantiersActive)
	assert.True(t, s.DevisTotal.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, 4, s.PistesTotal)
	assert.Equal(t, 2, s.PistesQualified)
	assert.Equal(t, 1, s.PistesWon)
	assert.True(t, s.EstimatedTotal.Equal(decimal.NewFromInt(15)))
}
