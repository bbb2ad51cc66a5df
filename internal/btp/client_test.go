package btp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts.BaseURL = srv.URL
	c, err := NewClient(opts)
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Options{})
	assert.Error(t, err)
}

func TestListChantiers_FeatureKey(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chantiers/list/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"success": true, "chantiers": [
			{"id": 1, "name_chantier": "CH-2024-0001", "adresse_chantier": "3 rue des Lilas",
			 "date_debut_chantier": "2024-03-01", "chef_chantier": "Paul Martin",
			 "avancement_chantier": 40, "devis_ht": 12500.5}
		]}`))
	})
	c := newTestClient(t, mux, Options{})

	items, err := c.ListChantiers(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "CH-2024-0001", items[0].NameChantier)
	assert.Equal(t, "2024-03-01", items[0].DateDebutChantier.String())
	assert.True(t, decimal.RequireFromString("12500.5").Equal(items[0].DevisHT))
	assert.Equal(t, "NON DÉFINI", items[0].StatusBadge())
}

func TestListPistes_ItemsKey(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pistes/list/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "items": [{"id": 3, "client": "SCI Vauban", "statut": "Devis", "probabilite": 60, "date_relance": null}]}`))
	})
	c := newTestClient(t, mux, Options{})

	items, err := c.ListPistes(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "SCI Vauban", items[0].Client)
	assert.True(t, items[0].DateRelance.IsZero())
}

func TestList_Unsuccessful(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fleet/list/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "message": "boom"}`))
	})
	c := newTestClient(t, mux, Options{})

	items, err := c.ListCommandes(context.Background())
	assert.Nil(t, items)
	assert.ErrorIs(t, err, ErrUnsuccessful)
}

func TestList_ServerErrorNotRetriedByDefault(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/team/employees/list/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := newTestClient(t, mux, Options{})

	_, err := c.ListEmployees(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPlanning_SendsWindow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/planning/list/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-03-01", r.URL.Query().Get("date_from"))
		assert.Equal(t, "2024-03-03", r.URL.Query().Get("date_to"))
		w.Write([]byte(`{"success": true,
			"slots": [{"id": 7, "date": "2024-03-02", "user_id": 5, "chantier_id": 9,
			           "start_hour": "08:00", "end_hour": "12:00", "hours": "4.00", "cost": "120.00"}],
			"users": [{"id": 5, "prenom": "Léa", "nom": "Roux"}],
			"chantiers": [{"id": 9, "name_chantier": "CH-2024-0009"}]}`))
	})
	c := newTestClient(t, mux, Options{})

	data, err := c.Planning(context.Background(), NewDate(2024, time.March, 1), NewDate(2024, time.March, 3))
	require.NoError(t, err)
	require.Len(t, data.Slots, 1)
	assert.Equal(t, 5, data.Slots[0].UserID)
	assert.True(t, data.Slots[0].Hours.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, "Léa Roux", data.Users[0].DisplayName())
}

func TestCreate_SendsMultipartWithCSRF(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/team/teams/create/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "tok123", r.Header.Get("X-CSRFToken"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Gros œuvre", r.FormValue("name"))
		w.Write([]byte(`{"success": true, "message": "L'équipe Gros œuvre a été créée avec succès."}`))
	})
	c := newTestClient(t, mux, Options{CSRFToken: "tok123"})

	res, err := c.Create(context.Background(), Teams, url.Values{"name": {"Gros œuvre"}, "color": {"#6366F1"}})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "Gros œuvre")
}

func TestCreate_ValidationErrorFirstField(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chantiers/create/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "Erreur lors de la création du chantier.",
			"errors": map[string]string{
				"devis_ht":         "Saisissez un nombre.",
				"adresse_chantier": "Ce champ est obligatoire.",
			},
		})
	})
	c := newTestClient(t, mux, Options{CSRFToken: "tok"})

	_, err := c.Create(context.Background(), Chantiers, url.Values{})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	field, msg := ve.First()
	assert.Equal(t, "adresse_chantier", field)
	assert.Equal(t, "Ce champ est obligatoire.", msg)
	assert.ErrorIs(t, err, ErrUnsuccessful)
}

func TestCreate_PlanningErrorKey(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/planning/create/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "Tous les champs sont requis"}`))
	})
	c := newTestClient(t, mux, Options{CSRFToken: "tok"})

	_, err := c.Create(context.Background(), Planning, url.Values{})
	require.Error(t, err)
	assert.Equal(t, "Tous les champs sont requis", err.Error())
}

func TestCreate_InvalidatesCachedList(t *testing.T) {
	var listCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/pistes/list/", func(w http.ResponseWriter, r *http.Request) {
		listCalls.Add(1)
		w.Write([]byte(`{"success": true, "pistes": []}`))
	})
	mux.HandleFunc("/pistes/create/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true}`))
	})
	c := newTestClient(t, mux, Options{CSRFToken: "tok", CacheTTL: time.Minute})
	ctx := context.Background()

	_, err := c.ListPistes(ctx)
	require.NoError(t, err)
	_, err = c.ListPistes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), listCalls.Load())

	_, err = c.Create(ctx, Pistes, url.Values{"client": {"x"}})
	require.NoError(t, err)
	_, err = c.ListPistes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), listCalls.Load())
}

func TestCSRFToken_FromMetaTag(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><meta charset="utf-8"><meta name="csrf-token" content="meta-tok"></head></html>`))
	})
	c := newTestClient(t, mux, Options{})

	token, err := c.CSRFToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "meta-tok", token)
}

func TestCSRFToken_FromCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "cookie-tok", Path: "/"})
		w.Write([]byte(`<html></html>`))
	})
	c := newTestClient(t, mux, Options{})

	token, err := c.CSRFToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cookie-tok", token)
}

func TestCSRFToken_Missing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head></head></html>`))
	})
	c := newTestClient(t, mux, Options{})

	_, err := c.CSRFToken(context.Background())
	assert.ErrorIs(t, err, ErrNoCSRFToken)
}

func TestSendChat(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr string
	}{
		{name: "reply", status: 200, body: `{"reply": "Bonjour"}`, want: "Bonjour"},
		{name: "empty reply", status: 200, body: `{}`, want: NoReply},
		{name: "detail", status: 502, body: `{"detail": "Upstream chatbot unavailable."}`, wantErr: "Upstream chatbot unavailable."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/api/chatbot/send/", func(w http.ResponseWriter, r *http.Request) {
				var req chatRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "Salut", req.Message)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			c := newTestClient(t, mux, Options{CSRFToken: "tok"})

			reply, err := c.SendChat(context.Background(), "  Salut ")
			if tt.wantErr != "" {
				var de *DetailError
				require.True(t, errors.As(err, &de))
				assert.Equal(t, tt.wantErr, de.Detail)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, reply)
		})
	}
}

func TestDate_JSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-03-02T10:00:00+01:00"`), &d))
	assert.Equal(t, "2024-03-02", d.String())

	out, err := json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}
