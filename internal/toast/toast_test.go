package toast

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_ReplaceAndExpire(t *testing.T) {
	now := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	n := NewNotifier(3*time.Second, false, nil)
	n.now = func() time.Time { return now }

	n.Info("Chargement...")
	n.Success("Créneau créé avec succès")

	cur := n.Current()
	require.NotNil(t, cur)
	assert.Equal(t, Success, cur.Kind)
	assert.Equal(t, "Créneau créé avec succès", cur.Message)

	now = now.Add(3 * time.Second)
	assert.Nil(t, n.Current())
}

func TestNotifier_Desktop(t *testing.T) {
	var sent []string
	n := NewNotifier(time.Second, false, nil).WithDesktop(func(title, message string) error {
		sent = append(sent, message)
		return errors.New("no dbus")
	})

	n.Info("ignored")
	n.Error("Erreur lors de la création du créneau")

	assert.Equal(t, []string{"Erreur lors de la création du créneau"}, sent)
	assert.NotNil(t, n.Current())
}
