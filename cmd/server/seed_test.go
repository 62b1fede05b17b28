package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promisetracker/internal/app"
	cmodels "promisetracker/internal/classifiers/models"
	jwttoken "promisetracker/internal/jwt_token"
	"promisetracker/internal/storage/memory"
)

func TestLoadSeedDefaults(t *testing.T) {
	data, err := loadSeed("")
	require.NoError(t, err)
	assert.Len(t, data.Parties, 3)
	assert.Len(t, data.Convocations, 2)
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("parties:\n  - name: Solo\n    established: \"2001-01-01\"\n"), 0o600))

	data, err := loadSeed(path)
	require.NoError(t, err)
	require.Len(t, data.Parties, 1)
	assert.Equal(t, "Solo", data.Parties[0].Name)
	assert.Empty(t, data.Convocations)
}

func TestSeedConvocationUnknownParty(t *testing.T) {
	_, err := seedConvocation{Name: "X", Start: "2020-01-01", Parties: []string{"Ghost"}}.input(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ghost")
}

func TestRunSeed(t *testing.T) {
	store := memory.New()
	capture := &codeCapture{codes: map[string]string{}}
	a := app.New(app.MemoryBackend(store), app.Options{
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Dispatcher: capture,
		Tokens:     jwttoken.NewJWTService("seed-test", "promise-tracker", "promise-tracker-api"),
		TokenTTL:   time.Hour,
	})
	defer a.Close()

	data, err := loadSeed("")
	require.NoError(t, err)
	opts := &seedOptions{
		adminEmail:    "admin@example.com",
		adminUsername: "admin",
		adminPassword: "Seeded-Admin-Passphrase-1",
	}
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	ctx := context.Background()

	require.NoError(t, runSeed(ctx, cmd, a, capture, opts, data))
	assert.Contains(t, out.String(), "administrator admin")

	user, err := store.FindUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
	assert.True(t, user.IsVerified)

	parties, err := store.ListParties(ctx, cmodels.PartyFilter{}, time.Now())
	require.NoError(t, err)
	assert.Len(t, parties, 3)
	convocations, err := store.ListConvocations(ctx, cmodels.ConvocationFilter{})
	require.NoError(t, err)
	assert.Len(t, convocations, 2)

	out.Reset()
	require.NoError(t, runSeed(ctx, cmd, a, capture, opts, data))
	assert.Contains(t, out.String(), "skip")
}
