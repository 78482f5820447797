package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestCLIFlow(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"x","nutrition":{"calories":52,"sugar":10.3}}`))
	}))
	t.Cleanup(api.Close)

	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("NUTRITION_BASE_URL", api.URL)

	got, err := run(t, "seed")
	require.NoError(t, err)
	require.Contains(t, got, "seeded")

	got, err = run(t, "fruits")
	require.NoError(t, err)
	require.Contains(t, got, "Apples")
	require.Contains(t, got, "Dragonfruit")

	got, err = run(t, "nutrition", "Apples")
	require.NoError(t, err)
	require.Contains(t, got, "Apples Nutrition Information")
	require.Contains(t, got, "calories")

	got, err = run(t, "order", "--name", "Kevin", "--fruit", "Apples", "--fruit", "Mango")
	require.NoError(t, err)
	require.Contains(t, got, "Your Smoothie is ordered, Kevin!")
	require.Contains(t, got, "Apples, Mango")

	got, err = run(t, "pending")
	require.NoError(t, err)
	require.Contains(t, got, "Kevin")

	orderFruits = nil
	got, err = run(t, "order", "-n", "Divya",
		"-f", "Apples", "-f", "Figs", "-f", "Guava", "-f", "Kiwi", "-f", "Lime", "-f", "Mango")
	require.NoError(t, err)
	require.Contains(t, got, "warning: You picked 6 ingredients; we recommend at most 5.")
	require.Contains(t, got, "Your Smoothie is ordered, Divya!")

	orderName = ""
	orderFruits = nil
	_, err = run(t, "order", "--name", "", "--fruit", "Apples")
	require.Error(t, err)
	require.Contains(t, err.Error(), "name")
}
