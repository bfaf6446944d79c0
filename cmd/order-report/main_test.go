package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const reportFixtures = `
customers:
  - id: 1
    name: Ada Lovelace
  - id: 2
    name: Alan Turing
orders:
  - id: 1
    customer_id: 1
    placed_months_ago: 1
  - id: 2
    customer_id: 2
    placed_months_ago: 0
order_items:
  - id: 1
    order_id: 1
    product_id: 1
    quantity: 3
    price_minor: 1005
    status: shipped
`

func writeFixtures(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(reportFixtures), 0o600))
	return path
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"-start", "2", "-page-size", "5", "-format", "json"})
	require.NoError(t, err)
	require.Equal(t, 2, opts.start)
	require.Equal(t, 5, opts.pageSize)
	require.Equal(t, "json", opts.format)

	_, err = parseOptions([]string{"-format", "xml"})
	require.Error(t, err)
	_, err = parseOptions([]string{"-timeout", "0s"})
	require.Error(t, err)
}

func TestRun_Table(t *testing.T) {
	opts, err := parseOptions([]string{"-fixtures", writeFixtures(t)})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), opts, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "CUSTOMER")
	require.Contains(t, lines[1], "Ada Lovelace")
	require.Contains(t, lines[1], "30.15")
	require.Contains(t, lines[1], "Shipped")
	require.Contains(t, lines[2], "Alan Turing")
	require.Contains(t, lines[2], "0.00")
}

func TestRun_JSONPage(t *testing.T) {
	opts, err := parseOptions([]string{"-fixtures", writeFixtures(t), "-start", "1", "-format", "json"})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), opts, &out))

	var infos []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &infos))
	require.Len(t, infos, 1)
	require.Equal(t, "Alan Turing", infos[0]["CustomerName"])
}

func TestRun_MissingFixtures(t *testing.T) {
	opts, err := parseOptions([]string{"-fixtures", filepath.Join(t.TempDir(), "nope.yaml")})
	require.NoError(t, err)
	require.Error(t, run(context.Background(), opts, &bytes.Buffer{}))
}

func TestFormatMinor(t *testing.T) {
	require.Equal(t, "0.00", formatMinor(0))
	require.Equal(t, "0.05", formatMinor(5))
	require.Equal(t, "1298.00", formatMinor(129800))
	require.Equal(t, "-3.10", formatMinor(-310))
}
