package export

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/a12042020/contract-analyzer/constants"
	"github.com/a12042020/contract-analyzer/internal/cache"
	"github.com/a12042020/contract-analyzer/internal/extract"
)

func putContract(t *testing.T, store cache.Store, key string, cf extract.ContractFields) {
	t.Helper()
	data, err := json.Marshal(cf)
	require.NoError(t, err)
	a := cache.Artifact{DocumentID: cf.DocumentID, Schema: extract.SchemaContractFields, Data: data}
	require.NoError(t, store.Put(context.Background(), constants.NamespaceExtraction, key, a))
}

func TestExportContractsXLSX(t *testing.T) {
	store := cache.NewFSStore(t.TempDir(), nil)
	putContract(t, store, "key-b", extract.ContractFields{
		DocumentID: "msa",
		Title:      "Master Services Agreement",
		Parties: []extract.Party{
			{Name: "Acme Corp", Role: "provider"},
			{Name: "Globex LLC", Role: "customer"},
		},
		EffectiveDate: "2024-01-01",
		GoverningLaw:  "Delaware",
		ContractValue: "250000.00",
		CurrencyCode:  "USD",
		Risks: []extract.Risk{
			{Category: "liability", Description: "uncapped", Severity: "HIGH"},
			{Category: "payment", Description: "net-90", Severity: "LOW"},
		},
		ModelConfidence: 0.91,
	})
	putContract(t, store, "key-a", extract.ContractFields{
		DocumentID: "nda",
		Title:      "Mutual NDA",
		Parties:    []extract.Party{{Name: "Acme Corp"}},
	})

	svc := NewService(store, nil)
	out, err := svc.ExportContractsXLSX(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, out)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Contracts")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Document", rows[0][0])

	// Sorted by document id: msa before nda.
	assert.Equal(t, "msa", rows[1][0])
	assert.Equal(t, "Master Services Agreement", rows[1][1])
	assert.Equal(t, "Acme Corp (provider); Globex LLC (customer)", rows[1][2])
	assert.Equal(t, "liability", rows[1][10])
	assert.Equal(t, "nda", rows[2][0])
}

func TestExportContractsXLSXEmptyStore(t *testing.T) {
	svc := NewService(cache.NewFSStore(t.TempDir(), nil), nil)
	out, err := svc.ExportContractsXLSX(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, out)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Contracts")
	require.NoError(t, err)
	assert.Len(t, rows, 1) // headers only
}
