// Package export produces XLSX workbooks from cached extraction artifacts.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/a12042020/contract-analyzer/constants"
	"github.com/a12042020/contract-analyzer/internal/cache"
	"github.com/a12042020/contract-analyzer/internal/extract"
)

// Service is a tiny façade over the cache store that produces XLSX bytes for exports.
type Service struct {
	store  cache.Store
	logger *slog.Logger
}

func NewService(store cache.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// ExportContractsXLSX returns an XLSX workbook (as bytes) holding one row per
// cached contract-fields artifact, sorted by document id.
func (s *Service) ExportContractsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	keys, err := s.store.ListKeys(ctx, constants.NamespaceExtraction)
	if err != nil {
		return nil, fmt.Errorf("list extraction keys: %w", err)
	}

	type row struct {
		documentID string
		fields     extract.ContractFields
	}
	var rows []row
	for _, key := range keys {
		a, ok, err := s.store.Get(ctx, constants.NamespaceExtraction, key)
		if err != nil {
			return nil, fmt.Errorf("read artifact %s: %w", key, err)
		}
		if !ok || a.Schema != extract.SchemaContractFields {
			continue
		}
		var cf extract.ContractFields
		if err := json.Unmarshal(a.Data, &cf); err != nil {
			s.logger.Warn("export.decode_error", "key", key, "error", err)
			continue
		}
		rows = append(rows, row{documentID: a.DocumentID, fields: cf})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].documentID < rows[j].documentID })

	f := excelize.NewFile()
	const sheet = "Contracts"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Document",
		"Title",
		"Parties",
		"Effective Date",
		"Expiration Date",
		"Governing Law",
		"Contract Value",
		"Currency",
		"Payment Terms",
		"Liability Cap",
		"High Risks",
		"Confidence",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for n, r := range rows {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, n+2)
			_ = f.SetCellValue(sheet, cell, v)
		}

		parties := make([]string, 0, len(r.fields.Parties))
		for _, p := range r.fields.Parties {
			if p.Role != "" {
				parties = append(parties, fmt.Sprintf("%s (%s)", p.Name, p.Role))
			} else {
				parties = append(parties, p.Name)
			}
		}

		var highRisks []string
		for _, risk := range r.fields.Risks {
			if risk.Severity == "HIGH" {
				highRisks = append(highRisks, risk.Category)
			}
		}

		write(1, r.documentID)
		write(2, r.fields.Title)
		write(3, strings.Join(parties, "; "))
		write(4, r.fields.EffectiveDate)
		write(5, r.fields.ExpirationDate)
		write(6, r.fields.GoverningLaw)
		write(7, r.fields.ContractValue)
		write(8, r.fields.CurrencyCode)
		write(9, truncate(r.fields.PaymentTerms, 140))
		write(10, r.fields.LiabilityCap)
		write(11, strings.Join(highRisks, "; "))
		if r.fields.ModelConfidence > 0 {
			write(12, fmt.Sprintf("%.2f", r.fields.ModelConfidence))
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 24) // document
	_ = f.SetColWidth(sheet, "B", "B", 36) // title
	_ = f.SetColWidth(sheet, "C", "C", 44) // parties
	_ = f.SetColWidth(sheet, "D", "E", 14) // dates
	_ = f.SetColWidth(sheet, "F", "F", 20) // law
	_ = f.SetColWidth(sheet, "G", "H", 14) // value, currency
	_ = f.SetColWidth(sheet, "I", "I", 48) // payment terms
	_ = f.SetColWidth(sheet, "J", "J", 20) // liability cap
	_ = f.SetColWidth(sheet, "K", "K", 32) // risks

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
