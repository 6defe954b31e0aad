package ui

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"procsync/internal/etl"
	"procsync/internal/warehouse"
)

// RenderReconciliationReport displays the reconciliation checks as a table
func RenderReconciliationReport(report *etl.Report) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Check", "Expected", "Actual", "Variance", "Result"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, c := range report.Checks {
		result := "PASS"
		if supportsColor {
			result = color.GreenString("PASS")
		}
		if !c.Passed {
			result = "FAIL"
			if supportsColor {
				result = color.RedString("FAIL")
			}
		}
		table.Append([]string{
			c.Name,
			formatAmount(c.Expected),
			formatAmount(c.Actual),
			formatAmount(c.Variance),
			result,
		})
	}

	table.Render()

	if report.Status == etl.ReconciliationPass {
		ShowSuccess("Reconciliation PASS")
	} else {
		ShowWarning(fmt.Sprintf("Reconciliation FAIL (%d check(s) out of tolerance)",
			len(report.Failed())))
	}
}

// RenderRunHistory displays recent run records as a table
func RenderRunHistory(records []warehouse.RunRecord) {
	if len(records) == 0 {
		ShowInfo("No runs recorded yet")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Run", "Mode", "Status", "Started", "Duration",
		"Vendors", "Commodities", "Facts", "Skipped", "Reconciliation"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, rec := range records {
		duration := ""
		if rec.EndTime.Valid {
			duration = FormatDuration(rec.EndTime.Time.Sub(rec.StartTime))
		}

		status := rec.Status
		if supportsColor {
			switch rec.Status {
			case "COMPLETED":
				status = color.GreenString(rec.Status)
			case "FAILED":
				status = color.RedString(rec.Status)
			}
		}

		table.Append([]string{
			shortRunID(rec.RunID),
			rec.Mode,
			status,
			rec.StartTime.Format(time.DateTime),
			duration,
			strconv.Itoa(rec.VendorsProcessed),
			strconv.Itoa(rec.CommoditiesProcessed),
			strconv.Itoa(rec.FactsLoaded),
			strconv.Itoa(rec.RowsSkipped),
			rec.ReconciliationStatus,
		})
	}

	table.Render()
}

// RenderRunSummary displays the outcome of a single run
func RenderRunSummary(result *etl.RunResult) {
	PrintKeyValue("Run ID", result.Record.RunID)
	PrintKeyValue("Mode", result.Record.Mode)
	PrintKeyValue("Status", result.Record.Status)
	PrintKeyValue("Vendors processed", strconv.Itoa(result.Record.VendorsProcessed))
	PrintKeyValue("Commodities processed", strconv.Itoa(result.Record.CommoditiesProcessed))
	PrintKeyValue("Facts loaded", strconv.Itoa(result.Record.FactsLoaded))
	PrintKeyValue("Rows skipped", strconv.Itoa(result.Record.RowsSkipped))
	if result.Record.ErrorSummary != "" {
		PrintKeyValue("Notes", result.Record.ErrorSummary)
	}
}

func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return fmt.Sprintf("%.2f", v)
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
