package services

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pulsex/care-service/internal/models"
)

const activitySheet = "Activity"

var activityHeaders = []string{"ID", "Timestamp", "User ID", "User", "Action", "Entity Type", "Entity ID", "Details"}

// ActivityExporter renders audit entries as an XLSX workbook
type ActivityExporter struct{}

func NewActivityExporter() *ActivityExporter {
	return &ActivityExporter{}
}

func (e *ActivityExporter) Export(entries []*models.ActivityEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", activitySheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	for i, h := range activityHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(activitySheet, cell, h); err != nil {
			return nil, err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(activityHeaders), 1)
	if err := f.SetCellStyle(activitySheet, "A1", lastHeader, headerStyle); err != nil {
		return nil, err
	}

	for i, entry := range entries {
		row := []interface{}{
			entry.ID,
			entry.Timestamp.UTC().Format(time.RFC3339),
			entry.ActorID,
			entry.ActorName,
			entry.Action,
			entry.EntityType,
			"",
			entry.Details,
		}
		if entry.EntityID != nil {
			row[6] = *entry.EntityID
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(activitySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(activitySheet, "H", "H", 60); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
