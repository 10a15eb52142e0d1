package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const rosterSheet = "Participants"

// Exporter renders event rosters as Excel workbooks, either to disk or
// to a byte buffer for HTTP download.
type Exporter struct {
	path   string
	logger *zerolog.Logger
}

func NewExporter(path string, logger *zerolog.Logger) *Exporter {
	return &Exporter{
		path:   path,
		logger: logger,
	}
}

// RosterBytes builds the roster workbook in memory.
func (e *Exporter) RosterBytes(event *models.Event, roster []*models.RosterEntry, stats *models.EventStats) ([]byte, error) {
	f, err := buildRosterWorkbook(event, roster, stats)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error writing workbook: %v", err)
	}
	return buf.Bytes(), nil
}

// RosterFile builds the roster workbook and saves it under the export
// directory. Returns the file path.
func (e *Exporter) RosterFile(event *models.Event, roster []*models.RosterEntry, stats *models.EventStats) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f, err := buildRosterWorkbook(event, roster, stats)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fileName := fmt.Sprintf("roster_event_%d_%s.xlsx", event.ID, time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Int64("event_id", event.ID).Msg("roster exported")
	return filePath, nil
}

func buildRosterWorkbook(event *models.Event, roster []*models.RosterEntry, stats *models.EventStats) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(rosterSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	title := fmt.Sprintf("%s — %s, %s", event.Title, event.City, event.Date.Format("02/01/2006"))
	_ = f.SetCellValue(rosterSheet, "A1", title)
	_ = f.MergeCell(rosterSheet, "A1", "I1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(rosterSheet, "A1", "A1", titleStyle)

	headers := []string{
		"N°", "Nom", "Prénom", "Email",
		"Bus aller", "Bus retour", "Adhérent", "SAM", "Boisson",
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(rosterSheet, cell, header)
		_ = f.SetCellStyle(rosterSheet, cell, cell, headerStyle)
	}

	for i, entry := range roster {
		row := i + 3
		_ = f.SetCellValue(rosterSheet, fmt.Sprintf("A%d", row), entry.ReservationID)
		_ = f.SetCellValue(rosterSheet, fmt.Sprintf("B%d", row), entry.LastName)
		_ = f.SetCellValue(rosterSheet, fmt.Sprintf("C%d", row), entry.FirstName)
		_ = f.SetCellValue(rosterSheet, fmt.Sprintf("D%d", row), entry.Email)
		_ = f.SetCellValue(rosterSheet, fmt.Sprintf("E%d", row), ouiNon(entry.OutboundBus))
		_ = f.SetCellValue(rosterSheet, fmt.Sprintf("F%d", row), ouiNon(entry.ReturnBus))
		_ = f.SetCellValue(rosterSheet, fmt.Sprintf("G%d", row), ouiNon(entry.Member))
		_ = f.SetCellValue(rosterSheet, fmt.Sprintf("H%d", row), ouiNon(entry.DesignatedDriver))
		_ = f.SetCellValue(rosterSheet, fmt.Sprintf("I%d", row), ouiNon(entry.Drink))
	}

	_ = f.SetColWidth(rosterSheet, "A", "A", 8)
	_ = f.SetColWidth(rosterSheet, "B", "C", 18)
	_ = f.SetColWidth(rosterSheet, "D", "D", 30)
	_ = f.SetColWidth(rosterSheet, "E", "I", 12)

	if stats != nil {
		writeStatsBlock(f, stats, len(roster)+4)
	}

	_ = f.DeleteSheet("Sheet1")
	return f, nil
}

func writeStatsBlock(f *excelize.File, stats *models.EventStats, startRow int) {
	labelStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})

	rows := []struct {
		label string
		value interface{}
	}{
		{"Réservations", stats.Reservations},
		{"Bus aller", stats.OutboundBusTaken},
		{"Bus retour", stats.ReturnBusTaken},
		{"Adhérents", stats.Members},
		{"SAM", stats.DesignatedDrivers},
		{"Boissons", stats.Drinks},
	}
	if stats.AvgRating != nil {
		rows = append(rows, struct {
			label string
			value interface{}
		}{"Note moyenne", fmt.Sprintf("%.1f/5 (%d avis)", *stats.AvgRating, stats.CommentCount)})
	}

	for i, r := range rows {
		row := startRow + i
		labelCell := fmt.Sprintf("A%d", row)
		_ = f.SetCellValue(rosterSheet, labelCell, r.label)
		_ = f.SetCellStyle(rosterSheet, labelCell, labelCell, labelStyle)
		_ = f.SetCellValue(rosterSheet, fmt.Sprintf("B%d", row), r.value)
	}
}

func ouiNon(b bool) string {
	if b {
		return "Oui"
	}
	return "Non"
}
