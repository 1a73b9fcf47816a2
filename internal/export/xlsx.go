// Package export writes stored parks to spreadsheet files.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/parkatlas/parkatlas/internal/fields"
	"github.com/parkatlas/parkatlas/internal/model"
)

// WriteXLSX writes parks to an XLSX workbook at path. Each park is one row;
// every field key gets a value column plus its evidence text and URL columns.
func WriteXLSX(parks []model.Park, path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("parks")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range []string{"id", "name", "country", "wikiUrl", "wikiInputTokens", "wikiOutputTokens", "wikiUrlTokens", "wikiDurationSec"} {
		header.AddCell().SetString(col)
	}
	for _, spec := range fields.Specs() {
		header.AddCell().SetString(spec.Key)
		header.AddCell().SetString(fields.SourceTextKey(spec.Key))
		header.AddCell().SetString(fields.SourceURLKey(spec.Key))
	}

	for _, park := range parks {
		row := sheet.AddRow()
		row.AddCell().SetString(park.ID)
		row.AddCell().SetString(park.Name)
		row.AddCell().SetString(park.Country)
		row.AddCell().SetString(park.WikiURL)
		addTokenCell(row, park.WikiInputTokens)
		addTokenCell(row, park.WikiOutputTokens)
		addTokenCell(row, park.WikiURLTokens)
		row.AddCell().SetFloat(park.WikiDurationSec)

		for _, spec := range fields.Specs() {
			addValueCell(row, park.Fields.Value(spec.Key))
			row.AddCell().SetString(park.Fields.SourceText(spec.Key))
			row.AddCell().SetString(park.Fields.SourceURL(spec.Key))
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "xlsx: save file")
	}
	return nil
}

func addTokenCell(row *xlsx.Row, v *int64) {
	cell := row.AddCell()
	if v == nil {
		cell.SetString("")
		return
	}
	cell.SetInt64(*v)
}

func addValueCell(row *xlsx.Row, v any) {
	cell := row.AddCell()
	switch val := v.(type) {
	case nil:
		cell.SetString("")
	case string:
		cell.SetString(val)
	case float64:
		cell.SetFloat(val)
	case int64:
		cell.SetInt64(val)
	case int:
		cell.SetInt(val)
	default:
		cell.SetValue(val)
	}
}
