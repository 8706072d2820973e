package xlsx

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/place-archive/internal/core/domain"
)

const (
	SheetName   = "Places"
	contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var headers = []string{"이름", "카테고리", "지역", "주소", "위도", "경도", "방문", "저장일", "카카오맵", "네이버지도", "구글맵"}

// Exporter renders a saved-place list into a single-sheet workbook.
type Exporter struct {
	location *time.Location
}

func New(location *time.Location) *Exporter {
	if location == nil {
		location = time.UTC
	}
	return &Exporter{location: location}
}

func (e *Exporter) ContentType() string {
	return contentType
}

func (e *Exporter) WriteLibrary(w io.Writer, places []domain.SavedPlace) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	for i, h := range headers {
		if err := e.setCell(f, i+1, 1, h); err != nil {
			return err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", "D", 24); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	for i, p := range places {
		row := i + 2
		links := p.MapLinks
		if links.Kakao == "" {
			links = domain.MapLinksFor(p.Name)
		}
		values := []any{
			p.Name,
			p.Category.Name,
			p.Location,
			deref(p.Address),
			floatOrBlank(p.Latitude),
			floatOrBlank(p.Longitude),
			visitedLabel(p.Visited),
			p.SavedAt.In(e.location).Format("2006-01-02 15:04"),
			links.Kakao,
			links.Naver,
			links.Google,
		}
		for col, v := range values {
			if err := e.setCell(f, col+1, row, v); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (e *Exporter) setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		return fmt.Errorf("set cell %s: %w", cell, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrBlank(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func visitedLabel(v bool) string {
	if v {
		return "O"
	}
	return "X"
}
