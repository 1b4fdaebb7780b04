package server

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Posts"

var xlsxHeader = []any{
	"Post URL", "Author Name", "Author URL", "Text Content",
	"Reactions", "Comments", "Created At", "Group ID", "Content Type",
	"Image URLs", "Video URLs",
}

// число, если счетчик отслеживается, иначе пустая ячейка
func cellCount(v *int64) any {
	if v == nil {
		return ""
	}
	return *v
}

func encodeXLSX(rows []exportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &xlsxHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []any{
			r.PostURL, r.AuthorName, r.AuthorURL, r.TextContent,
			cellCount(r.Reactions), cellCount(r.Comments), r.CreatedAt, r.GroupID, r.ContentType,
			strings.Join(r.ImageURLs, ", "), strings.Join(r.VideoURLs, ", "),
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("close xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
