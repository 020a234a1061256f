package overrides_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"sdsscan/internal/overrides"
)

func TestParseCSVHeaderAnyOrderAndBlankRows(t *testing.T) {
	data := []byte("\xEF\xBB\xBFIngredient, Vendor ,FLAVOR\n" +
		"Diacetyl,cap,Sweet Strawberry\n" +
		",,\n" +
		"\n" +
		"Acetoin,TPA,\n" +
		"Cinnamaldehyde,FA,Red Touch\n")
	res, err := overrides.ParseCSV(data)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if res.Legacy {
		t.Fatal("utf-8 input should not be flagged legacy")
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("expected 2 rows, got %+v", res.Warnings)
	}
	first := res.Warnings[0]
	if first.Vendor != "CAP" || first.Flavor != "Sweet Strawberry" || first.Ingredient != "Diacetyl" {
		t.Fatalf("unexpected first row %+v", first)
	}
	if res.Skipped != 1 {
		t.Fatalf("expected one incomplete row skipped, got %d", res.Skipped)
	}
}

func TestParseCSVWindows1252(t *testing.T) {
	data := []byte("vendor,flavor,ingredient\nCAP,Cr\xE8me Br\xFBl\xE9e,Vanillin\n")
	res, err := overrides.ParseCSV(data)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if !res.Legacy {
		t.Fatal("expected legacy decode")
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Flavor != "Crème Brûlée" {
		t.Fatalf("unexpected rows %+v", res.Warnings)
	}
}

func TestParseCSVMissingColumn(t *testing.T) {
	_, err := overrides.ParseCSV([]byte("vendor,flavor\nCAP,Lime\n"))
	if !errors.Is(err, overrides.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestParseCSVEmpty(t *testing.T) {
	res, err := overrides.ParseCSV(nil)
	if err != nil || len(res.Warnings) != 0 {
		t.Fatalf("expected empty result, got %+v, %v", res, err)
	}
}

func TestLoadXLSXFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Flavor", "Ingredient", "Vendor"},
		{"Lemon Tart", "Citral", "mb"},
		{"Sweet Strawberry", "Diacetyl", "CAP"},
	}
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cellName, &row); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.NewSheet("Ignored"); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "overrides.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	_ = f.Close()

	res, err := overrides.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("expected 2 rows, got %+v", res.Warnings)
	}
	if got := res.Warnings[0]; got.Vendor != "MB" || got.Flavor != "Lemon Tart" || got.Ingredient != "Citral" {
		t.Fatalf("unexpected row %+v", got)
	}
	if res.Warnings[1].Line != 3 {
		t.Fatalf("expected line 3, got %d", res.Warnings[1].Line)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := overrides.Load(filepath.Join(t.TempDir(), "nope.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
