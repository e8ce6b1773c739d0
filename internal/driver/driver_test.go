package driver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fuelcell_parser/internal/dcl"
	_ "fuelcell_parser/internal/parsers"
)

const (
	goodLine = "2015/03/10 14:22:05.500 DAT 4112,33557475,4308795,31356,13465,4260,10819,589,162678,46,21,100,15778,4,906397,-147897,661,-142057,660,85540,643,569,479,67108864,101728580,8472576,2097216:8002 6d47"
	markLine = "2015/03/10 14:22:05.100 DAT No_FC_Data 0000"
)

func TestProcess(t *testing.T) {
	drv := New(dcl.TypeRecovered.String())
	res, err := drv.Process(strings.NewReader(markLine + "\n" + goodLine + "\n"))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Dataset != dcl.TypeRecovered.String() {
		t.Errorf("Dataset = %q", res.Dataset)
	}
	if len(res.Particles) != 1 {
		t.Errorf("particles = %d, want 1", len(res.Particles))
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Line != 1 {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "20150310.fuelcell1.log")
	if err := os.WriteFile(path, []byte(goodLine+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := New(dcl.TypeTelemetered.String()).ProcessFile(path)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if len(res.Particles) != 1 {
		t.Fatalf("particles = %d, want 1", len(res.Particles))
	}
	if res.Particles[0].Type() != dcl.TypeTelemetered {
		t.Errorf("Type = %q", res.Particles[0].Type())
	}
}

func TestProcessFileMissing(t *testing.T) {
	_, err := New(dcl.TypeRecovered.String()).ProcessFile(filepath.Join(t.TempDir(), "nope.log"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestProcessUnknownDataset(t *testing.T) {
	_, err := New("not_a_dataset").Process(strings.NewReader(goodLine))
	if err == nil {
		t.Fatal("expected error for unknown dataset")
	}
}
