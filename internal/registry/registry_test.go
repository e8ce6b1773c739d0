package registry

import (
	"io"
	"strings"
	"testing"

	"fuelcell_parser/internal/dcl"
)

type stubParser struct{}

func (stubParser) ParseFile() error         { return nil }
func (stubParser) Records() []*dcl.Particle { return nil }

func stubBuilder(r io.Reader, warn dcl.WarningFunc) (Parser, error) {
	return stubParser{}, nil
}

func TestRegisterAndLookup(t *testing.T) {
	reg := New()
	reg.Register("test_dataset", stubBuilder)

	if _, ok := reg.Lookup("test_dataset"); !ok {
		t.Error("registered dataset not found")
	}
	if _, ok := reg.Lookup("missing"); ok {
		t.Error("unregistered dataset found")
	}
}

func TestDuplicateRegisterPanics(t *testing.T) {
	reg := New()
	reg.Register("dup", stubBuilder)

	defer func() {
		if recover() == nil {
			t.Error("duplicate registration did not panic")
		}
	}()
	reg.Register("dup", stubBuilder)
}

func TestBuildUnknownDataset(t *testing.T) {
	reg := New()
	_, err := reg.Build("nope", strings.NewReader(""), nil)
	if err == nil {
		t.Fatal("expected error for unknown dataset")
	}
	if !strings.Contains(err.Error(), "nope") {
		t.Errorf("error does not name the dataset: %v", err)
	}
}

func TestDatasetsSorted(t *testing.T) {
	reg := New()
	reg.Register("zebra", stubBuilder)
	reg.Register("alpha", stubBuilder)
	reg.Register("mid", stubBuilder)

	got := reg.Datasets()
	want := []string{"alpha", "mid", "zebra"}
	if len(got) != len(want) {
		t.Fatalf("Datasets() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Datasets()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
