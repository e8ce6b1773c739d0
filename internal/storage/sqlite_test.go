package storage

import (
	"path/filepath"
	"testing"

	"fuelcell_parser/internal/dcl"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "particles.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testParticle(typ dcl.ParticleType, ntp float64) *dcl.Particle {
	var values [dcl.NumFields]int64
	for i := range values {
		values[i] = int64(i * 10)
	}
	return dcl.NewParticle(typ, ntp, "2015/03/10 14:22:05.500", values)
}

func TestInsertAndQuery(t *testing.T) {
	db := openTestDB(t)

	p := testParticle(dcl.TypeRecovered, 3634986125.5)
	id, err := db.InsertParticle(p, "a.log")
	if err != nil {
		t.Fatalf("InsertParticle: %v", err)
	}
	if id == 0 {
		t.Error("expected nonzero row id")
	}

	got, err := db.Query(QueryParams{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("rows = %d, want 1", len(got))
	}
	sp := got[0]
	if sp.ParticleType != dcl.TypeRecovered.String() {
		t.Errorf("ParticleType = %q", sp.ParticleType)
	}
	if sp.NTPTimestamp != 3634986125.5 {
		t.Errorf("NTPTimestamp = %v", sp.NTPTimestamp)
	}
	if sp.SourceFile != "a.log" {
		t.Errorf("SourceFile = %q", sp.SourceFile)
	}
	if sp.ParticleJSON == "" {
		t.Error("ParticleJSON empty")
	}
}

func TestInsertParticlesBatchOrder(t *testing.T) {
	db := openTestDB(t)

	particles := []*dcl.Particle{
		testParticle(dcl.TypeRecovered, 3634986125.5),
		testParticle(dcl.TypeRecovered, 3634986126.5),
		testParticle(dcl.TypeRecovered, 3634986127.5),
	}
	if err := db.InsertParticles(particles, "a.log"); err != nil {
		t.Fatalf("InsertParticles: %v", err)
	}

	got, err := db.Query(QueryParams{SourceFile: "a.log"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("rows = %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].NTPTimestamp <= got[i-1].NTPTimestamp {
			t.Errorf("rows out of order at %d", i)
		}
	}
}

func TestQueryFilters(t *testing.T) {
	db := openTestDB(t)

	if err := db.InsertParticles([]*dcl.Particle{
		testParticle(dcl.TypeRecovered, 100),
		testParticle(dcl.TypeTelemetered, 200),
		testParticle(dcl.TypeTelemetered, 300),
	}, "a.log"); err != nil {
		t.Fatalf("InsertParticles: %v", err)
	}

	got, err := db.Query(QueryParams{ParticleType: dcl.TypeTelemetered.String()})
	if err != nil {
		t.Fatalf("Query by type: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("by type rows = %d, want 2", len(got))
	}

	got, err = db.Query(QueryParams{SinceNTP: 150, UntilNTP: 250})
	if err != nil {
		t.Fatalf("Query by range: %v", err)
	}
	if len(got) != 1 || got[0].NTPTimestamp != 200 {
		t.Errorf("by range rows = %v", got)
	}

	got, err = db.Query(QueryParams{Limit: 1, OrderDesc: true})
	if err != nil {
		t.Fatalf("Query desc: %v", err)
	}
	if len(got) != 1 || got[0].NTPTimestamp != 300 {
		t.Errorf("desc first row = %v", got)
	}
}

func TestWarningsAndStats(t *testing.T) {
	db := openTestDB(t)

	if err := db.InsertWarnings([]dcl.Warning{
		{Line: 2, Reason: dcl.ReasonNoData},
		{Line: 7, Reason: dcl.ReasonBadChecksum},
	}, "a.log"); err != nil {
		t.Fatalf("InsertWarnings: %v", err)
	}
	if err := db.InsertParticles([]*dcl.Particle{
		testParticle(dcl.TypeRecovered, 100),
		testParticle(dcl.TypeTelemetered, 200),
	}, "a.log"); err != nil {
		t.Fatalf("InsertParticles: %v", err)
	}

	warnings, err := db.QueryWarnings("a.log", 0)
	if err != nil {
		t.Fatalf("QueryWarnings: %v", err)
	}
	if len(warnings) != 2 {
		t.Fatalf("warnings = %d, want 2", len(warnings))
	}
	if warnings[1].Message != "Bad checksum line 7 - No particle generated" {
		t.Errorf("message = %q", warnings[1].Message)
	}

	stats, err := db.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Particles != 2 || stats.Warnings != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ByType[dcl.TypeRecovered.String()] != 1 {
		t.Errorf("by type = %v", stats.ByType)
	}
}
