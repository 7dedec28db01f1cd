package parser

import (
	"errors"
	"testing"

	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/config"
	"github.com/Elham-beep/Phase-to-phase-distance-calculation/internal/model"
)

func TestParseFilename_Standard(t *testing.T) {
	t.Parallel()

	spans, err := ParseFilename("/data/in/Cond_10C_TR1730a001_002.xlsx")
	if err != nil {
		t.Fatalf("parse filename: %v", err)
	}
	if spans.Start != "TR1730a001" || spans.End != "TR1730a002" {
		t.Fatalf("unexpected spans: %+v", spans)
	}
}

func TestParseFilename_CaseInsensitive(t *testing.T) {
	t.Parallel()

	spans, err := ParseFilename("cond_10c_TR0001b123_456.XLSX")
	if err != nil {
		t.Fatalf("parse filename: %v", err)
	}
	if spans.Start != "TR0001b123" || spans.End != "TR0001b456" {
		t.Fatalf("unexpected spans: %+v", spans)
	}
}

func TestParseFilename_Malformed(t *testing.T) {
	t.Parallel()

	for _, name := range []string{
		"TR1730a001_002.xlsx",
		"Cond_10C_TR1730a001.xlsx",
		"Cond_10C_TR1730a001_002_processed.xlsx",
		"Cond_10C_TR1730a001_02.xlsx",
	} {
		if _, err := ParseFilename(name); !errors.Is(err, ErrFilenameFormat) {
			t.Fatalf("%s: want ErrFilenameFormat, got %v", name, err)
		}
	}
}

func TestParseSheetName_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"41-42_43-44", "1-2_3-4", "59-39_41-21", "100-200_300-400"} {
		id, err := ParseSheetName(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if id.String() != name {
			t.Fatalf("round trip %s -> %+v -> %s", name, id, id.String())
		}
	}

	id, _ := ParseSheetName("41-42_43-44")
	if id != (model.SheetID{D1: 41, D2: 42, D3: 43, D4: 44}) {
		t.Fatalf("unexpected id: %+v", id)
	}
}

func TestParseSheetName_Rejects(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"Sheet1", "41-42_43", "41-42_43-44x", " 41-42_43-44", "a-42_43-44", "41-21_W650_42-22_W390"} {
		if _, err := ParseSheetName(name); !errors.Is(err, ErrSheetNameFormat) {
			t.Fatalf("%q: want ErrSheetNameFormat, got %v", name, err)
		}
	}
}

func TestParseWindSheetName_AndSwap(t *testing.T) {
	t.Parallel()

	id, err := ParseWindSheetName("59-39_W650_41-21_W390")
	if err != nil {
		t.Fatalf("parse wind: %v", err)
	}
	want := model.WindSheetID{D1: 59, D2: 39, P1: 650, D3: 41, D4: 21, P2: 390}
	if id != want {
		t.Fatalf("got %+v want %+v", id, want)
	}

	swapped := SwapWindSheetName("59-39_W650_41-21_W390")
	if swapped != "41-21_W390_59-39_W650" {
		t.Fatalf("swap: %q", swapped)
	}
	if id.Swap().String() != swapped {
		t.Fatalf("model swap %q != text swap %q", id.Swap().String(), swapped)
	}
	if SwapWindSheetName(swapped) != "59-39_W650_41-21_W390" {
		t.Fatalf("double swap not identity")
	}
	if SwapWindSheetName("Sheet1") != "Sheet1" {
		t.Fatalf("non-matching name must be returned unchanged")
	}
}

func TestIdentifySheet(t *testing.T) {
	t.Parallel()

	cases := map[string]model.SheetKind{
		"41-42_43-44":           model.SheetKindClearance,
		"42-22_W650_41-21_W390": model.SheetKindWind,
		"Summary":               model.SheetKindUnknown,
	}
	for name, want := range cases {
		if got := IdentifySheet(name).Kind; got != want {
			t.Fatalf("%s: kind=%s want=%s", name, got, want)
		}
	}
}

func TestClassifyWindFamily(t *testing.T) {
	t.Parallel()

	ew := []int{59, 39}
	id, _ := ParseWindSheetName("59-39_W650_41-21_W390")
	if got := ClassifyWindFamily(id, ew); got != model.WindFamilyEWPh {
		t.Fatalf("got %s", got)
	}
	id, _ = ParseWindSheetName("41-21_W390_39-59_W650")
	if got := ClassifyWindFamily(id, ew); got != model.WindFamilyEWPh {
		t.Fatalf("swapped: got %s", got)
	}
	id, _ = ParseWindSheetName("42-22_W650_41-21_W390")
	if got := ClassifyWindFamily(id, ew); got != model.WindFamilyPhPh {
		t.Fatalf("ph-ph: got %s", got)
	}
}

func TestBuildWindPlan(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	plan := BuildWindPlan([]string{
		"PLS_TR1730a001_002_Left_EW650-Ph390.xlsx",
		"PLS_TR1730a001_002_Left_Ph650-Ph390_41-44.xlsx",
		"unrelated.xlsx",
	}, cfg.Wind, cfg.Circuits.EarthWire)

	if got, want := len(plan.Entries), 12; got != want {
		t.Fatalf("entries=%d want %d", got, want)
	}

	e, ok := plan.Lookup("59-39_W650_42-22_W390")
	if !ok {
		t.Fatalf("EW-Ph entry missing")
	}
	if e.Family != model.WindFamilyEWPh || e.Spans.Start != "TR1730a001" || e.Spans.End != "TR1730a002" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if _, ok := plan.Lookup("42-22_W390_59-39_W650"); !ok {
		t.Fatalf("swapped lookup failed")
	}

	e, ok = plan.Lookup("43-23_W650_41-44_W390")
	if !ok || e.Family != model.WindFamilyPhPh {
		t.Fatalf("Ph-Ph entry: %+v ok=%v", e, ok)
	}

	if got := len(plan.SheetNames()); got != 24 {
		t.Fatalf("sheet names=%d want 24", got)
	}
}

func TestBuildWindPlan_DeduplicatesSwappedPairs(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig().Wind
	cfg.PhaseSets = []string{"41-21", "42-22"}
	plan := BuildWindPlan([]string{
		"A_Left_Ph650-Ph390_42-22.xlsx",
		"B_Left_Ph390-Ph650_41-21.xlsx",
	}, cfg, nil)

	// B 生成的 42-22_W390_41-21_W650 是 A 中 41-21_W650_42-22_W390 的交换形式
	if len(plan.Entries) != 3 {
		t.Fatalf("entries=%d want 3", len(plan.Entries))
	}
	e, ok := plan.Lookup("42-22_W390_41-21_W650")
	if !ok || e.Sheet != "41-21_W650_42-22_W390" || e.Source != "A_Left_Ph650-Ph390_42-22.xlsx" {
		t.Fatalf("unexpected entry for swapped name: %+v ok=%v", e, ok)
	}
}
