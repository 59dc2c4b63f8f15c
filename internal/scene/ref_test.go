package scene

import (
	"errors"
	"testing"
	"time"
)

func TestParseRef(t *testing.T) {
	ref, err := ParseRef("S1A_IW_SLC__1SDV_20220504T141557_20220504T141624_043062_05246D_3C67")
	if err != nil {
		t.Fatalf("ParseRef failed: %v", err)
	}

	if ref.Platform != "S1A" {
		t.Errorf("platform: got %s", ref.Platform)
	}
	if ref.Mode != "IW" {
		t.Errorf("mode: got %s", ref.Mode)
	}
	if ref.ProductType != "SLC" {
		t.Errorf("product type: got %s", ref.ProductType)
	}
	if ref.Polarization != "DV" {
		t.Errorf("polarization: got %s", ref.Polarization)
	}
	if want := time.Date(2022, 5, 4, 14, 15, 57, 0, time.UTC); !ref.Start.Equal(want) {
		t.Errorf("start: got %s, want %s", ref.Start, want)
	}
	if want := time.Date(2022, 5, 4, 14, 16, 24, 0, time.UTC); !ref.Stop.Equal(want) {
		t.Errorf("stop: got %s, want %s", ref.Stop, want)
	}
	if ref.AbsoluteOrbit != 43062 {
		t.Errorf("absolute orbit: got %d", ref.AbsoluteOrbit)
	}
	if ref.DataTakeID != "05246D" {
		t.Errorf("data take: got %s", ref.DataTakeID)
	}
	if ref.UniqueID != "3C67" {
		t.Errorf("unique id: got %s", ref.UniqueID)
	}
	if ref.PlatformLetter() != "A" {
		t.Errorf("platform letter: got %s", ref.PlatformLetter())
	}
}

func TestParseRef_PathNumber(t *testing.T) {
	tests := []struct {
		id   string
		want int
	}{
		// S1A track: ((43062-73) mod 175) + 1
		{"S1A_IW_SLC__1SDV_20220504T141557_20220504T141624_043062_05246D_3C67", 115},
		// S1B track: ((27915-27) mod 175) + 1
		{"S1B_IW_SLC__1SDV_20210723T014947_20210723T015014_027915_0354B4_B3A9", 64},
	}

	for _, tt := range tests {
		ref, err := ParseRef(tt.id)
		if err != nil {
			t.Fatalf("ParseRef(%s) failed: %v", tt.id, err)
		}
		if got := ref.PathNumber(); got != tt.want {
			t.Errorf("PathNumber(%s) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestParseRef_Malformed(t *testing.T) {
	bad := []string{
		"",
		"not-a-scene",
		"S1A_IW_SLC_1SDV_20220504T141557_20220504T141624_043062_05246D_3C67",  // single underscore
		"S2A_IW_SLC__1SDV_20220504T141557_20220504T141624_043062_05246D_3C67", // wrong platform
		"S1A_IW_SLC__1SDV_2022050XT141557_20220504T141624_043062_05246D_3C67", // bad timestamp
		"S1A_IW_SLC__1SDV_20220504T141624_20220504T141557_043062_05246D_3C67", // stop before start
		"S1A_IW_SLC__1SDV_20220504T141557_20220504T141624_orbitn_05246D_3C67", // bad orbit
	}

	for _, id := range bad {
		if _, err := ParseRef(id); !errors.Is(err, ErrMalformedID) {
			t.Errorf("ParseRef(%q) error = %v, want ErrMalformedID", id, err)
		}
	}
}
