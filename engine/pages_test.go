package engine

import (
	"reflect"
	"testing"
)

func TestPageSelection(t *testing.T) {
	tests := []struct {
		name             string
		start, end, step int
		count            int
		want             []int
	}{
		{"defaults select all", MinPageCount, MaxPageCount, 1, 3, []int{1, 2, 3}},
		{"single page", 2, 2, 1, 5, []int{2}},
		{"every other", 1, 5, 2, 5, []int{1, 3, 5}},
		{"end clamped", 4, 99, 1, 5, []int{4, 5}},
		{"backwards", 5, 1, -2, 5, []int{5, 3, 1}},
		{"start clamped down", 10, 8, -1, 9, []int{9, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PageSelection(tt.start, tt.end, tt.step, tt.count)
			if err != nil {
				t.Fatalf("PageSelection: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PageSelection(%d, %d, %d, %d) = %v, want %v",
					tt.start, tt.end, tt.step, tt.count, got, tt.want)
			}
		})
	}
}

func TestPageSelection_Errors(t *testing.T) {
	tests := []struct {
		name             string
		start, end, step int
		count            int
	}{
		{"zero step", 1, 3, 0, 3},
		{"empty document", 1, 1, 1, 0},
		{"forward but reversed", 3, 1, 1, 3},
		{"backward but ascending", 1, 3, -1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PageSelection(tt.start, tt.end, tt.step, tt.count); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestImageSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"natural", NaturalSize, NaturalSize, 40, 20},
		{"width keeps aspect", 20, NaturalSize, 20, 10},
		{"height keeps aspect", NaturalSize, 40, 80, 40},
		{"both given", 10, 10, 10, 10},
		{"largest side", MaxImageSide, 1, MaxImageSide, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, err := ImageSize(40, 20, tt.width, tt.height)
			if err != nil {
				t.Fatalf("ImageSize: %v", err)
			}
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("ImageSize(40, 20, %d, %d) = %dx%d, want %dx%d",
					tt.width, tt.height, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestImageSize_Errors(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"zero width", 0, 10},
		{"negative height", 10, -5},
		{"too wide", MaxImageSide + 1, 10},
		{"huge", 1 << 40, 1 << 40},
		{"huge with natural height", 1 << 62, NaturalSize},
		{"aspect overflows the limit", NaturalSize, MaxImageSide},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ImageSize(40, 20, tt.width, tt.height); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestPageSizesInPoints(t *testing.T) {
	if !almostEqual(A4.Width, 595.28, 0.01) || !almostEqual(A4.Height, 841.89, 0.01) {
		t.Errorf("A4 = %+v, want ~595.28 x 841.89", A4)
	}
	if Letter != (PageSize{Width: 612, Height: 792}) {
		t.Errorf("Letter = %+v, want 612 x 792", Letter)
	}
	if Ledger != (PageSize{Width: 792, Height: 1224}) {
		t.Errorf("Ledger = %+v, want 792 x 1224", Ledger)
	}
}

func TestMetadataKey(t *testing.T) {
	if got := ModificationDate.Key(); got != "ModDate" {
		t.Errorf("ModificationDate.Key() = %q, want ModDate", got)
	}
	if got := Metadata(42).String(); got != "Metadata(42)" {
		t.Errorf("unknown metadata String() = %q", got)
	}
}

func almostEqual(a, b, epsilon float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < epsilon
}
