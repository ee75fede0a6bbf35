package category

import (
	"errors"
	"testing"
)

func TestDefault_IDs(t *testing.T) {
	table := Default()

	tests := []struct {
		name string
		want int
	}{
		{"bolt", 0},
		{"tshape", 1},
		{"yoke", 2},
		{"null", 3},
		{"washer", Unknown},
		{"", Unknown},
		{"Bolt", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.ID(tt.name); got != tt.want {
				t.Errorf("ID(%q) = %d, want %d", tt.name, got, tt.want)
			}
		})
	}
}

func TestDefault_Order(t *testing.T) {
	table := Default()
	names := table.Names()
	want := []string{"bolt", "tshape", "yoke", "null"}
	if len(names) != len(want) {
		t.Fatalf("got %d names, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
	for _, c := range table.Categories() {
		if c.Supercategory != "none" {
			t.Errorf("category %s supercategory = %q, want none", c.Name, c.Supercategory)
		}
	}
}

func TestTable_Name(t *testing.T) {
	table := Default()
	if name, ok := table.Name(2); !ok || name != "yoke" {
		t.Errorf("Name(2) = %q, %v", name, ok)
	}
	if _, ok := table.Name(9); ok {
		t.Error("Name(9) should not be found")
	}
}

func TestNewTable_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		entries []Category
	}{
		{"empty", nil},
		{"duplicate name", []Category{{ID: 0, Name: "a"}, {ID: 1, Name: "a"}}},
		{"duplicate id", []Category{{ID: 0, Name: "a"}, {ID: 0, Name: "b"}}},
		{"negative id", []Category{{ID: -1, Name: "a"}}},
		{"no name", []Category{{ID: 0}}},
		{"underscore", []Category{{ID: 0, Name: "t_shape"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTable(tt.entries); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		in        string
		wantClass string
		wantIndex string
		wantExt   string
	}{
		{"bolt_rgb_012.png", "bolt", "012", ".png"},
		{"yoke_1.png", "yoke", "1", ".png"},
		{"/data/images/null_rgb_a_b_7.jpg", "null", "7", ".jpg"},
		{"tshape_mask_0042.png", "tshape", "0042", ".png"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParseFilename(tt.in)
			if err != nil {
				t.Fatalf("ParseFilename: %v", err)
			}
			if p.Class != tt.wantClass || p.Index != tt.wantIndex || p.Ext != tt.wantExt {
				t.Errorf("got %+v, want class=%s index=%s ext=%s", p, tt.wantClass, tt.wantIndex, tt.wantExt)
			}
		})
	}
}

func TestParseFilename_Malformed(t *testing.T) {
	for _, name := range []string{"bolt.png", "_12.png", "bolt_.png", ""} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFilename(name)
			if !errors.Is(err, ErrMalformedName) {
				t.Errorf("ParseFilename(%q) error = %v, want ErrMalformedName", name, err)
			}
		})
	}
}

func TestMaskName(t *testing.T) {
	if got := MaskName("bolt", "012", ".png"); got != "bolt_mask_012.png" {
		t.Errorf("MaskName = %q", got)
	}
}
