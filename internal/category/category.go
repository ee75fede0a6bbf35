// Package category holds the class table shared by every dataset converter
// and the file-name convention that ties images to their masks.
//
// Rendered images are named `<class>_<...>_<index>.<ext>` and their masks
// `<class>_mask_<index>.<ext>`. The first underscore-separated token of an
// image name selects the category; the last token before the extension is the
// numeric identifier used to find the matching mask.
package category

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Unknown is returned by Table.ID for names that are not in the table.
const Unknown = -1

// ErrMalformedName is returned by ParseFilename when a file name does not
// contain at least two underscore-separated tokens.
var ErrMalformedName = errors.New("malformed dataset file name")

// Category is one entry of the class table.
type Category struct {
	ID            int    `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	Supercategory string `json:"supercategory" yaml:"supercategory,omitempty"`
}

// Table is an ordered, read-only list of categories.
//
// A Table is built once per run and passed by reference to every converter,
// so COCO output, YOLO labels and framework configuration always agree on the
// class identifiers.
type Table struct {
	entries []Category
	byName  map[string]int
}

// NewTable builds a table from the given categories. Names and identifiers
// must be unique and identifiers must be non-negative.
func NewTable(entries []Category) (*Table, error) {
	if len(entries) == 0 {
		return nil, errors.New("category table is empty")
	}
	t := &Table{
		entries: make([]Category, len(entries)),
		byName:  make(map[string]int, len(entries)),
	}
	ids := make(map[int]bool, len(entries))
	for i, c := range entries {
		if c.Name == "" {
			return nil, fmt.Errorf("category %d has no name", i)
		}
		if strings.Contains(c.Name, "_") {
			return nil, fmt.Errorf("category name %q must not contain an underscore", c.Name)
		}
		if c.ID < 0 {
			return nil, fmt.Errorf("category %q has negative id %d", c.Name, c.ID)
		}
		if _, dup := t.byName[c.Name]; dup {
			return nil, fmt.Errorf("duplicate category name %q", c.Name)
		}
		if ids[c.ID] {
			return nil, fmt.Errorf("duplicate category id %d", c.ID)
		}
		if c.Supercategory == "" {
			c.Supercategory = "none"
		}
		ids[c.ID] = true
		t.byName[c.Name] = c.ID
		t.entries[i] = c
	}
	return t, nil
}

// Default returns the fixed four-class table used by the rendered dataset.
func Default() *Table {
	t, err := NewTable([]Category{
		{ID: 0, Name: "bolt"},
		{ID: 1, Name: "tshape"},
		{ID: 2, Name: "yoke"},
		{ID: 3, Name: "null"},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// ID returns the identifier for name, or Unknown.
func (t *Table) ID(name string) int {
	if id, ok := t.byName[name]; ok {
		return id
	}
	return Unknown
}

// Contains reports whether name is a known category.
func (t *Table) Contains(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Categories returns a copy of the table entries in declaration order.
func (t *Table) Categories() []Category {
	out := make([]Category, len(t.entries))
	copy(out, t.entries)
	return out
}

// Names returns the category names in declaration order.
func (t *Table) Names() []string {
	names := make([]string, len(t.entries))
	for i, c := range t.entries {
		names[i] = c.Name
	}
	return names
}

// Name returns the name registered for id.
func (t *Table) Name(id int) (string, bool) {
	for _, c := range t.entries {
		if c.ID == id {
			return c.Name, true
		}
	}
	return "", false
}

// Len returns the number of categories.
func (t *Table) Len() int {
	return len(t.entries)
}

// Parsed is the result of splitting a dataset file name.
type Parsed struct {
	// Class is the first underscore-separated token.
	Class string
	// Index is the last token before the extension.
	Index string
	// Ext is the extension including the leading dot.
	Ext string
}

// ParseFilename splits a dataset file name into class label and index.
//
// "bolt_rgb_012.png" yields Class "bolt", Index "012", Ext ".png".
// The function does not consult any table; callers decide whether an unknown
// class is skipped or fatal.
func ParseFilename(name string) (Parsed, error) {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	parts := strings.Split(stem, "_")
	if len(parts) < 2 || parts[0] == "" || parts[len(parts)-1] == "" {
		return Parsed{}, fmt.Errorf("%w: %q", ErrMalformedName, base)
	}
	return Parsed{
		Class: parts[0],
		Index: parts[len(parts)-1],
		Ext:   ext,
	}, nil
}

// MaskName returns the mask file name paired with an image of the given class
// and index.
func MaskName(class, index, ext string) string {
	return class + "_mask_" + index + ext
}
