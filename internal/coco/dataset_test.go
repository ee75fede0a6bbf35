package coco

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/dataset-tools/internal/category"
	"github.com/ironsheep/dataset-tools/internal/contour"
)

func sampleDataset() *Dataset {
	ds := New(fixedInfo, category.Default())
	a := ds.AddImage("bolt_rgb_001.png", 64, 48)
	b := ds.AddImage("yoke_rgb_002.png", 64, 48)
	ds.AddAnnotation(a.ID, 0, contour.Contour{{1, 1}, {1, 4}, {6, 4}, {6, 1}})
	ds.AddAnnotation(b.ID, 2, contour.Contour{{10, 10}})
	ds.AddAnnotation(b.ID, 2, contour.Contour{{20, 20}, {20, 21}})
	return ds
}

func TestDataset_IDs(t *testing.T) {
	ds := sampleDataset()
	for i, img := range ds.Images {
		assert.Equal(t, i, img.ID)
	}
	for i, a := range ds.Annotations {
		assert.Equal(t, i, a.ID)
	}
	assert.Len(t, ds.AnnotationsFor(1), 2)
	assert.Empty(t, ds.AnnotationsFor(7))

	img, ok := ds.ImageByID(1)
	assert.True(t, ok)
	assert.Equal(t, "yoke_rgb_002.png", img.FileName)
	_, ok = ds.ImageByID(5)
	assert.False(t, ok)
}

func TestDataset_AddAnnotationGeometry(t *testing.T) {
	ds := sampleDataset()
	a := ds.Annotations[0]
	assert.Equal(t, []float64{1, 1, 6, 4}, a.BBox)
	assert.Equal(t, 24.0, a.Area)
	assert.Equal(t, [][]float64{{1, 1, 1, 4, 6, 4, 6, 1}}, a.Segmentation)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, sampleDataset().Validate())

	tests := []struct {
		name   string
		mutate func(*Dataset)
		want   error
	}{
		{"dangling image", func(d *Dataset) { d.Annotations[0].ImageID = 9 }, ErrDanglingImage},
		{"dangling category", func(d *Dataset) { d.Annotations[1].CategoryID = 42 }, ErrDanglingCategory},
		{"image order", func(d *Dataset) { d.Images[1].ID = 0 }, ErrIDOrder},
		{"annotation order", func(d *Dataset) { d.Annotations[2].ID = 1 }, ErrIDOrder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := sampleDataset()
			tt.mutate(ds)
			err := ds.Validate()
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestWriteFileAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.json")
	require.NoError(t, os.WriteFile(path, []byte("old content"), 0o644))

	ds := New(fixedInfo, category.Default())
	require.NoError(t, WriteFile(path, ds))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, "\n    \"info\": {")
	assert.Contains(t, text, "\"licenses\": []")
	assert.Contains(t, text, "\"description\": \"Generated COCO Dataset\"")
	assert.Contains(t, text, "\"date_created\": \"2025-03-14\"")
	assert.False(t, strings.Contains(text, "old content"))

	full := sampleDataset()
	require.NoError(t, WriteFile(path, full))
	loaded, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(full, loaded); diff != "" {
		t.Errorf("reloaded dataset mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestDatasetDicts(t *testing.T) {
	ds := sampleDataset()
	ds.AddImage("null_rgb_003.png", 64, 48)

	records := DatasetDicts(ds, "/data/train/images")
	require.Len(t, records, 3)

	assert.Equal(t, filepath.Join("/data/train/images", "bolt_rgb_001.png"), records[0].FileName)
	assert.Equal(t, 48, records[0].Height)
	require.Len(t, records[0].Annotations, 1)
	assert.Equal(t, BoxModeXYWHAbs, records[0].Annotations[0].BBoxMode)
	assert.Equal(t, []float64{1, 1, 6, 4}, records[0].Annotations[0].BBox)

	assert.Len(t, records[1].Annotations, 2)
	assert.NotNil(t, records[2].Annotations)
	assert.Empty(t, records[2].Annotations)

	path := filepath.Join(t.TempDir(), "train_dicts.json")
	require.NoError(t, WriteRecords(path, records))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"bbox_mode":1`)
}
