package exr

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

type testChannel struct {
	name   string
	typ    PixelType
	values []float32
}

type testFile struct {
	window image.Rectangle
	comp   Compression
	flags  uint32
	chans  []testChannel
}

func cstr(b *bytes.Buffer, s string) {
	b.WriteString(s)
	b.WriteByte(0)
}

func attr(b *bytes.Buffer, name, typ string, value []byte) {
	cstr(b, name)
	cstr(b, typ)
	binary.Write(b, binary.LittleEndian, int32(len(value)))
	b.Write(value)
}

func box(r image.Rectangle) []byte {
	var b bytes.Buffer
	for _, v := range []int32{int32(r.Min.X), int32(r.Min.Y), int32(r.Max.X - 1), int32(r.Max.Y - 1)} {
		binary.Write(&b, binary.LittleEndian, v)
	}
	return b.Bytes()
}

// encode writes f as an OpenEXR file using the same chunk layout the decoder
// expects.
func (f testFile) encode(t *testing.T) []byte {
	t.Helper()
	var hdr bytes.Buffer
	binary.Write(&hdr, binary.LittleEndian, uint32(magic))
	binary.Write(&hdr, binary.LittleEndian, uint32(2)|f.flags)

	var chlist bytes.Buffer
	for _, c := range f.chans {
		cstr(&chlist, c.name)
		binary.Write(&chlist, binary.LittleEndian, int32(c.typ))
		chlist.Write([]byte{0, 0, 0, 0})
		binary.Write(&chlist, binary.LittleEndian, int32(1))
		binary.Write(&chlist, binary.LittleEndian, int32(1))
	}
	chlist.WriteByte(0)
	attr(&hdr, "channels", "chlist", chlist.Bytes())
	attr(&hdr, "compression", "compression", []byte{byte(f.comp)})
	attr(&hdr, "dataWindow", "box2i", box(f.window))
	attr(&hdr, "displayWindow", "box2i", box(f.window))
	attr(&hdr, "lineOrder", "lineOrder", []byte{0})
	hdr.WriteByte(0)

	w, h := f.window.Dx(), f.window.Dy()
	lines := f.comp.linesPerChunk()
	var chunks [][]byte
	for row := 0; row < h; row += lines {
		n := min(lines, h-row)
		var raw bytes.Buffer
		for l := 0; l < n; l++ {
			for _, c := range f.chans {
				for x := 0; x < w; x++ {
					v := c.values[(row+l)*w+x]
					switch c.typ {
					case Half:
						binary.Write(&raw, binary.LittleEndian, float16.Fromfloat32(v).Bits())
					case Float:
						binary.Write(&raw, binary.LittleEndian, math.Float32bits(v))
					case Uint:
						binary.Write(&raw, binary.LittleEndian, uint32(v))
					}
				}
			}
		}
		var chunk bytes.Buffer
		binary.Write(&chunk, binary.LittleEndian, int32(f.window.Min.Y+row))
		data := compress(t, f.comp, raw.Bytes())
		binary.Write(&chunk, binary.LittleEndian, int32(len(data)))
		chunk.Write(data)
		chunks = append(chunks, chunk.Bytes())
	}

	offset := uint64(hdr.Len() + 8*len(chunks))
	for _, c := range chunks {
		binary.Write(&hdr, binary.LittleEndian, offset)
		offset += uint64(len(c))
	}
	for _, c := range chunks {
		hdr.Write(c)
	}
	return hdr.Bytes()
}

func compress(t *testing.T, c Compression, raw []byte) []byte {
	if c == NoCompression {
		return raw
	}
	// Split even and odd bytes, then delta-encode.
	tmp := make([]byte, len(raw))
	half := (len(raw) + 1) / 2
	for i, v := range raw {
		if i%2 == 0 {
			tmp[i/2] = v
		} else {
			tmp[half+i/2] = v
		}
	}
	prev := tmp[0]
	for i := 1; i < len(tmp); i++ {
		d := byte(int(tmp[i]) - int(prev) + 128)
		prev = tmp[i]
		tmp[i] = d
	}

	var out []byte
	switch c {
	case RLECompression:
		out = rle(tmp)
	default:
		var b bytes.Buffer
		zw := zlib.NewWriter(&b)
		_, err := zw.Write(tmp)
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		out = b.Bytes()
	}
	if len(out) >= len(raw) {
		return raw
	}
	return out
}

func rle(src []byte) []byte {
	var out []byte
	for i := 0; i < len(src); {
		run := 1
		for i+run < len(src) && src[i+run] == src[i] && run < 128 {
			run++
		}
		if run >= 3 {
			out = append(out, byte(run-1), src[i])
			i += run
			continue
		}
		start := i
		for i < len(src) && i-start < 127 {
			if i+2 < len(src) && src[i] == src[i+1] && src[i] == src[i+2] {
				break
			}
			i++
		}
		out = append(out, byte(int8(-(i - start))))
		out = append(out, src[start:i]...)
	}
	return out
}

func ramp(n int, scale float32) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = float32(i%17) * scale
	}
	return v
}

func constant(n int, c float32) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = c
	}
	return v
}

func TestDecode_Compressions(t *testing.T) {
	tests := []struct {
		name string
		comp Compression
		typ  PixelType
		w, h int
	}{
		{"none float", NoCompression, Float, 3, 2},
		{"none half", NoCompression, Half, 4, 3},
		{"zip half two chunks", ZIPCompression, Half, 5, 20},
		{"zip float", ZIPCompression, Float, 7, 16},
		{"zips float", ZIPSCompression, Float, 6, 5},
		{"rle half", RLECompression, Half, 9, 4},
		{"rle uint", RLECompression, Uint, 8, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := tt.w * tt.h
			chans := []testChannel{
				{"A", tt.typ, constant(n, 1)},
				{"B", tt.typ, ramp(n, 0.25)},
				{"G", tt.typ, ramp(n, 2)},
			}
			if tt.typ != Uint {
				chans[0].values = constant(n, 0.5)
			}
			file := testFile{window: image.Rect(0, 0, tt.w, tt.h), comp: tt.comp, chans: chans}
			if tt.typ == Uint {
				chans[1].values = ramp(n, 1)
			}

			im, err := Decode(bytes.NewReader(file.encode(t)))
			require.NoError(t, err)
			assert.Equal(t, tt.w, im.Width())
			assert.Equal(t, tt.h, im.Height())
			assert.Equal(t, tt.comp, im.Compression)
			assert.Equal(t, []string{"A", "B", "G"}, im.ChannelNames())

			for _, c := range chans {
				got, ok := im.Plane(c.name)
				require.True(t, ok)
				assert.Equal(t, c.values, got, "channel %s", c.name)
			}
		})
	}
}

func TestDecode_DataWindowOffset(t *testing.T) {
	window := image.Rect(10, 20, 14, 23)
	vals := ramp(12, 1)
	file := testFile{window: window, comp: ZIPSCompression, chans: []testChannel{{"Y", Float, vals}}}

	im, err := Decode(bytes.NewReader(file.encode(t)))
	require.NoError(t, err)
	assert.Equal(t, window, im.DataWindow)
	got, _ := im.Plane("Y")
	assert.Equal(t, vals, got)
}

func TestDecode_Unsupported(t *testing.T) {
	base := testFile{window: image.Rect(0, 0, 2, 2), chans: []testChannel{{"Y", Float, constant(4, 1)}}}

	tests := []struct {
		name   string
		mutate func(*testFile)
	}{
		{"tiled", func(f *testFile) { f.flags = flagTiled }},
		{"deep", func(f *testFile) { f.flags = flagNonImage }},
		{"multipart", func(f *testFile) { f.flags = flagMultipart }},
		{"piz", func(f *testFile) { f.comp = 4 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base
			tt.mutate(&f)
			comp := f.comp
			// Encode the pixels uncompressed; the header is rejected first.
			f.comp = NoCompression
			data := f.encode(t)
			if comp != NoCompression {
				data = patchCompression(t, data, comp)
			}
			_, err := Decode(bytes.NewReader(data))
			assert.True(t, errors.Is(err, ErrUnsupported), "got %v", err)
		})
	}
}

func patchCompression(t *testing.T, data []byte, c Compression) []byte {
	t.Helper()
	key := []byte("compression\x00compression\x00\x01\x00\x00\x00")
	i := bytes.Index(data, key)
	require.GreaterOrEqual(t, i, 0)
	out := append([]byte(nil), data...)
	out[i+len(key)] = byte(c)
	return out
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("definitely not an exr file")))
	assert.Error(t, err)

	file := testFile{window: image.Rect(0, 0, 4, 4), chans: []testChannel{{"Y", Float, constant(16, 1)}}}
	data := file.encode(t)
	_, err = Decode(bytes.NewReader(data[:len(data)-10]))
	assert.Error(t, err, "truncated pixel data")
}

func writeEXR(t *testing.T, path string, f testFile) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, f.encode(t), 0o644))
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	img, err := png.Decode(fh)
	require.NoError(t, err)
	return img
}

func TestExtractRGBD(t *testing.T) {
	in := t.TempDir()
	rgbDir := filepath.Join(t.TempDir(), "rgb")
	depthDir := filepath.Join(t.TempDir(), "depth")
	window := image.Rect(0, 0, 3, 1)

	writeEXR(t, filepath.Join(in, "Image0001.exr"), testFile{
		window: window,
		comp:   ZIPCompression,
		chans: []testChannel{
			{"Depth.V", Float, []float32{1, 2, 3}},
			{"RGB.B", Half, []float32{0, 0, 1}},
			{"RGB.G", Half, []float32{0, 2, 0}},
			{"RGB.R", Half, []float32{0.5, -1, 0}},
		},
	})
	writeEXR(t, filepath.Join(in, "Image0002.exr"), testFile{
		window: window,
		chans: []testChannel{
			{"Depth.V", Float, []float32{4, 4, 4}},
			{"RGB.B", Float, constant(3, 0)},
			{"RGB.G", Float, constant(3, 0)},
			{"RGB.R", Float, constant(3, 0)},
		},
	})
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), nil, 0o644))

	results, err := ExtractRGBD(ExtractOptions{InputDir: in, RGBDir: rgbDir, DepthDir: depthDir})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, ExtractResult{Source: "Image0001.exr", RGB: "null_rgb_001.png", Depth: "null_depth_001.png"}, results[0])
	assert.Equal(t, "null_depth_002.png", results[1].Depth)

	rgb := decodePNG(t, filepath.Join(rgbDir, "null_rgb_001.png"))
	r, g, b, _ := rgb.At(0, 0).RGBA()
	assert.Equal(t, []uint32{127, 0, 0}, []uint32{r >> 8, g >> 8, b >> 8})
	r, g, _, _ = rgb.At(1, 0).RGBA()
	assert.Equal(t, []uint32{0, 255}, []uint32{r >> 8, g >> 8})
	_, _, b, _ = rgb.At(2, 0).RGBA()
	assert.Equal(t, uint32(255), b>>8)

	depth := decodePNG(t, filepath.Join(depthDir, "null_depth_001.png")).(*image.Gray)
	assert.Equal(t, []uint8{255, 128, 0}, depth.Pix[:3])

	flat := decodePNG(t, filepath.Join(depthDir, "null_depth_002.png")).(*image.Gray)
	assert.Equal(t, []uint8{255, 255, 255}, flat.Pix[:3])
}

func TestExtractRGBD_MissingChannel(t *testing.T) {
	in := t.TempDir()
	writeEXR(t, filepath.Join(in, "a.exr"), testFile{
		window: image.Rect(0, 0, 1, 1),
		chans:  []testChannel{{"Y", Float, []float32{1}}},
	})
	_, err := ExtractRGBD(ExtractOptions{InputDir: in, RGBDir: t.TempDir(), DepthDir: t.TempDir()})
	assert.ErrorContains(t, err, "missing channel")
}

func TestDepth_IgnoresNaN(t *testing.T) {
	im := &Image{
		DataWindow: image.Rect(0, 0, 3, 1),
		planes:     map[string][]float32{"Z": {float32(math.NaN()), 0, 10}},
	}
	out, err := Depth(im, "Z")
	require.NoError(t, err)
	assert.Equal(t, []uint8{255, 255, 0}, out.Pix)
}
