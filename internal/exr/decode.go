// Package exr reads single-part scanline OpenEXR files and extracts the RGB
// and depth passes a renderer writes into them.
//
// Supported compressions are NONE, RLE, ZIPS and ZIP; supported channel types
// are HALF, FLOAT and UINT. Tiled, deep and multi-part files, and any other
// compression, are rejected with ErrUnsupported.
package exr

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/zlib"
	"github.com/x448/float16"
)

const magic = 20000630

// Version flags.
const (
	flagTiled     = 0x200
	flagNonImage  = 0x800
	flagMultipart = 0x1000
)

// ErrUnsupported is returned for valid OpenEXR files that use features this
// reader does not implement.
var ErrUnsupported = errors.New("unsupported OpenEXR feature")

// PixelType is the storage type of a channel.
type PixelType int32

const (
	Uint  PixelType = 0
	Half  PixelType = 1
	Float PixelType = 2
)

func (p PixelType) size() int {
	if p == Half {
		return 2
	}
	return 4
}

func (p PixelType) String() string {
	switch p {
	case Uint:
		return "UINT"
	case Half:
		return "HALF"
	case Float:
		return "FLOAT"
	}
	return fmt.Sprintf("PixelType(%d)", int32(p))
}

// Compression identifies the chunk compression of a file.
type Compression uint8

const (
	NoCompression   Compression = 0
	RLECompression  Compression = 1
	ZIPSCompression Compression = 2
	ZIPCompression  Compression = 3
)

func (c Compression) linesPerChunk() int {
	if c == ZIPCompression {
		return 16
	}
	return 1
}

func (c Compression) String() string {
	switch c {
	case NoCompression:
		return "NONE"
	case RLECompression:
		return "RLE"
	case ZIPSCompression:
		return "ZIPS"
	case ZIPCompression:
		return "ZIP"
	}
	return fmt.Sprintf("Compression(%d)", uint8(c))
}

// Channel is one entry of the header channel list.
type Channel struct {
	Name      string
	Type      PixelType
	XSampling int32
	YSampling int32
}

// Image is a decoded file: one float32 plane per channel, row-major.
type Image struct {
	// DataWindow is the pixel extent stored in the file, Max exclusive.
	DataWindow  image.Rectangle
	Compression Compression
	Channels    []Channel

	planes map[string][]float32
}

// Width returns the data window width.
func (im *Image) Width() int { return im.DataWindow.Dx() }

// Height returns the data window height.
func (im *Image) Height() int { return im.DataWindow.Dy() }

// Plane returns the samples of the named channel.
func (im *Image) Plane(name string) ([]float32, bool) {
	p, ok := im.planes[name]
	return p, ok
}

// ChannelNames lists channel names in file order.
func (im *Image) ChannelNames() []string {
	names := make([]string, len(im.Channels))
	for i, c := range im.Channels {
		names[i] = c.Name
	}
	return names
}

// DecodeFile decodes the file at path.
func DecodeFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a complete OpenEXR file from r.
func Decode(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read exr: %w", err)
	}
	p := &parser{buf: data}

	if p.u32() != magic {
		return nil, errors.New("not an OpenEXR file")
	}
	version := p.u32()
	if p.err != nil {
		return nil, p.err
	}
	switch {
	case version&flagMultipart != 0:
		return nil, fmt.Errorf("%w: multi-part file", ErrUnsupported)
	case version&flagNonImage != 0:
		return nil, fmt.Errorf("%w: deep data", ErrUnsupported)
	case version&flagTiled != 0:
		return nil, fmt.Errorf("%w: tiled file", ErrUnsupported)
	}

	im, err := p.header()
	if err != nil {
		return nil, err
	}
	if err := p.pixels(im); err != nil {
		return nil, err
	}
	return im, nil
}

type parser struct {
	buf []byte
	off int
	err error
}

func (p *parser) need(n int) bool {
	if p.err != nil {
		return false
	}
	if n < 0 || p.off+n > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return false
	}
	return true
}

func (p *parser) u8() uint8 {
	if !p.need(1) {
		return 0
	}
	v := p.buf[p.off]
	p.off++
	return v
}

func (p *parser) u32() uint32 {
	if !p.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(p.buf[p.off:])
	p.off += 4
	return v
}

func (p *parser) i32() int32 { return int32(p.u32()) }

func (p *parser) u64() uint64 {
	if !p.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(p.buf[p.off:])
	p.off += 8
	return v
}

func (p *parser) bytes(n int) []byte {
	if !p.need(n) {
		return nil
	}
	b := p.buf[p.off : p.off+n]
	p.off += n
	return b
}

func (p *parser) cstring() string {
	if p.err != nil {
		return ""
	}
	end := bytes.IndexByte(p.buf[p.off:], 0)
	if end < 0 {
		p.err = io.ErrUnexpectedEOF
		return ""
	}
	s := string(p.buf[p.off : p.off+end])
	p.off += end + 1
	return s
}

func (p *parser) header() (*Image, error) {
	im := &Image{}
	var haveChannels, haveWindow, haveCompression bool

	for {
		name := p.cstring()
		if p.err != nil {
			return nil, fmt.Errorf("failed to read header: %w", p.err)
		}
		if name == "" {
			break
		}
		typ := p.cstring()
		size := int(p.i32())
		value := p.bytes(size)
		if p.err != nil {
			return nil, fmt.Errorf("failed to read attribute %s: %w", name, p.err)
		}

		switch {
		case name == "channels" && typ == "chlist":
			chans, err := parseChannels(value)
			if err != nil {
				return nil, err
			}
			im.Channels = chans
			haveChannels = true
		case name == "compression" && typ == "compression":
			if len(value) != 1 {
				return nil, errors.New("invalid compression attribute")
			}
			im.Compression = Compression(value[0])
			haveCompression = true
		case name == "dataWindow" && typ == "box2i":
			if len(value) != 16 {
				return nil, errors.New("invalid dataWindow attribute")
			}
			xMin := int32(binary.LittleEndian.Uint32(value[0:]))
			yMin := int32(binary.LittleEndian.Uint32(value[4:]))
			xMax := int32(binary.LittleEndian.Uint32(value[8:]))
			yMax := int32(binary.LittleEndian.Uint32(value[12:]))
			if xMax < xMin || yMax < yMin {
				return nil, fmt.Errorf("invalid dataWindow (%d,%d)-(%d,%d)", xMin, yMin, xMax, yMax)
			}
			im.DataWindow = image.Rect(int(xMin), int(yMin), int(xMax)+1, int(yMax)+1)
			haveWindow = true
		}
	}

	if !haveChannels || !haveWindow || !haveCompression {
		return nil, errors.New("header is missing channels, compression or dataWindow")
	}
	if im.Compression > ZIPCompression {
		return nil, fmt.Errorf("%w: compression %d", ErrUnsupported, im.Compression)
	}
	return im, nil
}

func parseChannels(value []byte) ([]Channel, error) {
	p := &parser{buf: value}
	var chans []Channel
	for {
		name := p.cstring()
		if p.err != nil {
			return nil, fmt.Errorf("failed to read channel list: %w", p.err)
		}
		if name == "" {
			break
		}
		c := Channel{Name: name, Type: PixelType(p.i32())}
		p.bytes(4) // pLinear and reserved
		c.XSampling = p.i32()
		c.YSampling = p.i32()
		if p.err != nil {
			return nil, fmt.Errorf("failed to read channel %s: %w", name, p.err)
		}
		if c.Type < Uint || c.Type > Float {
			return nil, fmt.Errorf("channel %s has invalid pixel type %d", name, c.Type)
		}
		if c.XSampling != 1 || c.YSampling != 1 {
			return nil, fmt.Errorf("%w: subsampled channel %s", ErrUnsupported, name)
		}
		chans = append(chans, c)
	}
	if len(chans) == 0 {
		return nil, errors.New("channel list is empty")
	}
	return chans, nil
}

func (p *parser) pixels(im *Image) error {
	w, h := im.Width(), im.Height()
	lines := im.Compression.linesPerChunk()
	chunks := (h + lines - 1) / lines

	offsets := make([]uint64, chunks)
	for i := range offsets {
		offsets[i] = p.u64()
	}
	if p.err != nil {
		return fmt.Errorf("failed to read offset table: %w", p.err)
	}

	lineBytes := 0
	for _, c := range im.Channels {
		lineBytes += c.Type.size() * w
	}

	im.planes = make(map[string][]float32, len(im.Channels))
	for _, c := range im.Channels {
		im.planes[c.Name] = make([]float32, w*h)
	}

	for i, off := range offsets {
		if off > uint64(len(p.buf)) {
			return fmt.Errorf("chunk %d offset %d is past the end of the file", i, off)
		}
		p.off = int(off)
		y := int(p.i32())
		size := int(p.i32())
		packed := p.bytes(size)
		if p.err != nil {
			return fmt.Errorf("failed to read chunk %d: %w", i, p.err)
		}

		row := y - im.DataWindow.Min.Y
		if row < 0 || row >= h {
			return fmt.Errorf("chunk %d starts at line %d outside the data window", i, y)
		}
		n := min(lines, h-row)
		raw, err := uncompress(im.Compression, packed, n*lineBytes)
		if err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
		im.scatter(raw, row, n, w)
	}
	return nil
}

// scatter copies n decoded lines starting at row into the planes. Within a
// line, channels are stored one after another in channel-list order.
func (im *Image) scatter(raw []byte, row, n, w int) {
	off := 0
	for l := 0; l < n; l++ {
		base := (row + l) * w
		for _, c := range im.Channels {
			plane := im.planes[c.Name]
			for x := 0; x < w; x++ {
				var v float32
				switch c.Type {
				case Half:
					v = float16.Frombits(binary.LittleEndian.Uint16(raw[off:])).Float32()
				case Float:
					v = math.Float32frombits(binary.LittleEndian.Uint32(raw[off:]))
				case Uint:
					v = float32(binary.LittleEndian.Uint32(raw[off:]))
				}
				plane[base+x] = v
				off += c.Type.size()
			}
		}
	}
}

func uncompress(c Compression, packed []byte, expected int) ([]byte, error) {
	if len(packed) >= expected {
		return packed[:expected], nil
	}
	var tmp []byte
	switch c {
	case NoCompression:
		return nil, fmt.Errorf("chunk holds %d bytes, want %d", len(packed), expected)
	case ZIPSCompression, ZIPCompression:
		zr, err := zlib.NewReader(bytes.NewReader(packed))
		if err != nil {
			return nil, fmt.Errorf("failed to open zlib stream: %w", err)
		}
		tmp, err = io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to inflate chunk: %w", err)
		}
	case RLECompression:
		var err error
		tmp, err = unRLE(packed)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: compression %d", ErrUnsupported, c)
	}
	if len(tmp) != expected {
		return nil, fmt.Errorf("chunk decodes to %d bytes, want %d", len(tmp), expected)
	}
	return reorder(tmp), nil
}

// unRLE expands OpenEXR run-length data: a negative count byte introduces
// that many literal bytes, a non-negative one repeats the next byte count+1
// times.
func unRLE(src []byte) ([]byte, error) {
	var out []byte
	for i := 0; i < len(src); {
		count := int(int8(src[i]))
		i++
		if count < 0 {
			n := -count
			if i+n > len(src) {
				return nil, errors.New("truncated RLE literal run")
			}
			out = append(out, src[i:i+n]...)
			i += n
			continue
		}
		if i >= len(src) {
			return nil, errors.New("truncated RLE repeat run")
		}
		for k := 0; k <= count; k++ {
			out = append(out, src[i])
		}
		i++
	}
	return out, nil
}

// reorder undoes the byte predictor and the split of even and odd bytes
// applied before ZIP and RLE compression.
func reorder(t []byte) []byte {
	for i := 1; i < len(t); i++ {
		t[i] = byte(int(t[i-1]) + int(t[i]) - 128)
	}
	out := make([]byte, len(t))
	t1, t2 := 0, (len(t)+1)/2
	for s := 0; s < len(t); {
		out[s] = t[t1]
		t1++
		s++
		if s < len(t) {
			out[s] = t[t2]
			t2++
			s++
		}
	}
	return out
}
