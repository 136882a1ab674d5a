// Package vox reads MagicaVoxel .vox files and turns their models into
// structure candidates.
package vox

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

const MagicNumber = "VOX "

var (
	ErrNotVox    = errors.New("not a valid VOX file")
	ErrTruncated = errors.New("truncated VOX chunk")
)

type Voxel struct {
	X, Y, Z, ColorIndex byte
}

type Model struct {
	SizeX, SizeY, SizeZ uint32
	Voxels              []Voxel
}

// Palette is indexed by XYZI color index; entry 0 is unused.
type Palette [256][4]byte

// MaterialType is the "_type" property of a MATL chunk.
type MaterialType string

const (
	TypeDiffuse MaterialType = "_diffuse"
	TypeMetal   MaterialType = "_metal"
	TypeGlass   MaterialType = "_glass"
	TypeEmit    MaterialType = "_emit"
	TypeBlend   MaterialType = "_blend"
	TypeMedia   MaterialType = "_media"
)

type Material struct {
	ID       int
	Type     MaterialType
	Weight   float32
	Property map[string]string
}

type File struct {
	Version   int
	Models    []Model
	Palette   Palette
	Materials map[int]Material
}

func LoadFile(filename string) (*File, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Decode(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse reads a whole .vox document. Chunks it does not use are skipped.
func Parse(data []byte) (*File, error) {
	rd := bytes.NewReader(data)

	var magic [4]byte
	if _, err := io.ReadFull(rd, magic[:]); err != nil || string(magic[:]) != MagicNumber {
		return nil, ErrNotVox
	}
	var version int32
	if err := binary.Read(rd, binary.LittleEndian, &version); err != nil {
		return nil, ErrNotVox
	}

	f := &File{
		Version:   int(version),
		Palette:   defaultPalette(),
		Materials: make(map[int]Material),
	}

	for {
		var chunkID [4]byte
		if _, err := io.ReadFull(rd, chunkID[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, ErrTruncated
		}
		var chunkSize, childrenSize int32
		if err := binary.Read(rd, binary.LittleEndian, &chunkSize); err != nil {
			return nil, ErrTruncated
		}
		if err := binary.Read(rd, binary.LittleEndian, &childrenSize); err != nil {
			return nil, ErrTruncated
		}
		if chunkSize < 0 || int64(chunkSize) > int64(rd.Len()) {
			return nil, fmt.Errorf("%w: %s", ErrTruncated, chunkID[:])
		}
		chunk := make([]byte, chunkSize)
		if _, err := io.ReadFull(rd, chunk); err != nil {
			return nil, ErrTruncated
		}

		switch string(chunkID[:]) {
		case "MAIN":
			// children follow inline
		case "SIZE":
			if len(chunk) < 12 {
				return nil, fmt.Errorf("%w: SIZE", ErrTruncated)
			}
			f.Models = append(f.Models, Model{
				SizeX: binary.LittleEndian.Uint32(chunk[0:4]),
				SizeY: binary.LittleEndian.Uint32(chunk[4:8]),
				SizeZ: binary.LittleEndian.Uint32(chunk[8:12]),
			})
		case "XYZI":
			if len(f.Models) == 0 {
				return nil, errors.New("XYZI chunk before SIZE")
			}
			if len(chunk) < 4 {
				return nil, fmt.Errorf("%w: XYZI", ErrTruncated)
			}
			n := int(binary.LittleEndian.Uint32(chunk[:4]))
			if n < 0 || len(chunk)-4 < n*4 {
				return nil, fmt.Errorf("%w: XYZI", ErrTruncated)
			}
			model := &f.Models[len(f.Models)-1]
			model.Voxels = make([]Voxel, n)
			for i := 0; i < n; i++ {
				off := 4 + i*4
				model.Voxels[i] = Voxel{
					X:          chunk[off],
					Y:          chunk[off+1],
					Z:          chunk[off+2],
					ColorIndex: chunk[off+3],
				}
			}
		case "RGBA":
			for i := 0; i < 255; i++ {
				off := i * 4
				if off+3 >= len(chunk) {
					break
				}
				copy(f.Palette[i+1][:], chunk[off:off+4])
			}
		case "MATL":
			mat, err := parseMaterial(chunk)
			if err != nil {
				return nil, err
			}
			f.Materials[mat.ID] = mat
		}
	}
	return f, nil
}

func parseMaterial(data []byte) (Material, error) {
	if len(data) < 8 {
		return Material{}, fmt.Errorf("%w: MATL", ErrTruncated)
	}
	mat := Material{
		ID:       int(int32(binary.LittleEndian.Uint32(data[:4]))),
		Type:     TypeDiffuse,
		Property: make(map[string]string),
	}
	count := int(binary.LittleEndian.Uint32(data[4:8]))
	data = data[8:]

	readString := func() (string, error) {
		if len(data) < 4 {
			return "", fmt.Errorf("%w: MATL", ErrTruncated)
		}
		n := int(binary.LittleEndian.Uint32(data[:4]))
		data = data[4:]
		if n < 0 || n > len(data) {
			return "", fmt.Errorf("%w: MATL", ErrTruncated)
		}
		s := string(data[:n])
		data = data[n:]
		return s, nil
	}

	for i := 0; i < count; i++ {
		key, err := readString()
		if err != nil {
			return mat, err
		}
		value, err := readString()
		if err != nil {
			return mat, err
		}
		switch key {
		case "_type":
			mat.Type = MaterialType(value)
		case "_weight":
			w, err := strconv.ParseFloat(value, 32)
			if err != nil {
				return mat, fmt.Errorf("MATL %d: bad _weight %q", mat.ID, value)
			}
			mat.Weight = float32(w)
		default:
			mat.Property[key] = value
		}
	}
	return mat, nil
}

func defaultPalette() Palette {
	var p Palette
	for i := range p {
		p[i] = [4]byte{255, 255, 255, 255}
	}
	return p
}
