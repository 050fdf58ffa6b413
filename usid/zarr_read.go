package usid

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/compress/zlib"
	zarr "github.com/qri-io/zarr-go"

	"github.com/DancingQuanta/pycroscopy/internal/utils"
)

// ZarrReader reads containers written by ZarrWriter. It supports
// attribute, metadata and full-array reads; partial (hyperslab) reads
// are resolved client-side via Region on the decoded matrices.
type ZarrReader struct {
	store zarr.Store
}

// OpenZarr opens an existing container store at path.
func OpenZarr(path string) (*ZarrReader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, utils.WrapError("open container", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open container: %q is not a store directory", path)
	}

	store, err := newDirStore(path)
	if err != nil {
		return nil, utils.WrapError("open container store", err)
	}
	return NewZarrReader(store), nil
}

// NewZarrReader wraps an existing store.
func NewZarrReader(store zarr.Store) *ZarrReader {
	return &ZarrReader{store: store}
}

// Attrs returns the attributes of the object at path. Objects without an
// attribute document yield an empty set.
func (f *ZarrReader) Attrs(path string) (zarr.Attributes, error) {
	attrs := zarr.Attributes{}
	err := f.getJSON(storeKey(normalizePath(path), zarr.MTAttributes), &attrs)
	if err != nil {
		if os.IsNotExist(err) || errors.Is(err, zarr.ErrNotfound) {
			return zarr.Attributes{}, nil
		}
		return nil, utils.WrapError(fmt.Sprintf("read attributes at %q", path), err)
	}
	return attrs, nil
}

// ArrayMeta returns the array metadata of the dataset at path.
func (f *ZarrReader) ArrayMeta(path string) (*zarr.ArrayMeta, error) {
	meta := &zarr.ArrayMeta{}
	if err := f.getJSON(storeKey(normalizePath(path), zarr.MTArray), meta); err != nil {
		return nil, utils.WrapError(fmt.Sprintf("read array metadata at %q", path), err)
	}
	return meta, nil
}

// IsGroup reports whether a group exists at path.
func (f *ZarrReader) IsGroup(path string) bool {
	g := zarr.Group{}
	return f.getJSON(storeKey(normalizePath(path), zarr.MTGroup), &g) == nil
}

// ReadArray reads the full dataset at path, returning the flat C-order
// payload and its shape.
func (f *ZarrReader) ReadArray(path string) (any, []int, error) {
	p := normalizePath(path)
	meta, err := f.ArrayMeta(p)
	if err != nil {
		return nil, nil, err
	}

	rows, cols, err := normalizeShape(meta.Shape)
	if err != nil {
		return nil, nil, utils.WrapError(fmt.Sprintf("dataset at %q", path), err)
	}
	chunkRows, chunkCols := meta.Chunks[0], meta.Chunks[1]
	if chunkCols != cols || chunkRows < 1 {
		return nil, nil, fmt.Errorf("dataset at %q: unsupported chunk layout %v for shape %v",
			path, meta.Chunks, meta.Shape)
	}

	dt := meta.Dtype.Dtype
	elems, err := utils.ProductInt([]int{rows, cols})
	if err != nil {
		return nil, nil, err
	}
	total, err := utils.ByteSize(elems, dt.ByteSize)
	if err != nil {
		return nil, nil, err
	}

	raw := make([]byte, total)
	grid := (rows + chunkRows - 1) / chunkRows
	for i := 0; i < grid; i++ {
		block, err := f.readChunk(p, i, meta.Compressor)
		if err != nil {
			return nil, nil, utils.WrapError(fmt.Sprintf("read chunk %d of %q", i, path), err)
		}

		// Trim edge-chunk padding while copying into place.
		lo := i * chunkRows * cols * dt.ByteSize
		hi := lo + len(block)
		if hi > total {
			hi = total
		}
		copy(raw[lo:hi], block)
	}

	data, err := decodePayload(bytes.NewReader(raw), dt, elems)
	if err != nil {
		return nil, nil, utils.WrapError(fmt.Sprintf("decode dataset at %q", path), err)
	}
	return data, []int{rows, cols}, nil
}

func (f *ZarrReader) readChunk(p string, i int, comp zarr.CompressionMeta) ([]byte, error) {
	rc, err := f.store.Get(p + "/" + fmt.Sprintf("%d.0", i))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	var r io.Reader = rc
	switch comp.ID {
	case "zlib":
		zr, err := zlib.NewReader(rc)
		if err != nil {
			return nil, err
		}
		defer func() { _ = zr.Close() }()
		r = zr
	case "":
		// raw chunk
	default:
		return nil, fmt.Errorf("unsupported compressor %q", comp.ID)
	}

	return io.ReadAll(r)
}

// WalkFunc visits one container object during a Walk. For datasets meta
// is non-nil.
type WalkFunc func(path string, meta *zarr.ArrayMeta, attrs zarr.Attributes) error

// Walk visits every group and dataset in the store in lexical path
// order, the root group first. It requires a store with key listing
// (directory stores qualify, zarr.MemoryStore does not).
func (f *ZarrReader) Walk(fn WalkFunc) error {
	lister, ok := f.store.(interface{ Keys() ([]string, error) })
	if !ok {
		return fmt.Errorf("store type %q does not support listing", f.store.Type())
	}

	keys, err := lister.Keys()
	if err != nil {
		return utils.WrapError("list container keys", err)
	}

	var paths []string
	isArray := map[string]bool{}
	for _, key := range keys {
		if mt, ok := zarr.KeyMetaType(key); ok {
			p := strings.TrimSuffix(strings.TrimSuffix(key, string(mt)), "/")
			switch mt {
			case zarr.MTGroup:
				paths = append(paths, p)
			case zarr.MTArray:
				paths = append(paths, p)
				isArray[p] = true
			}
		}
	}
	sort.Strings(paths)

	for _, p := range paths {
		attrs, err := f.Attrs(p)
		if err != nil {
			return err
		}

		var meta *zarr.ArrayMeta
		if isArray[p] {
			if meta, err = f.ArrayMeta(p); err != nil {
				return err
			}
		}
		if err := fn("/"+p, meta, attrs); err != nil {
			return err
		}
	}
	return nil
}

func (f *ZarrReader) getJSON(key string, out any) error {
	rc, err := f.store.Get(key)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	return json.NewDecoder(rc).Decode(out)
}

// normalizePath strips the leading slash Reference values carry, so
// references resolve directly as store paths.
func normalizePath(path string) string {
	return strings.Trim(path, "/")
}
