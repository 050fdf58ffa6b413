package usid

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zlib"
	zarr "github.com/qri-io/zarr-go"

	"github.com/DancingQuanta/pycroscopy/internal/utils"
)

// zarrFormat is the storage specification version written by this
// backend.
const zarrFormat = 2

// defaultCompressionLevel matches the numcodecs Zlib default.
const defaultCompressionLevel = 1

type zarrOptions struct {
	level     int
	chunkRows int
}

// ZarrOption customizes the zarr container backend.
type ZarrOption func(*zarrOptions)

// WithCompressionLevel sets the zlib level (1-9) used for chunk
// payloads. Values outside the range are clamped.
func WithCompressionLevel(level int) ZarrOption {
	return func(o *zarrOptions) {
		if level < zlib.BestSpeed {
			level = zlib.BestSpeed
		}
		if level > zlib.BestCompression {
			level = zlib.BestCompression
		}
		o.level = level
	}
}

// WithChunkRows splits dataset payloads into chunks of at most n leading
// rows each. The default is one chunk per dataset.
func WithChunkRows(n int) ZarrOption {
	return func(o *zarrOptions) { o.chunkRows = n }
}

// ZarrWriter writes an in-memory container tree as a zarr v2 store:
// one ".zgroup"/".zattrs" pair per group, ".zarray"/".zattrs" plus
// zlib-compressed little-endian C-order chunks per dataset, and a
// consolidated ".zmetadata" document on Close.
//
// Limitations:
//   - Dataset rank must be 1 or 2; rank-1 payloads are stored as
//     [n, 1] column vectors (USID main datasets are 2D by convention)
//   - Dataset names must be unique across the tree (they key the
//     reference map used for linking)
type ZarrWriter struct {
	store zarr.Store
	opts  zarrOptions

	// staged metadata, kept until Close for reference linking and the
	// consolidated metadata document
	attrs map[string]zarr.Attributes
	metas map[string]zarr.MetaTyper

	closed bool
}

var _ ContainerWriter = (*ZarrWriter)(nil)

// NewZarrWriter wraps an existing store. Used directly in tests with a
// zarr.MemoryStore; production callers go through CreateZarr.
func NewZarrWriter(store zarr.Store, opts ...ZarrOption) *ZarrWriter {
	o := zarrOptions{level: defaultCompressionLevel}
	for _, opt := range opts {
		opt(&o)
	}
	return &ZarrWriter{
		store: store,
		opts:  o,
		attrs: map[string]zarr.Attributes{},
		metas: map[string]zarr.MetaTyper{},
	}
}

// CreateZarr opens a zarr store writer at path, replacing anything
// already there (full-overwrite semantics, no merge, no backup). A
// failure after this point leaves no prior container at the path.
func CreateZarr(path string, opts ...ZarrOption) (*ZarrWriter, error) {
	if path == "" {
		return nil, fmt.Errorf("container path cannot be empty")
	}
	if err := os.RemoveAll(path); err != nil {
		return nil, utils.WrapError("replace container", err)
	}
	store, err := newDirStore(path)
	if err != nil {
		return nil, utils.WrapError("open container store", err)
	}
	return NewZarrWriter(store, opts...), nil
}

// WriteTree writes the whole tree in one pass and returns the mapping
// from dataset name to reference.
func (w *ZarrWriter) WriteTree(root *Group) (map[string]Reference, error) {
	if w.closed {
		return nil, ErrWriterClosed
	}
	if root == nil {
		return nil, fmt.Errorf("container tree root cannot be nil")
	}

	refs := map[string]Reference{}
	if err := w.writeGroup("", root, refs); err != nil {
		return nil, err
	}
	return refs, nil
}

func (w *ZarrWriter) writeGroup(prefix string, g *Group, refs map[string]Reference) error {
	p := joinStorePath(prefix, g.Name)

	if err := w.putJSON(storeKey(p, zarr.MTGroup), zarr.Group{ZarrFormat: zarrFormat}); err != nil {
		return utils.WrapError(fmt.Sprintf("write group %q", g.Name), err)
	}

	attrs := zarr.Attributes{}
	for k, v := range g.Attrs {
		attrs[k] = v
	}
	w.attrs[p] = attrs
	if len(attrs) > 0 {
		if err := w.putAttrs(p); err != nil {
			return utils.WrapError(fmt.Sprintf("write group %q attributes", g.Name), err)
		}
	}

	for _, ds := range g.Datasets {
		if err := w.writeDataset(p, ds, refs); err != nil {
			return err
		}
	}
	for _, child := range g.Groups {
		if err := w.writeGroup(p, child, refs); err != nil {
			return err
		}
	}
	return nil
}

func (w *ZarrWriter) writeDataset(prefix string, ds *Dataset, refs map[string]Reference) error {
	if _, dup := refs[ds.Name]; dup {
		return fmt.Errorf("duplicate dataset name %q in container tree", ds.Name)
	}

	rows, cols, err := normalizeShape(ds.Shape)
	if err != nil {
		return utils.WrapError(fmt.Sprintf("dataset %q", ds.Name), err)
	}

	length, elemSize, dt, err := payloadInfo(ds.Data)
	if err != nil {
		return utils.WrapError(fmt.Sprintf("dataset %q", ds.Name), err)
	}
	if length != rows*cols {
		return fmt.Errorf("%w: dataset %q has %d elements for shape [%d %d]",
			ErrPayloadShape, ds.Name, length, rows, cols)
	}

	chunkRows := w.opts.chunkRows
	if chunkRows < 1 || chunkRows > rows {
		chunkRows = rows
	}

	p := joinStorePath(prefix, ds.Name)
	// Pointer throughout: StructuredType marshals as a numpy typestr
	// only through its pointer receiver.
	meta := &zarr.ArrayMeta{
		ZarrFormat: zarrFormat,
		Shape:      []int{rows, cols},
		Chunks:     [2]int{chunkRows, cols},
		Dtype:      zarr.StructuredType{Dtype: dt},
		Compressor: zarr.CompressionMeta{ID: "zlib", Clevel: w.opts.level},
		Order:      "C",
	}
	if err := w.putJSON(storeKey(p, zarr.MTArray), meta); err != nil {
		return utils.WrapError(fmt.Sprintf("write dataset %q metadata", ds.Name), err)
	}
	w.metas[storeKey(p, zarr.MTArray)] = meta

	attrs := zarr.Attributes{}
	for k, v := range ds.Attrs {
		attrs[k] = v
	}
	w.attrs[p] = attrs
	if len(attrs) > 0 {
		if err := w.putAttrs(p); err != nil {
			return utils.WrapError(fmt.Sprintf("write dataset %q attributes", ds.Name), err)
		}
	}

	if err := w.writeChunks(p, ds.Data, rows, cols, chunkRows, elemSize); err != nil {
		return utils.WrapError(fmt.Sprintf("write dataset %q chunks", ds.Name), err)
	}

	refs[ds.Name] = Reference("/" + p)
	return nil
}

// writeChunks splits the payload along the leading dimension. Edge
// chunks are padded to the full chunk size with zero bytes, per the
// zarr v2 storage spec.
func (w *ZarrWriter) writeChunks(p string, data any, rows, cols, chunkRows, elemSize int) error {
	raw, err := encodePayload(data)
	if err != nil {
		return err
	}

	chunkBytes, err := utils.ByteSize(chunkRows*cols, elemSize)
	if err != nil {
		return err
	}

	grid := (rows + chunkRows - 1) / chunkRows
	for i := 0; i < grid; i++ {
		lo := i * chunkBytes
		hi := lo + chunkBytes
		if hi > len(raw) {
			hi = len(raw)
		}

		block := raw[lo:hi]
		if len(block) < chunkBytes {
			padded := make([]byte, chunkBytes)
			copy(padded, block)
			block = padded
		}

		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, w.opts.level)
		if err != nil {
			return err
		}
		if _, err := zw.Write(block); err != nil {
			_ = zw.Close()
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}

		key := p + "/" + fmt.Sprintf("%d.0", i)
		if err := w.store.Put(key, &buf); err != nil {
			return err
		}
	}
	return nil
}

// AttachReferences records refs as attributes on the object identified
// by main, rewriting its ".zattrs" document. Zarr has no native object
// references, so the attribute values are absolute store paths.
func (w *ZarrWriter) AttachReferences(main Reference, refs map[string]Reference) error {
	if w.closed {
		return ErrWriterClosed
	}

	p := strings.TrimPrefix(string(main), "/")
	attrs, ok := w.attrs[p]
	if !ok {
		return fmt.Errorf("%w: no object at %q", ErrLinkTarget, main)
	}

	for name, ref := range refs {
		attrs[name] = string(ref)
	}
	return w.putAttrs(p)
}

// Close writes the consolidated metadata document and releases the
// store. Safe to call once; later calls fail with ErrWriterClosed.
func (w *ZarrWriter) Close() error {
	if w.closed {
		return ErrWriterClosed
	}
	w.closed = true

	// Consolidate array metadata and attributes the way
	// zarr.consolidate_metadata does, so readers can open the store
	// with a single fetch.
	consolidated := zarr.ConsolidatedMetadata{
		ConsolidatedFormat: 1,
		Metadata:           map[string]zarr.MetaTyper{},
	}
	for key, meta := range w.metas {
		consolidated.Metadata[key] = meta
	}
	for p, attrs := range w.attrs {
		if len(attrs) > 0 {
			consolidated.Metadata[storeKey(p, zarr.MTAttributes)] = attrs
		}
	}

	if err := w.putJSON(string(zarr.MTMetadata), consolidated); err != nil {
		return utils.WrapError("write consolidated metadata", err)
	}
	w.store = nil
	return nil
}

// putJSON stores a JSON document under key.
func (w *ZarrWriter) putJSON(key string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return err
	}
	return w.store.Put(key, bytes.NewReader(data))
}

func (w *ZarrWriter) putAttrs(p string) error {
	return w.putJSON(storeKey(p, zarr.MTAttributes), w.attrs[p])
}

// storeKey joins an object path with a metadata key name.
func storeKey(p string, mt zarr.MetaType) string {
	if p == "" {
		return string(mt)
	}
	return p + "/" + string(mt)
}

// joinStorePath joins store path segments, tolerating the empty root
// name.
func joinStorePath(prefix, name string) string {
	switch {
	case prefix == "":
		return name
	case name == "":
		return prefix
	default:
		return prefix + "/" + name
	}
}

// normalizeShape reduces a rank-1 or rank-2 dataset shape to leading and
// trailing extents.
func normalizeShape(shape []int) (rows, cols int, err error) {
	switch len(shape) {
	case 1:
		return shape[0], 1, nil
	case 2:
		return shape[0], shape[1], nil
	default:
		return 0, 0, fmt.Errorf("unsupported dataset rank %d (want 1 or 2)", len(shape))
	}
}

// dirStore is a zarr.Store over a filesystem directory. It replaces the
// upstream LocalStore, which creates directories with 0644 permission
// bits and cannot be written into by unprivileged processes.
type dirStore struct {
	base string
}

var _ zarr.Store = (*dirStore)(nil)

func newDirStore(base string) (*dirStore, error) {
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &dirStore{base: base}, nil
}

func (s *dirStore) Type() string { return "DirectoryStore" }

func (s *dirStore) Get(key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.base, filepath.FromSlash(key)))
}

func (s *dirStore) Put(key string, val io.Reader) error {
	path := filepath.Join(s.base, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, val); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Keys lists every object key in the store, relative to its base, in
// lexical walk order. Supports container dumps and tree walks; stores
// without listing (zarr.MemoryStore) do not implement this.
func (s *dirStore) Keys() ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.base, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.base, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
