package usid

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	zarr "github.com/qri-io/zarr-go"
)

// payloadInfo reports the element count, element byte size and zarr dtype
// of a supported flat payload slice.
func payloadInfo(data any) (length, elemSize int, dt zarr.Dtype, err error) {
	switch v := data.(type) {
	case []uint8:
		return len(v), 1, byteType(zarr.BTUnsigned, 1), nil
	case []int8:
		return len(v), 1, byteType(zarr.BTInteger, 1), nil
	case []uint16:
		return len(v), 2, byteType(zarr.BTUnsigned, 2), nil
	case []int16:
		return len(v), 2, byteType(zarr.BTInteger, 2), nil
	case []uint32:
		return len(v), 4, byteType(zarr.BTUnsigned, 4), nil
	case []int32:
		return len(v), 4, byteType(zarr.BTInteger, 4), nil
	case []uint64:
		return len(v), 8, byteType(zarr.BTUnsigned, 8), nil
	case []int64:
		return len(v), 8, byteType(zarr.BTInteger, 8), nil
	case []float32:
		return len(v), 4, byteType(zarr.BTFloatingPoint, 4), nil
	case []float64:
		return len(v), 8, byteType(zarr.BTFloatingPoint, 8), nil
	default:
		return 0, 0, dt, fmt.Errorf("%w: %T", ErrDtype, data)
	}
}

// byteType builds a little-endian zarr dtype. Single-byte types carry the
// "not relevant" byte-order marker per the numpy typestr convention.
func byteType(bt zarr.BasicType, size int) zarr.Dtype {
	order := zarr.BOLittleEndian
	if size == 1 {
		order = zarr.BONotRelevant
	}
	return zarr.Dtype{
		ByteOrder: order,
		BasicType: bt,
		ByteSize:  size,
	}
}

// dtypeByName resolves a Go-style element type name ("float32",
// "uint16", ...) to its little-endian zarr dtype.
func dtypeByName(name string) (zarr.Dtype, error) {
	switch name {
	case "uint8":
		return byteType(zarr.BTUnsigned, 1), nil
	case "int8":
		return byteType(zarr.BTInteger, 1), nil
	case "uint16":
		return byteType(zarr.BTUnsigned, 2), nil
	case "int16":
		return byteType(zarr.BTInteger, 2), nil
	case "uint32":
		return byteType(zarr.BTUnsigned, 4), nil
	case "int32":
		return byteType(zarr.BTInteger, 4), nil
	case "uint64":
		return byteType(zarr.BTUnsigned, 8), nil
	case "int64":
		return byteType(zarr.BTInteger, 8), nil
	case "float32":
		return byteType(zarr.BTFloatingPoint, 4), nil
	case "float64":
		return byteType(zarr.BTFloatingPoint, 8), nil
	default:
		return zarr.Dtype{}, fmt.Errorf("%w: %q", ErrDtype, name)
	}
}

// makeSlice allocates a flat payload slice of n elements matching dt.
func makeSlice(dt zarr.Dtype, n int) (any, error) {
	switch dt.BasicType {
	case zarr.BTUnsigned:
		switch dt.ByteSize {
		case 1:
			return make([]uint8, n), nil
		case 2:
			return make([]uint16, n), nil
		case 4:
			return make([]uint32, n), nil
		case 8:
			return make([]uint64, n), nil
		}
	case zarr.BTInteger:
		switch dt.ByteSize {
		case 1:
			return make([]int8, n), nil
		case 2:
			return make([]int16, n), nil
		case 4:
			return make([]int32, n), nil
		case 8:
			return make([]int64, n), nil
		}
	case zarr.BTFloatingPoint:
		switch dt.ByteSize {
		case 4:
			return make([]float32, n), nil
		case 8:
			return make([]float64, n), nil
		}
	}
	return nil, fmt.Errorf("%w: dtype %s", ErrDtype, dt.String())
}

// encodePayload serializes a flat payload slice to little-endian C-order
// bytes.
func encodePayload(data any) ([]byte, error) {
	if v, ok := data.([]uint8); ok {
		out := make([]byte, len(v))
		copy(out, v)
		return out, nil
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("%w: %T (%v)", ErrDtype, data, err)
	}
	return buf.Bytes(), nil
}

// decodePayload reads n little-endian elements of dtype dt from r.
func decodePayload(r io.Reader, dt zarr.Dtype, n int) (any, error) {
	out, err := makeSlice(dt, n)
	if err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return nil, err
	}
	return out, nil
}
