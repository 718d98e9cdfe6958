package propstore

import (
	"encoding/binary"
	"math"

	"github.com/cuemby/graphd/pkg/graph"
)

// encode serializes v into a self-delimiting byte slice that decode can
// read back without any external length, so the same format works both
// inside a length-prefixed top-level record and nested inside a List or
// Map value.
func encode(v graph.PropertyValue) ([]byte, error) {
	switch v.Kind {
	case graph.KindNull:
		return []byte{byte(graph.KindNull)}, nil
	case graph.KindBool:
		b := byte(0)
		if v.Bool {
			b = 1
		}
		return []byte{byte(graph.KindBool), b}, nil
	case graph.KindI64:
		buf := make([]byte, 9)
		buf[0] = byte(graph.KindI64)
		binary.LittleEndian.PutUint64(buf[1:], uint64(v.I64))
		return buf, nil
	case graph.KindF64:
		buf := make([]byte, 9)
		buf[0] = byte(graph.KindF64)
		binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(v.F64))
		return buf, nil
	case graph.KindString:
		return encodeBytesLike(graph.KindString, []byte(v.Str)), nil
	case graph.KindBytes:
		return encodeBytesLike(graph.KindBytes, v.Bytes), nil
	case graph.KindVector:
		buf := make([]byte, 5+4*len(v.Vector))
		buf[0] = byte(graph.KindVector)
		binary.LittleEndian.PutUint32(buf[1:5], uint32(len(v.Vector)))
		for i, f := range v.Vector {
			binary.LittleEndian.PutUint32(buf[5+4*i:9+4*i], math.Float32bits(f))
		}
		return buf, nil
	case graph.KindPoint:
		buf := make([]byte, 26)
		buf[0] = byte(graph.KindPoint)
		if v.Point.Is3D {
			buf[1] = 1
		}
		binary.LittleEndian.PutUint64(buf[2:10], math.Float64bits(v.Point.X))
		binary.LittleEndian.PutUint64(buf[10:18], math.Float64bits(v.Point.Y))
		binary.LittleEndian.PutUint64(buf[18:26], math.Float64bits(v.Point.Z))
		return buf, nil
	case graph.KindList:
		buf := []byte{byte(graph.KindList), 0, 0, 0, 0}
		binary.LittleEndian.PutUint32(buf[1:5], uint32(len(v.List)))
		for _, item := range v.List {
			enc, err := encode(item)
			if err != nil {
				return nil, err
			}
			lenBuf := make([]byte, 4)
			binary.LittleEndian.PutUint32(lenBuf, uint32(len(enc)))
			buf = append(buf, lenBuf...)
			buf = append(buf, enc...)
		}
		return buf, nil
	case graph.KindMap:
		buf := []byte{byte(graph.KindMap), 0, 0, 0, 0}
		binary.LittleEndian.PutUint32(buf[1:5], uint32(len(v.Map)))
		for k, item := range v.Map {
			keyBuf := make([]byte, 2)
			binary.LittleEndian.PutUint16(keyBuf, uint16(len(k)))
			buf = append(buf, keyBuf...)
			buf = append(buf, []byte(k)...)

			enc, err := encode(item)
			if err != nil {
				return nil, err
			}
			lenBuf := make([]byte, 4)
			binary.LittleEndian.PutUint32(lenBuf, uint32(len(enc)))
			buf = append(buf, lenBuf...)
			buf = append(buf, enc...)
		}
		return buf, nil
	default:
		return nil, graph.New(graph.ErrTypeMismatch, "cannot store %s as a property value", v.TypeName())
	}
}

func encodeBytesLike(kind graph.Kind, data []byte) []byte {
	buf := make([]byte, 5+len(data))
	buf[0] = byte(kind)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(len(data)))
	copy(buf[5:], data)
	return buf
}

// decode reads one self-delimiting value from the front of data and
// returns it along with the number of bytes consumed.
func decode(data []byte) (graph.PropertyValue, int, error) {
	if len(data) == 0 {
		return graph.PropertyValue{}, 0, graph.New(graph.ErrStorage, "decode property: empty buffer")
	}
	kind := graph.Kind(data[0])
	switch kind {
	case graph.KindNull:
		return graph.Null(), 1, nil
	case graph.KindBool:
		return graph.Bool(data[1] != 0), 2, nil
	case graph.KindI64:
		return graph.I64(int64(binary.LittleEndian.Uint64(data[1:9]))), 9, nil
	case graph.KindF64:
		return graph.F64(math.Float64frombits(binary.LittleEndian.Uint64(data[1:9]))), 9, nil
	case graph.KindString:
		n := int(binary.LittleEndian.Uint32(data[1:5]))
		return graph.Str(string(data[5 : 5+n])), 5 + n, nil
	case graph.KindBytes:
		n := int(binary.LittleEndian.Uint32(data[1:5]))
		out := make([]byte, n)
		copy(out, data[5:5+n])
		return graph.Bytes(out), 5 + n, nil
	case graph.KindVector:
		n := int(binary.LittleEndian.Uint32(data[1:5]))
		vec := make([]float32, n)
		for i := 0; i < n; i++ {
			off := 5 + 4*i
			vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
		}
		return graph.Vector(vec), 5 + 4*n, nil
	case graph.KindPoint:
		p := graph.Point{
			Is3D: data[1] != 0,
			X:    math.Float64frombits(binary.LittleEndian.Uint64(data[2:10])),
			Y:    math.Float64frombits(binary.LittleEndian.Uint64(data[10:18])),
			Z:    math.Float64frombits(binary.LittleEndian.Uint64(data[18:26])),
		}
		return graph.PropertyValue{Kind: graph.KindPoint, Point: p}, 26, nil
	case graph.KindList:
		count := int(binary.LittleEndian.Uint32(data[1:5]))
		pos := 5
		items := make([]graph.PropertyValue, 0, count)
		for i := 0; i < count; i++ {
			itemLen := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
			pos += 4
			item, _, err := decode(data[pos : pos+itemLen])
			if err != nil {
				return graph.PropertyValue{}, 0, err
			}
			items = append(items, item)
			pos += itemLen
		}
		return graph.List(items), pos, nil
	case graph.KindMap:
		count := int(binary.LittleEndian.Uint32(data[1:5]))
		pos := 5
		m := make(map[string]graph.PropertyValue, count)
		for i := 0; i < count; i++ {
			keyLen := int(binary.LittleEndian.Uint16(data[pos : pos+2]))
			pos += 2
			key := string(data[pos : pos+keyLen])
			pos += keyLen

			valLen := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
			pos += 4
			val, _, err := decode(data[pos : pos+valLen])
			if err != nil {
				return graph.PropertyValue{}, 0, err
			}
			m[key] = val
			pos += valLen
		}
		return graph.Map(m), pos, nil
	default:
		return graph.PropertyValue{}, 0, graph.New(graph.ErrStorage, "decode property: unknown kind tag %d", kind)
	}
}
