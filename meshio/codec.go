package meshio

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/exascience/lplib/pipeline"
)

const (
	vertexRecordSize = 3*8 + 4 // 3 float64 coordinates + int32 ref
	tetRecordSize    = 4*4 + 4 // 4 int32 indices + int32 ref
	triRecordSize    = 3*4 + 4 // 3 int32 indices + int32 ref
)

func decodeVertex(rec []byte) Vertex {
	var v Vertex
	v.Coord[0] = math.Float64frombits(binary.LittleEndian.Uint64(rec[0:8]))
	v.Coord[1] = math.Float64frombits(binary.LittleEndian.Uint64(rec[8:16]))
	v.Coord[2] = math.Float64frombits(binary.LittleEndian.Uint64(rec[16:24]))
	v.Ref = int(int32(binary.LittleEndian.Uint32(rec[24:28])))
	return v
}

func encodeVertexInto(rec []byte, v Vertex) {
	binary.LittleEndian.PutUint64(rec[0:8], math.Float64bits(v.Coord[0]))
	binary.LittleEndian.PutUint64(rec[8:16], math.Float64bits(v.Coord[1]))
	binary.LittleEndian.PutUint64(rec[16:24], math.Float64bits(v.Coord[2]))
	binary.LittleEndian.PutUint32(rec[24:28], uint32(int32(v.Ref)))
}

func decodeTet(rec []byte) Tetrahedron {
	var t Tetrahedron
	for k := 0; k < 4; k++ {
		t.Idx[k] = int(int32(binary.LittleEndian.Uint32(rec[k*4 : k*4+4])))
	}
	t.Ref = int(int32(binary.LittleEndian.Uint32(rec[16:20])))
	return t
}

func encodeTetInto(rec []byte, t Tetrahedron) {
	for k := 0; k < 4; k++ {
		binary.LittleEndian.PutUint32(rec[k*4:k*4+4], uint32(int32(t.Idx[k])))
	}
	binary.LittleEndian.PutUint32(rec[16:20], uint32(int32(t.Ref)))
}

func decodeTri(rec []byte) Triangle {
	var t Triangle
	for k := 0; k < 3; k++ {
		t.Idx[k] = int(int32(binary.LittleEndian.Uint32(rec[k*4 : k*4+4])))
	}
	t.Ref = int(int32(binary.LittleEndian.Uint32(rec[12:16])))
	return t
}

func encodeTriInto(rec []byte, t Triangle) {
	for k := 0; k < 3; k++ {
		binary.LittleEndian.PutUint32(rec[k*4:k*4+4], uint32(int32(t.Idx[k])))
	}
	binary.LittleEndian.PutUint32(rec[12:16], uint32(int32(t.Ref)))
}

/*
decodeBlock splits raw into fixed-size records and decodes them in
parallel through a pipeline.Par node, writing results directly into a
preallocated output slice. Because the pipeline hands batches to
receivers in parallel with no guaranteed completion order, each batch
must be able to compute its own absolute offset into the output slice
from its sequence number alone; this relies on every batch but the
last having the same size, which is exactly how Pipeline.RunWithContext
partitions a source of known size.
*/
func decodeBlock(raw []byte, recordSize int, decode func([]byte) interface{}, out interface{}, assign func(out interface{}, i int, v interface{})) error {
	n := len(raw) / recordSize
	if n == 0 {
		return nil
	}
	records := make([][]byte, n)
	for i := 0; i < n; i++ {
		records[i] = raw[i*recordSize : (i+1)*recordSize]
	}

	var p pipeline.Pipeline
	p.Source(records)
	nofBatches := p.NofBatches(0)
	batchSize := ((n - 1) / nofBatches) + 1

	p.Add(pipeline.Par(pipeline.Receive(func(seqNo int, data interface{}) interface{} {
		batch := data.([][]byte)
		offset := seqNo * batchSize
		for i, rec := range batch {
			assign(out, offset+i, decode(rec))
		}
		return nil
	})))
	p.Run()
	return p.Err(nil)
}

func decodeVertices(raw []byte) ([]Vertex, error) {
	n := len(raw) / vertexRecordSize
	out := make([]Vertex, n)
	err := decodeBlock(raw, vertexRecordSize,
		func(rec []byte) interface{} { return decodeVertex(rec) },
		out,
		func(out interface{}, i int, v interface{}) { out.([]Vertex)[i] = v.(Vertex) },
	)
	return out, err
}

func decodeTetrahedra(raw []byte) ([]Tetrahedron, error) {
	n := len(raw) / tetRecordSize
	out := make([]Tetrahedron, n)
	err := decodeBlock(raw, tetRecordSize,
		func(rec []byte) interface{} { return decodeTet(rec) },
		out,
		func(out interface{}, i int, v interface{}) { out.([]Tetrahedron)[i] = v.(Tetrahedron) },
	)
	return out, err
}

func decodeTriangles(raw []byte) ([]Triangle, error) {
	n := len(raw) / triRecordSize
	out := make([]Triangle, n)
	err := decodeBlock(raw, triRecordSize,
		func(rec []byte) interface{} { return decodeTri(rec) },
		out,
		func(out interface{}, i int, v interface{}) { out.([]Triangle)[i] = v.(Triangle) },
	)
	return out, err
}

func encodeVertices(w io.Writer, vs []Vertex) error {
	rec := make([]byte, vertexRecordSize)
	for _, v := range vs {
		encodeVertexInto(rec, v)
		if _, err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func encodeTetrahedra(w io.Writer, ts []Tetrahedron) error {
	rec := make([]byte, tetRecordSize)
	for _, t := range ts {
		encodeTetInto(rec, t)
		if _, err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func encodeTriangles(w io.Writer, ts []Triangle) error {
	rec := make([]byte, triRecordSize)
	for _, t := range ts {
		encodeTriInto(rec, t)
		if _, err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}
