package vectorindex

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
)

// FormatVersion is the current encoding version.
const FormatVersion = 1

var magic = [4]byte{'S', 'W', 'V', 'I'}

// headerSize is magic + version + manifest length.
const headerSize = 4 + 4 + 4

// manifest describes the payload that follows it.
type manifest struct {
	Generation string    `json:"generation"`
	CreatedAt  time.Time `json:"created_at"`
	ModelID    string    `json:"model_id"`
	Dim        int       `json:"dim"`
	Count      int       `json:"count"`
	Normalized bool      `json:"normalized"`
}

// Encode serialises a generation.
//
// Layout: magic "SWVI" | uint32 version | uint32 manifest length | manifest
// JSON | per entry in position order: uint16 id length, id bytes, dim
// little-endian float32 values. All integers are little-endian.
func Encode(idx *Index) ([]byte, error) {
	m := manifest{
		Generation: idx.generation,
		CreatedAt:  idx.createdAt,
		ModelID:    idx.modelID,
		Dim:        idx.dim,
		Count:      len(idx.ids),
		Normalized: true,
	}
	mb, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(headerSize + len(mb) + len(idx.ids)*(2+idx.dim*4))
	buf.Write(magic[:])
	writeUint32(&buf, FormatVersion)
	writeUint32(&buf, uint32(len(mb)))
	buf.Write(mb)

	scratch := make([]byte, 4)
	for pos, id := range idx.ids {
		if len(id) > math.MaxUint16 {
			return nil, fmt.Errorf("%w: source id at position %d is too long", domain.ErrInvalidInput, pos)
		}
		binary.LittleEndian.PutUint16(scratch[:2], uint16(len(id)))
		buf.Write(scratch[:2])
		buf.WriteString(id)
		for _, f := range idx.vector(pos) {
			binary.LittleEndian.PutUint32(scratch, math.Float32bits(f))
			buf.Write(scratch)
		}
	}
	return buf.Bytes(), nil
}

// Decode restores a generation written by Encode. Any inconsistency between
// the manifest and the payload fails with domain.ErrCorruptIndex.
func Decode(data []byte) (*Index, error) {
	m, mlen, err := readManifest(data)
	if err != nil {
		return nil, err
	}
	if m.Dim <= 0 {
		return nil, corrupt("invalid dim %d", m.Dim)
	}
	if m.Count <= 0 {
		return nil, corrupt("invalid entry count %d", m.Count)
	}
	if !m.Normalized {
		return nil, corrupt("vectors are not normalised")
	}

	body := data[headerSize+mlen:]
	if m.Dim > len(body)/4 || m.Count > len(body)/2 {
		return nil, corrupt("declared %d entries of dim %d do not fit %d bytes", m.Count, m.Dim, len(body))
	}
	// Every entry needs at least its length prefix and vector.
	if minSize := m.Count * (2 + m.Dim*4); len(body) < minSize {
		return nil, corrupt("payload has %d bytes, %d entries of dim %d need at least %d", len(body), m.Count, m.Dim, minSize)
	}

	idx := &Index{
		generation: m.Generation,
		createdAt:  m.CreatedAt,
		modelID:    m.ModelID,
		dim:        m.Dim,
		ids:        make([]string, m.Count),
		vectors:    make([]float32, m.Count*m.Dim),
	}
	seen := make(map[string]struct{}, m.Count)
	off := 0
	for pos := 0; pos < m.Count; pos++ {
		if len(body)-off < 2 {
			return nil, corrupt("entry %d truncated", pos)
		}
		n := int(binary.LittleEndian.Uint16(body[off:]))
		off += 2
		if n == 0 || len(body)-off < n+m.Dim*4 {
			return nil, corrupt("entry %d truncated", pos)
		}
		id := string(body[off : off+n])
		off += n
		if _, dup := seen[id]; dup {
			return nil, corrupt("duplicate source id %q", id)
		}
		seen[id] = struct{}{}
		idx.ids[pos] = id

		vec := idx.vectors[pos*m.Dim : (pos+1)*m.Dim]
		for i := range vec {
			vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[off:]))
			off += 4
		}
	}
	if off != len(body) {
		return nil, corrupt("%d trailing bytes after %d entries", len(body)-off, m.Count)
	}
	return idx, nil
}

// GenerationOf returns the generation id of an encoded index without
// decoding its vectors.
func GenerationOf(data []byte) (string, error) {
	m, _, err := readManifest(data)
	if err != nil {
		return "", err
	}
	return m.Generation, nil
}

func readManifest(data []byte) (manifest, int, error) {
	var m manifest
	if len(data) < headerSize {
		return m, 0, corrupt("payload is %d bytes, shorter than the header", len(data))
	}
	if !bytes.Equal(data[:4], magic[:]) {
		return m, 0, corrupt("bad magic %q", data[:4])
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != FormatVersion {
		return m, 0, corrupt("unsupported format version %d", v)
	}
	mlen := int(binary.LittleEndian.Uint32(data[8:12]))
	if mlen > len(data)-headerSize {
		return m, 0, corrupt("manifest length %d exceeds payload", mlen)
	}
	if err := json.Unmarshal(data[headerSize:headerSize+mlen], &m); err != nil {
		return m, 0, corrupt("invalid manifest: %v", err)
	}
	return m, mlen, nil
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrCorruptIndex, fmt.Sprintf(format, args...))
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
