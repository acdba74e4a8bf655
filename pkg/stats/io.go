package stats

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Binary format version and magic bytes for persisted statistics.
var statsMagic = [4]byte{'A', 'V', 'S', 'T'}

const statsVersion uint32 = 1

// statsRows is fixed: row 0 mean, row 1 scale.
const statsRows = 2

// Save serializes the statistics to w.
//
// Format:
//
//	[4B magic "AVST"] [4B version]
//	[4B rows=2] [4B cols]
//	[rows × cols × 4B float32 payload, row-major]
func (st *Stats) Save(w io.Writer) error {
	if len(st.Mean) == 0 || len(st.Mean) != len(st.Scale) {
		return fmt.Errorf("stats: malformed statistics (%d means, %d scales)", len(st.Mean), len(st.Scale))
	}

	bw := bufio.NewWriter(w)

	le := binary.LittleEndian
	write := func(v any) error { return binary.Write(bw, le, v) }

	if _, err := bw.Write(statsMagic[:]); err != nil {
		return fmt.Errorf("stats: save magic: %w", err)
	}
	if err := write(statsVersion); err != nil {
		return fmt.Errorf("stats: save version: %w", err)
	}
	if err := write(uint32(statsRows)); err != nil {
		return err
	}
	if err := write(uint32(len(st.Mean))); err != nil {
		return err
	}
	for _, v := range st.Mean {
		if err := write(v); err != nil {
			return err
		}
	}
	for _, v := range st.Scale {
		if err := write(v); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Load deserializes statistics written by Save. The round trip is
// bit-for-bit: float32 values pass through untouched.
func Load(r io.Reader) (*Stats, error) {
	br := bufio.NewReader(r)

	le := binary.LittleEndian
	read := func(v any) error { return binary.Read(br, le, v) }

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("stats: load magic: %w", err)
	}
	if magic != statsMagic {
		return nil, fmt.Errorf("stats: invalid magic %q", magic[:])
	}

	var version uint32
	if err := read(&version); err != nil {
		return nil, fmt.Errorf("stats: load version: %w", err)
	}
	if version != statsVersion {
		return nil, fmt.Errorf("stats: unsupported version %d (want %d)", version, statsVersion)
	}

	var rows, cols uint32
	if err := read(&rows); err != nil {
		return nil, err
	}
	if rows != statsRows {
		return nil, fmt.Errorf("stats: unexpected row count %d (want %d)", rows, statsRows)
	}
	if err := read(&cols); err != nil {
		return nil, err
	}
	if cols == 0 {
		return nil, fmt.Errorf("stats: invalid column count 0")
	}

	st := &Stats{
		Mean:  make([]float32, cols),
		Scale: make([]float32, cols),
	}
	for i := range st.Mean {
		if err := read(&st.Mean[i]); err != nil {
			return nil, fmt.Errorf("stats: load payload: %w", err)
		}
	}
	for i := range st.Scale {
		if err := read(&st.Scale[i]); err != nil {
			return nil, fmt.Errorf("stats: load payload: %w", err)
		}
	}
	return st, nil
}
