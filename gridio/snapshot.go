package gridio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/samherniman/foster/blobstore"
	"github.com/samherniman/foster/codec"
	"github.com/samherniman/foster/grid"
)

var magic = [8]byte{'F', 'S', 'T', 'G', 'R', 'D', 0, 1}

// header describes a snapshot; it is stored codec-encoded right after the
// magic. The codec name is fixed to codec.Default's name on write so readers
// can pick the right decoder.
type header struct {
	Codec       string   `json:"codec"`
	Compression string   `json:"compression"`
	Rows        int      `json:"rows"`
	Cols        int      `json:"cols"`
	OriginX     float64  `json:"origin_x"`
	OriginY     float64  `json:"origin_y"`
	Resolution  float64  `json:"resolution"`
	Bands       []string `json:"bands"`
}

// Options contains configuration options for writing snapshots.
type Options struct {
	// Compression applied to each band payload.
	Compression Compression

	// Codec encodes the snapshot header. Nil uses codec.Default.
	Codec codec.Codec
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{
	Compression: CompressionLZ4,
	Codec:       nil,
}

// Write serializes a grid, all bands in insertion order.
func Write(w io.Writer, g *grid.Grid, optFns ...func(o *Options)) error {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}

	originX, originY := g.Origin()
	hdr := header{
		Codec:       opts.Codec.Name(),
		Compression: string(opts.Compression),
		Rows:        g.Rows(),
		Cols:        g.Cols(),
		OriginX:     originX,
		OriginY:     originY,
		Resolution:  g.Resolution(),
		Bands:       g.Bands(),
	}

	hdrBytes, err := opts.Codec.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("gridio: encode header: %w", err)
	}

	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(hdrBytes))); err != nil {
		return err
	}
	if _, err := w.Write(hdrBytes); err != nil {
		return err
	}

	raw := make([]byte, g.Size()*8)
	for _, name := range hdr.Bands {
		data, err := g.Band(name)
		if err != nil {
			return err
		}
		for i, v := range data {
			binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
		}

		payload, err := compress(opts.Compression, raw)
		if err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint64(len(payload))); err != nil {
			return err
		}
		if _, err := w.Write(payload); err != nil {
			return err
		}
	}

	return nil
}

// Read deserializes a snapshot written by Write.
func Read(r io.Reader) (*grid.Grid, error) {
	var m [8]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		return nil, fmt.Errorf("gridio: read magic: %w", err)
	}
	if m != magic {
		return nil, fmt.Errorf("gridio: bad magic %q", m)
	}

	var hdrLen uint32
	if err := binary.Read(r, binary.LittleEndian, &hdrLen); err != nil {
		return nil, err
	}
	hdrBytes := make([]byte, hdrLen)
	if _, err := io.ReadFull(r, hdrBytes); err != nil {
		return nil, err
	}

	// The header self-describes its codec; peek with the default first.
	var hdr header
	if err := codec.Default.Unmarshal(hdrBytes, &hdr); err != nil {
		return nil, fmt.Errorf("gridio: decode header: %w", err)
	}
	if hdr.Codec != codec.Default.Name() {
		c, ok := codec.ByName(hdr.Codec)
		if !ok {
			return nil, fmt.Errorf("gridio: unknown header codec %q", hdr.Codec)
		}
		if err := c.Unmarshal(hdrBytes, &hdr); err != nil {
			return nil, fmt.Errorf("gridio: decode header: %w", err)
		}
	}

	g, err := grid.New(hdr.Rows, hdr.Cols, func(o *grid.Options) {
		o.OriginX = hdr.OriginX
		o.OriginY = hdr.OriginY
		o.Resolution = hdr.Resolution
	})
	if err != nil {
		return nil, err
	}

	rawLen := hdr.Rows * hdr.Cols * 8
	// Length prefixes come from the wire; never let a corrupt one drive
	// allocation. Compressed payloads can only exceed the raw size by framing
	// overhead.
	maxPayload := uint64(rawLen) + uint64(rawLen)/8 + 4096
	for _, name := range hdr.Bands {
		var payloadLen uint64
		if err := binary.Read(r, binary.LittleEndian, &payloadLen); err != nil {
			return nil, fmt.Errorf("gridio: band %q: %w", name, err)
		}
		if payloadLen > maxPayload {
			return nil, fmt.Errorf("gridio: band %q payload length %d exceeds limit %d", name, payloadLen, maxPayload)
		}
		payload := make([]byte, payloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("gridio: band %q: %w", name, err)
		}

		raw, err := decompress(Compression(hdr.Compression), payload, rawLen)
		if err != nil {
			return nil, fmt.Errorf("gridio: band %q: %w", name, err)
		}
		if len(raw) != rawLen {
			return nil, fmt.Errorf("gridio: band %q has %d bytes, want %d", name, len(raw), rawLen)
		}

		data := make([]float64, hdr.Rows*hdr.Cols)
		for i := range data {
			data[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
		}
		if err := g.AddBand(name, data); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// Save writes a snapshot into a blob store under the given name.
func Save(ctx context.Context, store blobstore.BlobStore, name string, g *grid.Grid, optFns ...func(o *Options)) error {
	var buf bytes.Buffer
	if err := Write(&buf, g, optFns...); err != nil {
		return err
	}
	return store.Put(ctx, name, &buf)
}

// Load reads a snapshot back from a blob store.
func Load(ctx context.Context, store blobstore.BlobStore, name string) (*grid.Grid, error) {
	rc, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Read(rc)
}
