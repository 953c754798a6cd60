package channel

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// DefaultCompressThreshold is the encoded size above which frames are
// compressed.
const DefaultCompressThreshold = 64 * 1024

// Codec turns messages into frames. Frames larger than the threshold are
// zstd-compressed; smaller ones stay plain JSON.
type Codec struct {
	threshold int
	enc       *zstd.Encoder
	dec       *zstd.Decoder
}

// NewCodec creates a codec. A threshold <= 0 disables compression.
func NewCodec(threshold int) (*Codec, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &Codec{threshold: threshold, enc: enc, dec: dec}, nil
}

// Encode marshals v and reports whether the frame was compressed.
func (c *Codec) Encode(v interface{}) ([]byte, bool, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false, err
	}
	if c.threshold <= 0 || len(data) <= c.threshold {
		return data, false, nil
	}
	return c.enc.EncodeAll(data, make([]byte, 0, len(data)/2)), true, nil
}

// Decode unmarshals a frame into v.
func (c *Codec) Decode(frame []byte, compressed bool, v interface{}) error {
	if compressed {
		data, err := c.dec.DecodeAll(frame, nil)
		if err != nil {
			return fmt.Errorf("decompressing frame: %w", err)
		}
		frame = data
	}
	return json.Unmarshal(frame, v)
}

// Close releases the encoder and decoder.
func (c *Codec) Close() {
	c.enc.Close()
	c.dec.Close()
}
