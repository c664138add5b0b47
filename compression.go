package staticdata

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"

	"github.com/goforj/staticdata/staticcore"
)

// CompressionCodec represents a value compression algorithm.
type CompressionCodec = staticcore.CompressionCodec

const (
	CompressionNone   = staticcore.CompressionNone
	CompressionGzip   = staticcore.CompressionGzip
	CompressionSnappy = staticcore.CompressionSnappy
)

var (
	compressMagic = []byte("SDC1")

	ErrValueTooLarge      = errors.New("staticdata: value exceeds max size")
	ErrUnsupportedCodec   = errors.New("staticdata: unsupported compression codec")
	ErrCorruptCompression = errors.New("staticdata: corrupt compressed payload")
)

func encodeValue(codec CompressionCodec, max int, value []byte) ([]byte, error) {
	if max > 0 && len(value) > max {
		return nil, ErrValueTooLarge
	}
	switch codec {
	case CompressionNone:
		return value, nil
	case CompressionGzip:
		var buf bytes.Buffer
		buf.Write(compressMagic)
		_ = buf.WriteByte('g')
		zw, _ := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
		if _, err := zw.Write(value); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		out := buf.Bytes()
		if max > 0 && len(out) > max {
			return nil, ErrValueTooLarge
		}
		return out, nil
	case CompressionSnappy:
		return nil, ErrUnsupportedCodec
	default:
		return nil, ErrUnsupportedCodec
	}
}

func decodeValue(in []byte) ([]byte, error) {
	if len(in) < len(compressMagic)+1 {
		return in, nil
	}
	if !bytes.Equal(in[:len(compressMagic)], compressMagic) {
		return in, nil
	}
	codec := in[len(compressMagic)]
	payload := in[len(compressMagic)+1:]
	switch codec {
	case 'g':
		gr, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, ErrCorruptCompression
		}
		defer gr.Close()
		out, err := io.ReadAll(gr)
		if err != nil {
			return nil, ErrCorruptCompression
		}
		return out, nil
	case 's':
		return nil, ErrUnsupportedCodec
	default:
		return nil, ErrUnsupportedCodec
	}
}
