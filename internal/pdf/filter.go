package pdf

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"fmt"
	"io"
)

// maxDecodedSize bounds the output of a single stream filter (256 MB).
const maxDecodedSize = 256 << 20

// decodeStream applies the filter chain of a stream object to its data.
func decodeStream(o *Object) ([]byte, error) {
	filters, _ := o.Dict.Array("Filter")
	parms, _ := o.Dict.Array("DecodeParms")

	data := o.Data
	for i, f := range filters {
		if f.Kind != Name {
			continue
		}
		var p Dict
		if i < len(parms) && parms[i].Kind == Dictionary {
			p = parms[i].Dict
		}
		var err error
		if data, err = applyFilter(f.Name, p, data); err != nil {
			return nil, fmt.Errorf("applying filter %s: %w", f.Name, err)
		}
	}
	return data, nil
}

func applyFilter(name string, parms Dict, data []byte) ([]byte, error) {
	switch name {
	case "FlateDecode", "Fl":
		return flateDecode(parms, data)
	case "ASCII85Decode", "A85":
		if end := bytes.Index(data, []byte("~>")); end >= 0 {
			data = data[:end]
		}
		return readLimited(ascii85.NewDecoder(bytes.NewReader(data)))
	case "ASCIIHexDecode", "AHx":
		if end := bytes.IndexByte(data, '>'); end >= 0 {
			data = data[:end]
		}
		return decodeHex(bytes.Join(bytes.Fields(data), nil)), nil
	}
	return nil, fmt.Errorf("unsupported filter")
}

func readLimited(r io.Reader) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, maxDecodedSize+1))
	if err != nil {
		return nil, err
	}
	if len(out) > maxDecodedSize {
		return nil, fmt.Errorf("decoded size exceeds 256 MB limit")
	}
	return out, nil
}

func flateDecode(parms Dict, data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	defer r.Close()
	out, err := readLimited(r)
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	if p, _ := parms.Int("Predictor"); p >= 10 {
		return unpredictPNG(parms, out), nil
	}
	return out, nil
}

// unpredictPNG reverses the PNG row filters used by cross-reference
// streams.
func unpredictPNG(parms Dict, data []byte) []byte {
	colors, bits, columns := int64(1), int64(8), int64(1)
	if v, ok := parms.Int("Colors"); ok && v > 0 {
		colors = v
	}
	if v, ok := parms.Int("BitsPerComponent"); ok && v > 0 {
		bits = v
	}
	if v, ok := parms.Int("Columns"); ok && v > 0 {
		columns = v
	}
	bpp := int(max((colors*bits+7)/8, 1))
	rowLen := int((columns*colors*bits + 7) / 8)
	stride := rowLen + 1
	if rowLen == 0 {
		return data
	}

	rows := len(data) / stride
	out := make([]byte, rows*rowLen)
	prev := make([]byte, rowLen)
	for r := 0; r < rows; r++ {
		src := data[r*stride+1 : (r+1)*stride]
		dst := out[r*rowLen : (r+1)*rowLen]
		for i := range dst {
			var a, c byte
			if i >= bpp {
				a, c = dst[i-bpp], prev[i-bpp]
			}
			b := prev[i]
			switch data[r*stride] {
			case 1:
				dst[i] = src[i] + a
			case 2:
				dst[i] = src[i] + b
			case 3:
				dst[i] = src[i] + byte((int(a)+int(b))/2)
			case 4:
				dst[i] = src[i] + paeth(a, b, c)
			default:
				dst[i] = src[i]
			}
		}
		copy(prev, dst)
	}
	return out
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
