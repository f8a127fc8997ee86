package file

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var npyMagic = []byte("\x93NUMPY")

// npyHeaderAlign is the total header size multiple required by NumPy.
const npyHeaderAlign = 64

var (
	errNPYFormat = errors.New("invalid npy file")

	descrPattern   = regexp.MustCompile(`'descr':\s*'([^']+)'`)
	fortranPattern = regexp.MustCompile(`'fortran_order':\s*(True|False)`)
	shapePattern   = regexp.MustCompile(`'shape':\s*\(([^)]*)\)`)
)

// writeNPY encodes a row-major float32 matrix as a NumPy v1.0 array.
func writeNPY(w io.Writer, rows [][]float32) error {
	n := len(rows)
	d := 0
	if n > 0 {
		d = len(rows[0])
	}

	header := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", n, d)
	// magic(6) + version(2) + header length(2) + header + newline
	total := len(npyMagic) + 4 + len(header) + 1
	if pad := total % npyHeaderAlign; pad != 0 {
		header += strings.Repeat(" ", npyHeaderAlign-pad)
	}
	header += "\n"

	var buf bytes.Buffer
	buf.Grow(len(npyMagic) + 4 + len(header) + n*d*4)
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)

	var word [4]byte
	for i, row := range rows {
		if len(row) != d {
			return fmt.Errorf("row %d has %d columns, expected %d", i, len(row), d)
		}
		for _, f := range row {
			binary.LittleEndian.PutUint32(word[:], math.Float32bits(f))
			buf.Write(word[:])
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// readNPY decodes a two-dimensional little-endian float32 or float64 array
// in C order. Float64 data is narrowed to float32.
func readNPY(data []byte) ([][]float32, error) {
	if len(data) < 10 || !bytes.Equal(data[:6], npyMagic) {
		return nil, fmt.Errorf("%w: bad magic", errNPYFormat)
	}

	major := data[6]
	var headerLen, offset int
	switch major {
	case 1:
		headerLen = int(binary.LittleEndian.Uint16(data[8:10]))
		offset = 10
	case 2, 3:
		if len(data) < 12 {
			return nil, fmt.Errorf("%w: truncated header", errNPYFormat)
		}
		headerLen = int(binary.LittleEndian.Uint32(data[8:12]))
		offset = 12
	default:
		return nil, fmt.Errorf("%w: unsupported version %d", errNPYFormat, major)
	}
	if len(data) < offset+headerLen {
		return nil, fmt.Errorf("%w: truncated header", errNPYFormat)
	}
	header := string(data[offset : offset+headerLen])
	body := data[offset+headerLen:]

	descr := descrPattern.FindStringSubmatch(header)
	if descr == nil {
		return nil, fmt.Errorf("%w: missing descr", errNPYFormat)
	}
	var width int
	switch descr[1] {
	case "<f4":
		width = 4
	case "<f8":
		width = 8
	default:
		return nil, fmt.Errorf("%w: unsupported dtype %s", errNPYFormat, descr[1])
	}

	if m := fortranPattern.FindStringSubmatch(header); m == nil || m[1] != "False" {
		return nil, fmt.Errorf("%w: only C order is supported", errNPYFormat)
	}

	n, d, err := parseShape(header)
	if err != nil {
		return nil, err
	}
	if len(body) != n*d*width {
		return nil, fmt.Errorf("%w: expected %d data bytes, found %d", errNPYFormat, n*d*width, len(body))
	}

	rows := make([][]float32, n)
	for i := range rows {
		row := make([]float32, d)
		for j := range row {
			p := (i*d + j) * width
			if width == 4 {
				row[j] = math.Float32frombits(binary.LittleEndian.Uint32(body[p:]))
			} else {
				row[j] = float32(math.Float64frombits(binary.LittleEndian.Uint64(body[p:])))
			}
		}
		rows[i] = row
	}
	return rows, nil
}

func parseShape(header string) (int, int, error) {
	m := shapePattern.FindStringSubmatch(header)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: missing shape", errNPYFormat)
	}

	var dims []int
	for _, part := range strings.Split(m[1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 {
			return 0, 0, fmt.Errorf("%w: bad shape %q", errNPYFormat, m[1])
		}
		dims = append(dims, v)
	}

	switch len(dims) {
	case 2:
		return dims[0], dims[1], nil
	case 1:
		// (0,) is how numpy saves an empty matrix.
		if dims[0] == 0 {
			return 0, 0, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: expected a 2-d array, shape (%s)", errNPYFormat, m[1])
}
