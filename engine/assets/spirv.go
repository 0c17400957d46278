package assets

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

const spirvMagic = 0x07230203

// loadSPIRV reads a SPIR-V binary as little endian words.
func loadSPIRV(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read shader module %s", path)
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read shader module %s", path)
	}
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil, errors.Newf("shader module %s: size %d is not a multiple of 4", path, len(buf))
	}
	words := bytesToBytecode(buf)
	if words[0] != spirvMagic {
		return nil, errors.Newf("shader module %s: bad magic %#08x", path, words[0])
	}
	return words, nil
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteCode[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return byteCode
}
