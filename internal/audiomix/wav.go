package audiomix

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteWAV writes the mixed buffer as a PCM WAV stream in the package's
// output format, suitable as an encoder audio input.
func WriteWAV(w io.Writer, samples []int16) error {
	dataLen := uint32(len(samples) * 2)
	const headerLen = 36

	var header [44]byte
	copy(header[0:], "RIFF")
	binary.LittleEndian.PutUint32(header[4:], headerLen+dataLen)
	copy(header[8:], "WAVE")

	copy(header[12:], "fmt ")
	binary.LittleEndian.PutUint32(header[16:], 16)
	binary.LittleEndian.PutUint16(header[20:], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:], Channels)
	binary.LittleEndian.PutUint32(header[24:], SampleRate)
	binary.LittleEndian.PutUint32(header[28:], SampleRate*Channels*2)
	binary.LittleEndian.PutUint16(header[32:], Channels*2)
	binary.LittleEndian.PutUint16(header[34:], 16)

	copy(header[36:], "data")
	binary.LittleEndian.PutUint32(header[40:], dataLen)

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, samples); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}
	return nil
}
