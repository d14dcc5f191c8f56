package websocket

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// RFC 6455 opcodes this server understands.
const (
	opText   = 0x1
	opBinary = 0x2
	opClose  = 0x8
	opPing   = 0x9
	opPong   = 0xA
)

// maxPayloadSize caps inbound frames. Moves are a few dozen bytes; anything
// bigger is a broken or hostile client.
const maxPayloadSize = 64 * 1024

var (
	ErrFrameTooLarge    = errors.New("frame payload is too large")
	ErrUnsupportedFrame = errors.New("unsupported websocket frame")
)

// frame represents a WebSocket frame and its metadata.
type frame struct {
	isFin   bool
	opCode  byte
	payload []byte
}

// readFrame - reads and unmasks one complete frame. An io.EOF at the frame
// boundary is returned untouched: it means the peer went away between
// messages. Fragmented messages are rejected, every move and state fits a
// single frame.
func readFrame(reader *bufio.Reader) (frame, error) {
	header := make([]byte, 2)
	if _, err := io.ReadFull(reader, header); err != nil {
		return frame{}, err
	}

	frameData := frame{
		isFin:  header[0]&0x80 != 0,
		opCode: header[0] & 0x0f,
	}

	length := uint64(header[1] & 0x7f)
	switch length {
	case 126:
		ext := make([]byte, 2)
		if _, err := io.ReadFull(reader, ext); err != nil {
			return frame{}, fmt.Errorf("failed to read extended length: %w", err)
		}
		length = uint64(binary.BigEndian.Uint16(ext))
	case 127:
		ext := make([]byte, 8)
		if _, err := io.ReadFull(reader, ext); err != nil {
			return frame{}, fmt.Errorf("failed to read extended length: %w", err)
		}
		length = binary.BigEndian.Uint64(ext)
	}

	if length > maxPayloadSize {
		return frame{}, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)
	}

	var mask []byte
	if header[1]&0x80 != 0 {
		mask = make([]byte, 4)
		if _, err := io.ReadFull(reader, mask); err != nil {
			return frame{}, fmt.Errorf("failed to read mask: %w", err)
		}
	}

	frameData.payload = make([]byte, length)
	if _, err := io.ReadFull(reader, frameData.payload); err != nil {
		return frame{}, fmt.Errorf("failed to read payload: %w", err)
	}

	if mask != nil {
		for i := range frameData.payload {
			frameData.payload[i] ^= mask[i%4]
		}
	}

	if !frameData.isFin {
		return frame{}, fmt.Errorf("%w: fragmented message", ErrUnsupportedFrame)
	}

	return frameData, nil
}

// writeFrame - serializes one unmasked server frame and flushes it.
func writeFrame(writer *bufio.Writer, frameData frame) error {
	buf := make([]byte, 2, 2+8+len(frameData.payload))
	buf[0] = frameData.opCode
	if frameData.isFin {
		buf[0] |= 0x80
	}

	length := uint64(len(frameData.payload))
	switch {
	case length < 126:
		buf[1] = byte(length)
	case length < 1<<16:
		buf[1] = 126
		size := make([]byte, 2)
		binary.BigEndian.PutUint16(size, uint16(length))
		buf = append(buf, size...)
	default:
		buf[1] = 127
		size := make([]byte, 8)
		binary.BigEndian.PutUint64(size, length)
		buf = append(buf, size...)
	}

	buf = append(buf, frameData.payload...)

	if _, err := writer.Write(buf); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %w", err)
	}

	return nil
}
