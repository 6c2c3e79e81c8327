package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// 头部字段均为 32 位有符号整数, 网络字节序
const (
	ClientHeaderSize = 6 * 4
	ServerHeaderSize = 10 * 4
)

// Client header flags.
const (
	FlagRunNow int32 = 0x00000001
	FlagExtend int32 = 0x40000000
)

// ClientHeader is the first record an iperf client sends on a test connection.
type ClientHeader struct {
	Flags      int32
	NumThreads int32
	Port       int32
	BufferLen  int32
	WinBand    int32
	Amount     int32
}

// ServerHeader is the report an iperf server may send back to the client.
type ServerHeader struct {
	Flags         int32
	TotalLen1     int32
	TotalLen2     int32
	StopSec       int32
	StopUsec      int32
	ErrorCnt      int32
	OutOfOrderCnt int32
	Datagrams     int32
	Jitter1       int32
	Jitter2       int32
}

func (h *ClientHeader) fields() []*int32 {
	return []*int32{&h.Flags, &h.NumThreads, &h.Port, &h.BufferLen, &h.WinBand, &h.Amount}
}

func (h *ServerHeader) fields() []*int32 {
	return []*int32{
		&h.Flags, &h.TotalLen1, &h.TotalLen2, &h.StopSec, &h.StopUsec,
		&h.ErrorCnt, &h.OutOfOrderCnt, &h.Datagrams, &h.Jitter1, &h.Jitter2,
	}
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (h *ClientHeader) MarshalBinary() ([]byte, error) {
	return putFields(h.fields()), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (h *ClientHeader) UnmarshalBinary(data []byte) error {
	return getFields(h.fields(), data)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (h *ServerHeader) MarshalBinary() ([]byte, error) {
	return putFields(h.fields()), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (h *ServerHeader) UnmarshalBinary(data []byte) error {
	return getFields(h.fields(), data)
}

// WriteClientHeader 将 ClientHeader 写入到 io.Writer
func WriteClientHeader(w io.Writer, h *ClientHeader) error {
	buf, _ := h.MarshalBinary()
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write client header: %w", err)
	}
	return nil
}

// ReadClientHeader 从 io.Reader 读取并解析一个 ClientHeader
func ReadClientHeader(r io.Reader) (*ClientHeader, error) {
	buf := make([]byte, ClientHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("failed to read client header: %w", err)
	}
	h := &ClientHeader{}
	if err := h.UnmarshalBinary(buf); err != nil {
		return nil, err
	}
	return h, nil
}

func putFields(fields []*int32) []byte {
	buf := make([]byte, 4*len(fields))
	for i, f := range fields {
		binary.BigEndian.PutUint32(buf[i*4:], uint32(*f))
	}
	return buf
}

func getFields(fields []*int32, data []byte) error {
	if len(data) < 4*len(fields) {
		return fmt.Errorf("header too short: got %d bytes, need %d", len(data), 4*len(fields))
	}
	for i, f := range fields {
		*f = int32(binary.BigEndian.Uint32(data[i*4:]))
	}
	return nil
}
