package synthesis

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// 火山引擎流式 TTS 二进制帧：4 字节头，随后是可选的序号、事件与会话 ID，最后是长度前缀的 payload。
const protocolVersion = 0b0001

type messageType uint8

const (
	fullClientRequest       messageType = 0b0001
	fullServerResponse      messageType = 0b1001
	audioOnlyServerResponse messageType = 0b1011
	errorMessage            messageType = 0b1111
)

const (
	flagPositiveSequence uint8 = 0b0001
	flagLastNoSequence   uint8 = 0b0010
	flagNegativeSequence uint8 = 0b0011
	flagWithEvent        uint8 = 0b0100
)

const (
	serializationNone uint8 = 0b0000
	serializationJSON uint8 = 0b0001

	compressionNone uint8 = 0b0000
	compressionGzip uint8 = 0b0001
)

const (
	eventStartConnection    int32 = 1
	eventFinishConnection   int32 = 2
	eventConnectionStarted  int32 = 50
	eventConnectionFailed   int32 = 51
	eventConnectionFinished int32 = 52
	eventSessionFinished    int32 = 152
	eventSessionFailed      int32 = 153
)

var errShortFrame = errors.New("frame too short")

type frame struct {
	msgType       messageType
	flags         uint8
	serialization uint8
	compression   uint8
	sequence      int32
	event         int32
	sessionID     string
	errorCode     uint32
	payload       []byte
}

func (f *frame) hasSequence() bool {
	s := f.flags & 0b0011
	return s == flagPositiveSequence || s == flagNegativeSequence
}

func (f *frame) hasEvent() bool {
	return f.flags&flagWithEvent != 0
}

// last 最后一包：标志位声明或事件为会话结束
func (f *frame) last() bool {
	s := f.flags & 0b0011
	if s == flagLastNoSequence || s == flagNegativeSequence {
		return true
	}
	return f.hasEvent() && f.event == eventSessionFinished
}

// body 返回解压后的 payload
func (f *frame) body() ([]byte, error) {
	switch f.compression {
	case compressionNone:
		return f.payload, nil
	case compressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(f.payload))
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	default:
		return nil, fmt.Errorf("unsupported compression method: %d", f.compression)
	}
}

func connectionEvent(event int32) bool {
	switch event {
	case eventStartConnection, eventFinishConnection,
		eventConnectionStarted, eventConnectionFailed, eventConnectionFinished:
		return true
	}
	return false
}

func encodeFrame(f *frame) []byte {
	var buf bytes.Buffer
	buf.WriteByte(protocolVersion<<4 | 0b0001)
	buf.WriteByte(uint8(f.msgType)<<4 | f.flags&0x0F)
	buf.WriteByte(f.serialization<<4 | f.compression&0x0F)
	buf.WriteByte(0)

	if f.hasSequence() {
		_ = binary.Write(&buf, binary.BigEndian, f.sequence)
	}
	if f.hasEvent() {
		_ = binary.Write(&buf, binary.BigEndian, f.event)
		if !connectionEvent(f.event) {
			_ = binary.Write(&buf, binary.BigEndian, uint32(len(f.sessionID)))
			buf.WriteString(f.sessionID)
		}
	}
	if f.msgType == errorMessage {
		_ = binary.Write(&buf, binary.BigEndian, f.errorCode)
	}
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(f.payload)))
	buf.Write(f.payload)
	return buf.Bytes()
}

func decodeFrame(data []byte) (*frame, error) {
	if len(data) < 4 {
		return nil, errShortFrame
	}
	if version := data[0] >> 4; version != protocolVersion {
		return nil, fmt.Errorf("unsupported protocol version: %d", version)
	}
	headerSize := int(data[0]&0x0F) * 4
	if headerSize < 4 || len(data) < headerSize {
		return nil, errShortFrame
	}

	f := &frame{
		msgType:       messageType(data[1] >> 4),
		flags:         data[1] & 0x0F,
		serialization: data[2] >> 4,
		compression:   data[2] & 0x0F,
	}
	r := bytes.NewReader(data[headerSize:])

	if f.hasSequence() {
		if err := binary.Read(r, binary.BigEndian, &f.sequence); err != nil {
			return nil, fmt.Errorf("read sequence: %w", err)
		}
	}
	if f.hasEvent() {
		if err := binary.Read(r, binary.BigEndian, &f.event); err != nil {
			return nil, fmt.Errorf("read event: %w", err)
		}
		if !connectionEvent(f.event) {
			session, err := readSized(r)
			if err != nil {
				return nil, fmt.Errorf("read session id: %w", err)
			}
			f.sessionID = string(session)
		}
		if f.event == eventConnectionStarted || f.event == eventConnectionFailed || f.event == eventConnectionFinished {
			if _, err := readSized(r); err != nil {
				return nil, fmt.Errorf("read connect id: %w", err)
			}
		}
	}
	if f.msgType == errorMessage {
		if err := binary.Read(r, binary.BigEndian, &f.errorCode); err != nil {
			return nil, fmt.Errorf("read error code: %w", err)
		}
	}

	payload, err := readSized(r)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	f.payload = payload
	return f, nil
}

func readSized(r *bytes.Reader) ([]byte, error) {
	var size uint32
	if err := binary.Read(r, binary.BigEndian, &size); err != nil {
		return nil, err
	}
	if int64(size) > int64(r.Len()) {
		return nil, fmt.Errorf("declared size %d exceeds remaining %d bytes", size, r.Len())
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
