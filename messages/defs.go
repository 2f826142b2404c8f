// Package messages defines the FusionEngine wire contract: the frame
// header, the closed set of message variants carried in recorded logs,
// and the producer-side encoder. The read path (parsers, analysis) only
// depends on the small capability surface exposed by Message.
package messages

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

const (
	// SyncByte0 and SyncByte1 open every frame on disk (".1").
	SyncByte0 = 0x2E
	SyncByte1 = 0x31

	// HeaderSize is the fixed frame header length in bytes.
	HeaderSize = 24

	// MaxPayloadSize bounds the declared payload length of a frame. A
	// header claiming more than this is treated as garbage during
	// resynchronization rather than as a huge frame.
	MaxPayloadSize = 1 << 20

	// ProtocolVersion is the wire protocol revision this package emits.
	ProtocolVersion = 2
)

var (
	ErrInvalidSync        = errors.New("sync bytes 0x2E 0x31 not present")
	ErrUnknownMessageType = errors.New("unknown message type")
)

// MessageType identifies a frame's payload format.
type MessageType uint16

const (
	InvalidType           MessageType = 0
	TypePose              MessageType = 10000
	TypeGNSSInfo          MessageType = 10001
	TypePoseAux           MessageType = 10003
	TypeEventNotification MessageType = 12000
)

func (t MessageType) String() string {
	switch t {
	case TypePose:
		return "pose"
	case TypeGNSSInfo:
		return "gnss_info"
	case TypePoseAux:
		return "pose_aux"
	case TypeEventNotification:
		return "event_notification"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(t))
	}
}

// ParseMessageType resolves a canonical type name as printed by String.
func ParseMessageType(name string) (MessageType, error) {
	switch name {
	case "pose":
		return TypePose, nil
	case "gnss_info":
		return TypeGNSSInfo, nil
	case "pose_aux":
		return TypePoseAux, nil
	case "event_notification":
		return TypeEventNotification, nil
	default:
		return InvalidType, fmt.Errorf("%w: %q", ErrUnknownMessageType, name)
	}
}

// Header is the fixed-size frame header preceding every payload.
type Header struct {
	CRC             uint32
	ProtocolVersion uint8
	MessageVersion  uint8
	Type            MessageType
	Sequence        uint32
	PayloadSize     uint32
	SourceID        uint32
}

// ParseHeader decodes a header from buf. It validates the sync bytes
// and the declared payload bound but not the CRC, which covers payload
// bytes the caller has not necessarily read yet.
func ParseHeader(buf []byte) (Header, error) {
	var hdr Header
	if len(buf) < HeaderSize {
		return hdr, io.ErrUnexpectedEOF
	}
	if buf[0] != SyncByte0 || buf[1] != SyncByte1 {
		return hdr, ErrInvalidSync
	}
	hdr.CRC = binary.LittleEndian.Uint32(buf[4:8])
	hdr.ProtocolVersion = buf[8]
	hdr.MessageVersion = buf[9]
	hdr.Type = MessageType(binary.LittleEndian.Uint16(buf[10:12]))
	hdr.Sequence = binary.LittleEndian.Uint32(buf[12:16])
	hdr.PayloadSize = binary.LittleEndian.Uint32(buf[16:20])
	hdr.SourceID = binary.LittleEndian.Uint32(buf[20:24])
	if hdr.PayloadSize > MaxPayloadSize {
		return hdr, fmt.Errorf("declared payload size %d exceeds limit", hdr.PayloadSize)
	}
	return hdr, nil
}

// MarshalHeader serializes hdr into a HeaderSize-byte buffer. The CRC
// field is written as stored in hdr; use FrameCRC to compute it.
func MarshalHeader(hdr Header) []byte {
	buf := make([]byte, HeaderSize)
	buf[0] = SyncByte0
	buf[1] = SyncByte1
	binary.LittleEndian.PutUint32(buf[4:8], hdr.CRC)
	buf[8] = hdr.ProtocolVersion
	buf[9] = hdr.MessageVersion
	binary.LittleEndian.PutUint16(buf[10:12], uint16(hdr.Type))
	binary.LittleEndian.PutUint32(buf[12:16], hdr.Sequence)
	binary.LittleEndian.PutUint32(buf[16:20], hdr.PayloadSize)
	binary.LittleEndian.PutUint32(buf[20:24], hdr.SourceID)
	return buf
}

// FrameCRC computes the frame checksum: CRC32-IEEE over the header
// bytes following the CRC field plus the payload.
func FrameCRC(headerBuf, payload []byte) uint32 {
	crc := crc32.ChecksumIEEE(headerBuf[8:HeaderSize])
	return crc32.Update(crc, crc32.IEEETable, payload)
}
