// Package zclcodec implements the ZCL frame header and data-type sizing
// rules directly on raw bytes, independent of any structured command
// library. It also provides the core's shared endian helpers; some
// parsers (TUYA, PTVO, Perenio) and the interview's CIE-address write
// still convert byte order by hand.
package zclcodec

import "fmt"

// Frame control bits used by the core.
const (
	FCClusterSpecific        byte = 0x01
	FCManufacturerSpecific   byte = 0x04
	FCServerToClient         byte = 0x08
	FCDisableDefaultResponse byte = 0x10
)

// Global ZCL command identifiers used by the dispatch engine.
const (
	CmdReadAttributes            byte = 0x00
	CmdReadAttributesResponse    byte = 0x01
	CmdWriteAttributes           byte = 0x02
	CmdWriteAttributesResponse   byte = 0x04
	CmdConfigureReporting        byte = 0x06
	CmdConfigureReportingResp    byte = 0x07
	CmdReportAttributes          byte = 0x0A
	CmdDefaultResponse           byte = 0x0B
)

// ZCL data type identifiers (selected, per the wire-format table).
const (
	DataTypeNoData         byte = 0x00
	DataTypeBoolean        byte = 0x10
	DataTypeBitmap8        byte = 0x18
	DataTypeUint8          byte = 0x20
	DataTypeUint16         byte = 0x21
	DataTypeUint24         byte = 0x22
	DataTypeUint32         byte = 0x23
	DataTypeUint48         byte = 0x25
	DataTypeInt8           byte = 0x28
	DataTypeInt16          byte = 0x29
	DataTypeInt32          byte = 0x2B
	DataTypeSinglePrecFlt  byte = 0x39
	DataTypeEnum8          byte = 0x30
	DataTypeCharacterStr   byte = 0x42
	DataTypeOctetStr       byte = 0x41
	DataTypeUTCTime        byte = 0xE2
	DataTypeIEEEAddress    byte = 0xF0
)

// Header is a decoded ZCL frame header.
type Header struct {
	FrameControl     byte
	ManufacturerCode uint16
	TransactionID    byte
	CommandID        byte
}

// HasManufacturerCode reports whether the header carries the optional
// manufacturer-specific field.
func (h Header) HasManufacturerCode() bool {
	return h.FrameControl&FCManufacturerSpecific != 0
}

// ZCLHeader builds a ZCL frame header. manufacturerCode of 0 omits the
// manufacturer-specific field and clears FCManufacturerSpecific from
// frameControl in the encoded output; callers that need the field set
// for a zero manufacturer code are not a case this core produces.
func ZCLHeader(frameControl byte, tid byte, cmd byte, manufacturerCode uint16) []byte {
	fc := frameControl
	if manufacturerCode != 0 {
		fc |= FCManufacturerSpecific
	} else {
		fc &^= FCManufacturerSpecific
	}

	buf := make([]byte, 0, 5)
	buf = append(buf, fc)
	if fc&FCManufacturerSpecific != 0 {
		buf = append(buf, byte(manufacturerCode), byte(manufacturerCode>>8))
	}
	buf = append(buf, tid, cmd)
	return buf
}

// ParseHeader decodes a ZCL frame header from the start of frame,
// returning the header and the number of bytes consumed.
func ParseHeader(frame []byte) (Header, int, error) {
	if len(frame) < 3 {
		return Header{}, 0, fmt.Errorf("zclcodec: frame too short for header: %d bytes", len(frame))
	}

	h := Header{FrameControl: frame[0]}
	offset := 1

	if h.HasManufacturerCode() {
		if len(frame) < offset+2 {
			return Header{}, 0, fmt.Errorf("zclcodec: frame too short for manufacturer code")
		}
		h.ManufacturerCode = uint16(frame[offset]) | uint16(frame[offset+1])<<8
		offset += 2
	}

	if len(frame) < offset+2 {
		return Header{}, 0, fmt.Errorf("zclcodec: frame too short for tid/command")
	}
	h.TransactionID = frame[offset]
	h.CommandID = frame[offset+1]
	offset += 2

	return h, offset, nil
}

// AttributesRequest builds a CMD_READ_ATTRIBUTES body: a global-frame
// header followed by the little-endian attribute id list.
func AttributesRequest(tid byte, attrIDs []uint16, manufacturerCode uint16) []byte {
	buf := ZCLHeader(0, tid, CmdReadAttributes, manufacturerCode)
	for _, id := range attrIDs {
		buf = append(buf, byte(id), byte(id>>8))
	}
	return buf
}

// ConfigureReportingRequest builds a CMD_CONFIGURE_REPORTING body for a
// single attribute-report record: direction (0x00, "reports sent"),
// attrId:u16 LE, dataType:u8, minInterval/maxInterval:u16 LE, and a
// reportable-change field truncated to dataType's own wire width
// rather than always sent as a full u32.
func ConfigureReportingRequest(tid byte, attrID uint16, dataType byte, minInterval, maxInterval uint16, valueChange uint32) []byte {
	buf := ZCLHeader(0, tid, CmdConfigureReporting, 0)
	buf = append(buf, 0x00)
	buf = append(buf, PutLittleEndianUint16(attrID)...)
	buf = append(buf, dataType)
	buf = append(buf, PutLittleEndianUint16(minInterval)...)
	buf = append(buf, PutLittleEndianUint16(maxInterval)...)
	buf = append(buf, reportableChange(dataType, valueChange)...)
	return buf
}

// reportableChange truncates valueChange's little-endian encoding to
// the wire width ZCLDataSize reports for dataType, matching the
// original's "size of struct minus valueChange plus zclDataSize(type)"
// framing rule.
func reportableChange(dataType byte, valueChange uint32) []byte {
	full := PutLittleEndianUint32(valueChange)
	offset := 0
	size, ok := ZCLDataSize(dataType, nil, &offset)
	if !ok || size > len(full) {
		return full
	}
	return full[:size]
}

// ZCLDataSize returns the on-wire byte length of a value of the given
// data type found at payload[*offset]. For fixed-width types it is a
// table lookup; for variable-length types (octet/character string and
// their "long" 16-bit-length variants) it reads the length prefix at
// *offset and advances *offset past that prefix so the caller can read
// exactly size bytes of payload starting at the new *offset.
//
// ok is false when dataType is not recognised; callers must treat that
// as a parse error, not a zero-length value.
func ZCLDataSize(dataType byte, payload []byte, offset *int) (size int, ok bool) {
	switch dataType {
	case DataTypeNoData:
		return 0, true
	case DataTypeBoolean, DataTypeBitmap8, DataTypeUint8, DataTypeInt8, DataTypeEnum8:
		return 1, true
	case DataTypeUint16, DataTypeInt16:
		return 2, true
	case DataTypeUint24:
		return 3, true
	case DataTypeUint32, DataTypeInt32, DataTypeSinglePrecFlt, DataTypeUTCTime:
		return 4, true
	case DataTypeUint48:
		return 6, true
	case DataTypeIEEEAddress:
		return 8, true
	case DataTypeOctetStr, DataTypeCharacterStr:
		if *offset >= len(payload) {
			return 0, false
		}
		n := int(payload[*offset])
		*offset++
		return n, true
	default:
		return 0, false
	}
}

// LittleEndianUint16 / LittleEndianUint32 / BigEndianUint16 /
// BigEndianUint32 are the narrow endian helpers used by property
// parsers (including the LUMI dialect) so the core never calls
// encoding/binary directly against wire bytes. The TUYA parser decodes
// its big-endian fields by hand and does not use them.
func LittleEndianUint16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func LittleEndianUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
func BigEndianUint16(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }
func BigEndianUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func PutLittleEndianUint16(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }
func PutLittleEndianUint32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}
