//
//Copyright [2016] [SnapRoute Inc]
//
//Licensed under the Apache License, Version 2.0 (the "License");
//you may not use this file except in compliance with the License.
//You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//	 Unless required by applicable law or agreed to in writing, software
//	 distributed under the License is distributed on an "AS IS" BASIS,
//	 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//	 See the License for the specific language governing permissions and
//	 limitations under the License.
//
// _______  __       __________   ___      _______.____    __    ____  __  .___________.  ______  __    __  
// |   ____||  |     |   ____\  \ /  /     /       |\   \  /  \  /   / |  | |           | /      ||  |  |  | 
// |  |__   |  |     |  |__   \  V  /     |   (----` \   \/    \/   /  |  | `---|  |----`|  ,----'|  |__|  | 
// |   __|  |  |     |   __|   >   <       \   \      \            /   |  |     |  |     |  |     |   __   | 
// |  |     |  `----.|  |____ /  .  \  .----)   |      \    /\    /    |  |     |  |     |  `----.|  |  |  | 
// |__|     |_______||_______/__/ \__\ |_______/        \__/  \__/     |__|     |__|      \______||__|  |__| 
//                                                                                                           

// bpdu.go
package stp

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/binary"
	"fmt"
)

// BPDU types as carried in the type octet
const (
	BpduTypeConfig uint8 = 0x00
	BpduTypeRSTP   uint8 = 0x02
	BpduTypeTCN    uint8 = 0x80
)

// encoded sizes in octets, measured from the protocol identifier
const (
	BpduTCNSize         = 4
	BpduConfigSize      = 35
	BpduRSTPSize        = 36
	BpduMstpBaseSize    = 38
	BpduMstpV3BaseLen   = 64
	BpduMstiMsgSize     = 16
	BpduMstpMinSize     = BpduMstpBaseSize + BpduMstpV3BaseLen
	BpduConfigIdSize    = 51
	BpduTimeUnitsPerSec = 256
)

// BPDURxType is the classification of a validated BPDU
type BPDURxType int

const (
	BPDURxTypeUnknown BPDURxType = iota
	BPDURxTypeSTP
	BPDURxTypeTopo
	BPDURxTypeRSTP
	BPDURxTypeMSTP
)

var BPDURxTypeStrMap = map[BPDURxType]string{
	BPDURxTypeUnknown: "Unknown",
	BPDURxTypeSTP:     "Config",
	BPDURxTypeTopo:    "TCN",
	BPDURxTypeRSTP:    "RST",
	BPDURxTypeMSTP:    "MST",
}

func (t BPDURxType) String() string { return BPDURxTypeStrMap[t] }

// MstiConfigMsg 14.6.1 MSTI Configuration Message
type MstiConfigMsg struct {
	Flags           uint8
	RegionalRootId  BridgeId
	IntRootPathCost uint32
	// high nibble of the designated bridge priority
	BridgePriority uint8
	// high nibble of the designated port priority
	PortPriority  uint8
	RemainingHops uint8
}

// Bpdu is a decoded BPDU.  For Config and RST BPDUs CistRegionalRootId holds
// the designated bridge identifier, which shares the same octets.  Times are
// in seconds.
type Bpdu struct {
	ProtocolId uint16
	Version    uint8
	Type       uint8
	Flags      uint8

	CistRootId         BridgeId
	CistExtPathCost    uint32
	CistRegionalRootId BridgeId
	CistPortId         PortId

	MessageAge   uint16
	MaxAge       uint16
	HelloTime    uint16
	ForwardDelay uint16

	Version1Len uint8
	Version3Len uint16

	ConfigId          MstConfigId
	CistIntPathCost   uint32
	CistBridgeId      BridgeId
	CistRemainingHops uint8

	Msti []MstiConfigMsg

	rxType BPDURxType
}

func (bpdu *Bpdu) RxType() BPDURxType { return bpdu.rxType }

// getTime rounds to the nearest second
func getTime(b []byte) uint16 {
	v := uint32(binary.BigEndian.Uint16(b))
	return uint16((v + BpduTimeUnitsPerSec/2) / BpduTimeUnitsPerSec)
}

func putTime(b []byte, secs uint16) {
	binary.BigEndian.PutUint16(b, secs*BpduTimeUnitsPerSec)
}

// DecodeBpdu validates and decodes the octets following the LLC header.
// Trailing padding is ignored.
func DecodeBpdu(data []byte) (*Bpdu, error) {
	if len(data) < BpduTCNSize {
		return nil, fmt.Errorf("length %d: %w", len(data), ErrBpduTooShort)
	}
	bpdu := &Bpdu{
		ProtocolId: binary.BigEndian.Uint16(data[0:2]),
		Version:    data[2],
		Type:       data[3],
	}
	if bpdu.ProtocolId != 0 {
		return nil, fmt.Errorf("protocol id 0x%04x: %w", bpdu.ProtocolId, ErrBpduBadProtocol)
	}

	switch bpdu.Type {
	case BpduTypeTCN:
		bpdu.rxType = BPDURxTypeTopo
		return bpdu, nil
	case BpduTypeConfig:
		if len(data) < BpduConfigSize {
			return nil, fmt.Errorf("config length %d: %w", len(data), ErrBpduTooShort)
		}
		bpdu.rxType = BPDURxTypeSTP
	case BpduTypeRSTP:
		if bpdu.Version < StpVersionRstp {
			return nil, fmt.Errorf("rst bpdu version %d: %w", bpdu.Version, ErrBpduUnknownType)
		}
		if len(data) < BpduRSTPSize {
			return nil, fmt.Errorf("rst length %d: %w", len(data), ErrBpduTooShort)
		}
		bpdu.rxType = BPDURxTypeRSTP
	default:
		return nil, fmt.Errorf("type 0x%02x: %w", bpdu.Type, ErrBpduUnknownType)
	}

	bpdu.Flags = data[4]
	copy(bpdu.CistRootId[:], data[5:13])
	bpdu.CistExtPathCost = binary.BigEndian.Uint32(data[13:17])
	copy(bpdu.CistRegionalRootId[:], data[17:25])
	bpdu.CistPortId = PortId(binary.BigEndian.Uint16(data[25:27]))
	bpdu.MessageAge = getTime(data[27:29])
	bpdu.MaxAge = getTime(data[29:31])
	bpdu.HelloTime = getTime(data[31:33])
	bpdu.ForwardDelay = getTime(data[33:35])

	if bpdu.rxType == BPDURxTypeSTP {
		// a config bpdu never carries role bits
		bpdu.Flags &= BpduFlagTopoChangeAck | BpduFlagTopoChange
		return bpdu, nil
	}
	bpdu.Version1Len = data[35]

	if bpdu.Version < StpVersionMstp || len(data) < BpduMstpMinSize {
		return bpdu, nil
	}
	v3len := binary.BigEndian.Uint16(data[36:38])
	if v3len < BpduMstpV3BaseLen || (v3len-BpduMstpV3BaseLen)%BpduMstiMsgSize != 0 ||
		int(v3len)+BpduMstpBaseSize > len(data) ||
		int(v3len-BpduMstpV3BaseLen)/BpduMstiMsgSize > MaxMstInstances {
		// malformed version 3 section is handled as an RST BPDU 14.4
		return bpdu, nil
	}
	bpdu.Version3Len = v3len
	bpdu.rxType = BPDURxTypeMSTP

	decodeConfigId(data[38:89], &bpdu.ConfigId)
	bpdu.CistIntPathCost = binary.BigEndian.Uint32(data[89:93])
	copy(bpdu.CistBridgeId[:], data[93:101])
	bpdu.CistRemainingHops = data[101]

	n := int(v3len-BpduMstpV3BaseLen) / BpduMstiMsgSize
	bpdu.Msti = make([]MstiConfigMsg, n)
	for i := 0; i < n; i++ {
		off := BpduMstpMinSize + i*BpduMstiMsgSize
		m := &bpdu.Msti[i]
		m.Flags = data[off]
		copy(m.RegionalRootId[:], data[off+1 : off+9])
		m.IntRootPathCost = binary.BigEndian.Uint32(data[off+9 : off+13])
		m.BridgePriority = data[off+13]
		m.PortPriority = data[off+14]
		m.RemainingHops = data[off+15]
	}
	return bpdu, nil
}

func decodeConfigId(b []byte, c *MstConfigId) {
	c.Selector = b[0]
	copy(c.Name[:], b[1:33])
	c.Revision = binary.BigEndian.Uint16(b[33:35])
	copy(c.Digest[:], b[35:51])
}

func encodeConfigId(b []byte, c *MstConfigId) {
	b[0] = c.Selector
	copy(b[1:33], c.Name[:])
	binary.BigEndian.PutUint16(b[33:35], c.Revision)
	copy(b[35:51], c.Digest[:])
}

// Encode serializes the BPDU.  The encoded length is derived from Type and
// Version; Version3Len is recomputed from the MSTI message count.
func (bpdu *Bpdu) Encode() []byte {
	var size int
	switch {
	case bpdu.Type == BpduTypeTCN:
		size = BpduTCNSize
	case bpdu.Type == BpduTypeConfig:
		size = BpduConfigSize
	case bpdu.Version >= StpVersionMstp:
		bpdu.Version3Len = uint16(BpduMstpV3BaseLen + len(bpdu.Msti)*BpduMstiMsgSize)
		size = BpduMstpBaseSize + int(bpdu.Version3Len)
	default:
		size = BpduRSTPSize
	}
	data := make([]byte, size)
	binary.BigEndian.PutUint16(data[0:2], bpdu.ProtocolId)
	data[2] = bpdu.Version
	data[3] = bpdu.Type
	if size == BpduTCNSize {
		return data
	}
	data[4] = bpdu.Flags
	copy(data[5:13], bpdu.CistRootId[:])
	binary.BigEndian.PutUint32(data[13:17], bpdu.CistExtPathCost)
	copy(data[17:25], bpdu.CistRegionalRootId[:])
	binary.BigEndian.PutUint16(data[25:27], uint16(bpdu.CistPortId))
	putTime(data[27:29], bpdu.MessageAge)
	putTime(data[29:31], bpdu.MaxAge)
	putTime(data[31:33], bpdu.HelloTime)
	putTime(data[33:35], bpdu.ForwardDelay)
	if size == BpduConfigSize {
		return data
	}
	data[35] = bpdu.Version1Len
	if size == BpduRSTPSize {
		return data
	}
	binary.BigEndian.PutUint16(data[36:38], bpdu.Version3Len)
	encodeConfigId(data[38:89], &bpdu.ConfigId)
	binary.BigEndian.PutUint32(data[89:93], bpdu.CistIntPathCost)
	copy(data[93:101], bpdu.CistBridgeId[:])
	data[101] = bpdu.CistRemainingHops
	for i := range bpdu.Msti {
		off := BpduMstpMinSize + i*BpduMstiMsgSize
		m := &bpdu.Msti[i]
		data[off] = m.Flags
		copy(data[off+1 : off+9], m.RegionalRootId[:])
		binary.BigEndian.PutUint32(data[off+9 : off+13], m.IntRootPathCost)
		data[off+13] = m.BridgePriority
		data[off+14] = m.PortPriority
		data[off+15] = m.RemainingHops
	}
	return data
}

// 13.8 configuration digest signature key
var configDigestKey = []byte{
	0x13, 0xAC, 0x06, 0xA6, 0x2E, 0x47, 0xFD, 0x51,
	0xF9, 0x5D, 0x2B, 0xA2, 0x43, 0xCD, 0x03, 0x46,
}

// ComputeConfigDigest is the HMAC-MD5 over the 4096 entry vlan to mstid table
func ComputeConfigDigest(table *[MaxVlanId + 1]MstId) [16]uint8 {
	buf := make([]byte, 2*len(table))
	for v, mstid := range table {
		binary.BigEndian.PutUint16(buf[2*v:], uint16(mstid))
	}
	mac := hmac.New(md5.New, configDigestKey)
	mac.Write(buf)
	var digest [16]uint8
	copy(digest[:], mac.Sum(nil))
	return digest
}
