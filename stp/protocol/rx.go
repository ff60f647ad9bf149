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

// rx will take care of parsing a received frame.  If the checks pass the
// BPDU is handed to the port receive machine.
package stp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const RxModuleStr = "Rx Module STP"

var (
	BpduDestMAC = net.HardwareAddr{0x01, 0x80, 0xC2, 0x00, 0x00, 0x00}
	PvstDestMAC = net.HardwareAddr{0x01, 0x00, 0x0C, 0xCC, 0xCC, 0xCD}
)

const (
	LlcSapBpdu    = 0x42
	LlcSapSnap    = 0xAA
	LlcControlUI  = 0x03
	SnapPidPvst   = 0x010B
	snapHeaderLen = 5
)

var SnapOuiCisco = [3]byte{0x00, 0x00, 0x0C}

// RxFrameInfo describes the framing a BPDU arrived with
type RxFrameInfo struct {
	Vlan   uint16
	Tagged bool
	Pvst   bool
}

// DecodeBpduFrame validates the ethernet, optional 802.1Q tag and LLC/SNAP
// headers and decodes the BPDU that follows.
func DecodeBpduFrame(frame []byte) (*Bpdu, RxFrameInfo, error) {
	var info RxFrameInfo
	var eth layers.Ethernet
	if err := eth.DecodeFromBytes(frame, gopacket.NilDecodeFeedback); err != nil {
		return nil, info, fmt.Errorf("ethernet: %s: %w", err, ErrBpduTooShort)
	}
	payload := eth.Payload
	length := int(eth.Length)
	if eth.EthernetType == layers.EthernetTypeDot1Q {
		var tag layers.Dot1Q
		if err := tag.DecodeFromBytes(payload, gopacket.NilDecodeFeedback); err != nil {
			return nil, info, fmt.Errorf("dot1q: %s: %w", err, ErrBpduTooShort)
		}
		info.Tagged = true
		info.Vlan = tag.VLANIdentifier
		if uint16(tag.Type) >= 0x0600 {
			return nil, info, fmt.Errorf("dot1q type %s: %w", tag.Type, ErrBpduBadLlc)
		}
		length = int(tag.Type)
		payload = tag.Payload
	} else if eth.EthernetType != layers.EthernetTypeLLC {
		return nil, info, fmt.Errorf("ethernet type %s: %w", eth.EthernetType, ErrBpduBadLlc)
	}
	if length > len(payload) {
		return nil, info, fmt.Errorf("length field %d payload %d: %w", length, len(payload), ErrBpduTooShort)
	}
	payload = payload[:length]

	var llc layers.LLC
	if err := llc.DecodeFromBytes(payload, gopacket.NilDecodeFeedback); err != nil {
		return nil, info, fmt.Errorf("llc: %s: %w", err, ErrBpduBadLlc)
	}
	switch {
	case llc.DSAP == LlcSapBpdu && llc.SSAP == LlcSapBpdu && llc.Control == LlcControlUI:
		if !bytes.Equal(eth.DstMAC, BpduDestMAC) {
			return nil, info, ErrFrameNotForBridge
		}
		payload = llc.Payload
	case llc.DSAP == LlcSapSnap && llc.SSAP == LlcSapSnap && llc.Control == LlcControlUI:
		if !bytes.Equal(eth.DstMAC, PvstDestMAC) {
			return nil, info, ErrFrameNotForBridge
		}
		snap, err := decodeSnap(llc.Payload)
		if err != nil {
			return nil, info, err
		}
		if snap.OrganizationalCode[0] != SnapOuiCisco[0] ||
			snap.OrganizationalCode[1] != SnapOuiCisco[1] ||
			snap.OrganizationalCode[2] != SnapOuiCisco[2] ||
			uint16(snap.Type) != SnapPidPvst {
			return nil, info, fmt.Errorf("snap oui %x pid 0x%04x: %w", snap.OrganizationalCode, uint16(snap.Type), ErrBpduBadLlc)
		}
		info.Pvst = true
		payload = snap.Payload
	default:
		return nil, info, fmt.Errorf("llc dsap 0x%02x ssap 0x%02x ctrl 0x%02x: %w", llc.DSAP, llc.SSAP, llc.Control, ErrBpduBadLlc)
	}

	var mstp MSTP
	if err := mstp.DecodeFromBytes(payload, gopacket.NilDecodeFeedback); err != nil {
		return nil, info, err
	}
	return mstp.Bpdu, info, nil
}

func decodeSnap(data []byte) (*layers.SNAP, error) {
	if len(data) < snapHeaderLen {
		return nil, fmt.Errorf("snap length %d: %w", len(data), ErrBpduTooShort)
	}
	snap := &layers.SNAP{
		OrganizationalCode: data[:3],
		Type:               layers.EthernetType(binary.BigEndian.Uint16(data[3:5])),
	}
	snap.Contents = data[:snapHeaderLen]
	snap.Payload = data[snapHeaderLen:]
	return snap, nil
}

// RxFrame is the receive entry point.  vlan is the vlan the transport saw
// the frame on when the tag was already stripped, 0 otherwise.  Frames that
// fail validation are counted and dropped before any protocol state is
// touched.
func (b *Bridge) RxFrame(ifindex int32, vlan uint16, frame []byte) error {
	p := b.PortMap[ifindex]
	bpdu, info, err := DecodeBpduFrame(frame)
	if err == nil && !info.Tagged {
		info.Vlan = vlan
	}
	if err != nil {
		b.RxMalformed++
		if p != nil {
			p.Stats.MalformedRx++
		}
		StpLogger("DEBUG", fmt.Sprintf("RXMAIN: port %d dropping frame: %s", ifindex, err))
		return err
	}
	if p == nil {
		return fmt.Errorf("rx port %d: %w", ifindex, ErrPortNotFound)
	}
	if !b.Active || !p.PortEnabled {
		p.Stats.DropRx++
		StpLogger("DEBUG", fmt.Sprintf("RXMAIN: port %d not enabled, dropping bpdu", ifindex))
		return nil
	}
	p.Stats.BpduRx++
	if info.Pvst {
		p.Stats.PvstRx++
		StpLogger("DEBUG", fmt.Sprintf("RXMAIN: port %d pvst bpdu vlan %d", ifindex, info.Vlan))
	}
	switch bpdu.RxType() {
	case BPDURxTypeSTP:
		p.Stats.StpRx++
	case BPDURxTypeTopo:
		p.Stats.TcnRx++
	case BPDURxTypeRSTP:
		p.Stats.RstpRx++
	case BPDURxTypeMSTP:
		p.Stats.MstpRx++
	}

	if p.BpduGuard {
		StpLogger("WARNING", fmt.Sprintf("RXMAIN: port %d bpdu guard, disabling port", ifindex))
		p.BpduGuardActive = true
		p.setPortEnabled()
		b.runSignals()
		return nil
	}

	if p.OperEdge {
		StpLogger("INFO", fmt.Sprintf("RXMAIN: port %d bpdu received on edge port, clearing oper edge", ifindex))
		p.OperEdge = false
		b.signalAllTrees(MachinePrt, p)
		b.signalAllTrees(MachineTcm, p)
	}

	p.RcvdBpdu = true
	p.PrxmMachineFsm.Gate(bpdu)
	b.runSignals()
	return nil
}
