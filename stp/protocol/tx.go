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

// tx.go
package stp

import (
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

func (p *StpPort) srcMac() net.HardwareAddr {
	if len(p.HardwareAddr) == 6 {
		return p.HardwareAddr
	}
	return net.HardwareAddr(p.b.BridgeAddr[:])
}

// BuildBpduFrame encodes the BPDU into an ethernet frame.  A non zero vlan
// adds an 802.1Q tag.
func BuildBpduFrame(src net.HardwareAddr, vlan uint16, bpdu *Bpdu) ([]byte, error) {
	llc := layers.LLC{
		DSAP:    LlcSapBpdu,
		IG:      false,
		SSAP:    LlcSapBpdu,
		CR:      false,
		Control: LlcControlUI,
	}
	mstp := MSTP{Bpdu: bpdu}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}
	var err error
	if vlan != 0 {
		// 802.1Q tag carries the length for an LLC payload
		length := 3 + len(bpdu.Encode())
		eth := layers.Ethernet{
			SrcMAC:       src,
			DstMAC:       BpduDestMAC,
			EthernetType: layers.EthernetTypeDot1Q,
		}
		tag := layers.Dot1Q{
			VLANIdentifier: vlan,
			Type:           layers.EthernetType(length),
		}
		err = gopacket.SerializeLayers(buf, opts, &eth, &tag, &llc, &mstp)
	} else {
		eth := layers.Ethernet{
			SrcMAC:       src,
			DstMAC:       BpduDestMAC,
			EthernetType: layers.EthernetTypeLLC,
		}
		err = gopacket.SerializeLayers(buf, opts, &eth, &llc, &mstp)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *StpPort) txBpdu(bpdu *Bpdu) bool {
	b := p.b
	frame, err := BuildBpduFrame(p.srcMac(), b.Vlan, bpdu)
	if err != nil {
		StpLogger("ERROR", fmt.Sprintf("TX: port %d encode failed: %s", p.IfIndex, err))
		return false
	}
	if err := b.hwSend(p.IfIndex, frame); err != nil {
		return false
	}
	p.Stats.BpduTx++
	return true
}

// 13.27.26 txConfig
func (p *StpPort) TxConfig() {
	cp := p.Cist
	bpdu := &Bpdu{
		Version:            StpVersionStp,
		Type:               BpduTypeConfig,
		CistRootId:         cp.DesignatedPriority.RootBridgeId,
		CistExtPathCost:    cp.DesignatedPriority.ExtRootPathCost,
		CistRegionalRootId: cp.DesignatedPriority.DesignatedBridgeId,
		CistPortId:         cp.DesignatedPriority.DesignatedPortId,
		MessageAge:         cp.DesignatedTimes.MessageAge,
		MaxAge:             cp.DesignatedTimes.MaxAge,
		HelloTime:          cp.DesignatedTimes.HelloTime,
		ForwardDelay:       cp.DesignatedTimes.ForwardDelay,
	}
	bpdu.Flags = boolToFlag(cp.TcWhile != 0, BpduFlagTopoChange) |
		boolToFlag(p.TcAck, BpduFlagTopoChangeAck)
	if p.txBpdu(bpdu) {
		p.Stats.ConfigTx++
	}
}

// 13.27.28 txTcn
func (p *StpPort) TxTCN() {
	bpdu := &Bpdu{
		Version: StpVersionStp,
		Type:    BpduTypeTCN,
	}
	if p.txBpdu(bpdu) {
		p.Stats.TcnTx++
	}
}

// cistAgreementToSend withholds the CIST agreement on boundary ports until
// every MSTI has agreed as well
func (p *StpPort) cistAgreementToSend() bool {
	cp := p.Cist
	if !cp.Agree {
		return false
	}
	if p.RcvdInternal || !p.HasMsti() {
		return true
	}
	switch cp.Role {
	case PortRoleRoot, PortRoleDesignated, PortRoleAlternate:
	default:
		return true
	}
	for _, tp := range p.MstiPorts() {
		if !tp.Agree {
			StpMachineLogger("DEBUG", "TX", p.IfIndex, tp.t.MstId, "agreement withheld, msti agree not set")
			return false
		}
	}
	return true
}

// 13.27.27 txRstp, which sends an RST BPDU when forced to RSTP and an MST
// BPDU otherwise
func (p *StpPort) TxRSTP() {
	b := p.b
	cp := p.Cist
	if cp.Role == PortRoleDisabled {
		StpMachineLogger("INFO", "TX", p.IfIndex, CistMstId, "disabled role, not sending")
		return
	}
	bpdu := &Bpdu{
		Version:            StpVersionMstp,
		Type:               BpduTypeRSTP,
		CistRootId:         cp.DesignatedPriority.RootBridgeId,
		CistExtPathCost:    cp.DesignatedPriority.ExtRootPathCost,
		CistRegionalRootId: cp.DesignatedPriority.RegionalRootId,
		CistPortId:         cp.DesignatedPriority.DesignatedPortId,
		MessageAge:         cp.DesignatedTimes.MessageAge,
		MaxAge:             cp.DesignatedTimes.MaxAge,
		HelloTime:          cp.DesignatedTimes.HelloTime,
		ForwardDelay:       cp.DesignatedTimes.ForwardDelay,
	}
	StpSetBpduFlags(false,
		p.cistAgreementToSend(),
		cp.Forwarding,
		cp.Learning,
		cp.Role,
		cp.Proposing,
		cp.TcWhile != 0,
		&bpdu.Flags)

	if b.ForceVersion == StpVersionRstp {
		bpdu.Version = StpVersionRstp
		if p.txBpdu(bpdu) {
			p.Stats.RstpTx++
		}
		return
	}

	bpdu.ConfigId = b.ConfigId
	bpdu.CistIntPathCost = cp.DesignatedPriority.IntRootPathCost
	bpdu.CistBridgeId = cp.DesignatedPriority.DesignatedBridgeId
	bpdu.CistRemainingHops = cp.DesignatedTimes.RemainingHops
	bpdu.Msti = make([]MstiConfigMsg, 0)
	for _, tp := range p.MstiPorts() {
		if tp.Role == PortRoleDisabled {
			StpMachineLogger("INFO", "TX", p.IfIndex, tp.t.MstId, "disabled role, not sending")
			return
		}
		msg := MstiConfigMsg{
			RegionalRootId:  tp.DesignatedPriority.RegionalRootId,
			IntRootPathCost: tp.DesignatedPriority.IntRootPathCost,
			BridgePriority:  uint8(tp.DesignatedPriority.DesignatedBridgeId.Priority() >> 8),
			PortPriority:    tp.PortId.Priority(),
			RemainingHops:   tp.DesignatedTimes.RemainingHops,
		}
		StpSetBpduFlags(tp.Master,
			tp.Agree,
			tp.Forwarding,
			tp.Learning,
			tp.Role,
			tp.Proposing,
			tp.TcWhile != 0,
			&msg.Flags)
		bpdu.Msti = append(bpdu.Msti, msg)
	}
	if p.txBpdu(bpdu) {
		p.Stats.MstpTx++
		for _, tp := range p.MstiPorts() {
			tp.MsgTx++
		}
	}
}
