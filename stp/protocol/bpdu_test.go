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

// bpdu_test.go
package stp

import (
	"encoding/hex"
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSrcMac = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}

func testMstBpdu() *Bpdu {
	addr := [6]uint8{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	root := CreateBridgeId(addr, 4096, CistMstId)
	bpdu := &Bpdu{
		Version:            StpVersionMstp,
		Type:               BpduTypeRSTP,
		CistRootId:         root,
		CistExtPathCost:    200,
		CistRegionalRootId: root,
		CistPortId:         CreatePortId(128, 7),
		MessageAge:         1,
		MaxAge:             20,
		HelloTime:          2,
		ForwardDelay:       15,
		CistIntPathCost:    20000,
		CistBridgeId:       CreateBridgeId(addr, 32768, CistMstId),
		CistRemainingHops:  19,
		Msti: []MstiConfigMsg{
			{
				RegionalRootId:  CreateBridgeId(addr, 4096, 10),
				IntRootPathCost: 40000,
				BridgePriority:  0x80,
				PortPriority:    0x40,
				RemainingHops:   18,
			},
			{
				RegionalRootId: CreateBridgeId(addr, 8192, 20),
				BridgePriority: 0x20,
				PortPriority:   0x80,
				RemainingHops:  20,
			},
		},
	}
	StpSetBpduFlags(false, true, true, true, PortRoleDesignated, false, true, &bpdu.Flags)
	StpSetBpduFlags(true, false, false, false, PortRoleRoot, true, false, &bpdu.Msti[0].Flags)
	bpdu.ConfigId.SetName("region-a")
	bpdu.ConfigId.Revision = 3
	return bpdu
}

func TestMstBpduEncodeDecode(t *testing.T) {
	tx := testMstBpdu()
	data := tx.Encode()
	require.Len(t, data, BpduMstpMinSize+2*BpduMstiMsgSize)

	rx, err := DecodeBpdu(data)
	require.NoError(t, err)
	assert.Equal(t, BPDURxTypeMSTP, rx.RxType())
	assert.Equal(t, uint16(BpduMstpV3BaseLen+2*BpduMstiMsgSize), rx.Version3Len)
	assert.Equal(t, tx.Flags, rx.Flags)
	assert.Equal(t, tx.CistRootId, rx.CistRootId)
	assert.Equal(t, tx.CistPortId, rx.CistPortId)
	assert.Equal(t, tx.ConfigId, rx.ConfigId)
	assert.Equal(t, "region-a", rx.ConfigId.NameString())
	assert.Equal(t, tx.CistBridgeId, rx.CistBridgeId)
	assert.Equal(t, uint8(19), rx.CistRemainingHops)
	assert.Equal(t, uint16(15), rx.ForwardDelay)
	assert.Equal(t, tx.Msti, rx.Msti)
	assert.Equal(t, MstId(10), rx.Msti[0].RegionalRootId.SystemId())
	assert.True(t, StpGetBpduMaster(rx.Msti[0].Flags))
	assert.Equal(t, PortRoleRoot, StpGetBpduRole(rx.Msti[0].Flags))
	assert.Equal(t, PortRoleDesignated, StpGetBpduRole(rx.Flags))
	assert.True(t, StpGetBpduTopoChange(rx.Flags))
	assert.True(t, StpGetBpduForwarding(rx.Flags))
	assert.False(t, StpGetBpduForwarding(rx.Msti[0].Flags))
}

func TestBpduTimesAreInUnitsOf256(t *testing.T) {
	bpdu := &Bpdu{Type: BpduTypeConfig, MessageAge: 1, MaxAge: 20, HelloTime: 2, ForwardDelay: 15}
	data := bpdu.Encode()
	require.Len(t, data, BpduConfigSize)
	assert.Equal(t, "0100", hex.EncodeToString(data[27:29]))
	assert.Equal(t, "1400", hex.EncodeToString(data[29:31]))
	assert.Equal(t, "0200", hex.EncodeToString(data[31:33]))
	assert.Equal(t, "0f00", hex.EncodeToString(data[33:35]))
}

func TestBpduTimesRoundToNearestSecond(t *testing.T) {
	data := (&Bpdu{Type: BpduTypeConfig, MaxAge: 20, HelloTime: 2, ForwardDelay: 15}).Encode()
	// 1.5s message age, 19.4s max age, 0.6s hello, 255.99s forward delay
	copy(data[27:29], []byte{0x01, 0x80})
	copy(data[29:31], []byte{0x13, 0x66})
	copy(data[31:33], []byte{0x00, 0x9a})
	copy(data[33:35], []byte{0xff, 0xff})
	rx, err := DecodeBpdu(data)
	require.NoError(t, err)
	assert.Equal(t, uint16(2), rx.MessageAge)
	assert.Equal(t, uint16(19), rx.MaxAge)
	assert.Equal(t, uint16(1), rx.HelloTime)
	assert.Equal(t, uint16(256), rx.ForwardDelay)
}

func TestConfigBpduDropsRoleFlags(t *testing.T) {
	bpdu := &Bpdu{Type: BpduTypeConfig, MaxAge: 20, HelloTime: 2, ForwardDelay: 15}
	StpSetBpduFlags(true, true, true, true, PortRoleDesignated, true, true, &bpdu.Flags)
	rx, err := DecodeBpdu(bpdu.Encode())
	require.NoError(t, err)
	assert.Equal(t, BPDURxTypeSTP, rx.RxType())
	assert.Equal(t, BpduFlagTopoChange|BpduFlagTopoChangeAck, rx.Flags)
}

func TestDecodeBpduErrors(t *testing.T) {
	rst := (&Bpdu{Version: StpVersionRstp, Type: BpduTypeRSTP, MaxAge: 20, HelloTime: 2, ForwardDelay: 15}).Encode()

	_, err := DecodeBpdu([]byte{0x00, 0x00})
	assert.ErrorIs(t, err, ErrBpduTooShort)

	_, err = DecodeBpdu(rst[:BpduConfigSize])
	assert.ErrorIs(t, err, ErrBpduTooShort)

	bad := append([]byte{}, rst...)
	bad[1] = 0x01
	_, err = DecodeBpdu(bad)
	assert.ErrorIs(t, err, ErrBpduBadProtocol)

	bad = append([]byte{}, rst...)
	bad[3] = 0x05
	_, err = DecodeBpdu(bad)
	assert.ErrorIs(t, err, ErrBpduUnknownType)

	// an RST BPDU claiming version 0
	bad = append([]byte{}, rst...)
	bad[2] = StpVersionStp
	_, err = DecodeBpdu(bad)
	assert.ErrorIs(t, err, ErrBpduUnknownType)

	tcn, err := DecodeBpdu([]byte{0x00, 0x00, 0x00, BpduTypeTCN})
	require.NoError(t, err)
	assert.Equal(t, BPDURxTypeTopo, tcn.RxType())
}

func TestMalformedVersion3IsRst(t *testing.T) {
	data := testMstBpdu().Encode()
	// not a multiple of the msti message size
	data[36], data[37] = 0x00, BpduMstpV3BaseLen+1
	rx, err := DecodeBpdu(data)
	require.NoError(t, err)
	assert.Equal(t, BPDURxTypeRSTP, rx.RxType())
	assert.Empty(t, rx.Msti)

	// longer than the frame
	data = testMstBpdu().Encode()
	data[36], data[37] = 0x00, BpduMstpV3BaseLen+3*BpduMstiMsgSize
	rx, err = DecodeBpdu(data)
	require.NoError(t, err)
	assert.Equal(t, BPDURxTypeRSTP, rx.RxType())
}

func TestConfigDigest(t *testing.T) {
	var table [MaxVlanId + 1]MstId
	digest := ComputeConfigDigest(&table)
	// every vlan on the cist
	assert.Equal(t, "ac36177f50283cd4b83821d8ab26de62", hex.EncodeToString(digest[:]))

	table[10] = 10
	other := ComputeConfigDigest(&table)
	assert.NotEqual(t, digest, other)
}

func TestBpduFrameRoundTrip(t *testing.T) {
	tx := testMstBpdu()
	for _, vlan := range []uint16{0, 100} {
		frame, err := BuildBpduFrame(testSrcMac, vlan, tx)
		require.NoError(t, err)

		pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)
		eth := pkt.Layer(layers.LayerTypeEthernet).(*layers.Ethernet)
		assert.Equal(t, BpduDestMAC, eth.DstMAC)
		assert.Equal(t, testSrcMac, eth.SrcMAC)

		rx, info, err := DecodeBpduFrame(frame)
		require.NoError(t, err)
		assert.Equal(t, vlan, info.Vlan)
		assert.Equal(t, vlan != 0, info.Tagged)
		assert.False(t, info.Pvst)
		assert.Equal(t, BPDURxTypeMSTP, rx.RxType())
		assert.Equal(t, tx.Msti, rx.Msti)
	}
}

// pvstFrame builds an untagged frame with the SNAP encapsulation
func pvstFrame(bpdu []byte, dst net.HardwareAddr, pid uint16) []byte {
	frame := make([]byte, 0, 64)
	frame = append(frame, dst...)
	frame = append(frame, testSrcMac...)
	length := 3 + snapHeaderLen + len(bpdu)
	frame = append(frame, byte(length>>8), byte(length))
	frame = append(frame, LlcSapSnap, LlcSapSnap, LlcControlUI)
	frame = append(frame, SnapOuiCisco[:]...)
	frame = append(frame, byte(pid>>8), byte(pid))
	frame = append(frame, bpdu...)
	for len(frame) < 60 {
		frame = append(frame, 0)
	}
	return frame
}

func TestDecodeBpduFrame(t *testing.T) {
	rst := (&Bpdu{Version: StpVersionRstp, Type: BpduTypeRSTP, MaxAge: 20, HelloTime: 2, ForwardDelay: 15}).Encode()

	bpdu, info, err := DecodeBpduFrame(pvstFrame(rst, PvstDestMAC, SnapPidPvst))
	require.NoError(t, err)
	assert.True(t, info.Pvst)
	assert.Equal(t, BPDURxTypeRSTP, bpdu.RxType())

	_, _, err = DecodeBpduFrame(pvstFrame(rst, PvstDestMAC, 0x0800))
	assert.ErrorIs(t, err, ErrBpduBadLlc)

	// snap encapsulation to the ieee group address
	_, _, err = DecodeBpduFrame(pvstFrame(rst, BpduDestMAC, SnapPidPvst))
	assert.ErrorIs(t, err, ErrFrameNotForBridge)

	frame, err := BuildBpduFrame(testSrcMac, 0, &Bpdu{Version: StpVersionRstp, Type: BpduTypeRSTP})
	require.NoError(t, err)
	wrongDst := append([]byte{}, frame...)
	copy(wrongDst[0:6], PvstDestMAC)
	_, _, err = DecodeBpduFrame(wrongDst)
	assert.ErrorIs(t, err, ErrFrameNotForBridge)

	badLlc := append([]byte{}, frame...)
	badLlc[14] = 0x06
	_, _, err = DecodeBpduFrame(badLlc)
	assert.ErrorIs(t, err, ErrBpduBadLlc)

	ipv4 := append([]byte{}, frame...)
	ipv4[12], ipv4[13] = 0x08, 0x00
	_, _, err = DecodeBpduFrame(ipv4)
	assert.ErrorIs(t, err, ErrBpduBadLlc)

	_, _, err = DecodeBpduFrame(frame[:10])
	assert.ErrorIs(t, err, ErrBpduTooShort)
}
