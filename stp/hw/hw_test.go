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

// hw_test.go
package hw

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink"
	"golang.org/x/net/bpf"

	stp "l2mstp/stp/protocol"
)

func buildFrame(t *testing.T, dst string, vlan uint16) []byte {
	dmac, err := net.ParseMAC(dst)
	require.NoError(t, err)
	smac, _ := net.ParseMAC("00:11:22:33:44:55")
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	llc := layers.LLC{DSAP: 0x42, SSAP: 0x42, Control: 0x03}
	payload := gopacket.Payload(make([]byte, 36))
	if vlan != 0 {
		eth := layers.Ethernet{SrcMAC: smac, DstMAC: dmac, EthernetType: layers.EthernetTypeDot1Q}
		tag := layers.Dot1Q{VLANIdentifier: vlan, Type: layers.EthernetType(39)}
		require.NoError(t, gopacket.SerializeLayers(buf, opts, &eth, &tag, &llc, payload))
	} else {
		eth := layers.Ethernet{SrcMAC: smac, DstMAC: dmac, EthernetType: layers.EthernetTypeLLC}
		require.NoError(t, gopacket.SerializeLayers(buf, opts, &eth, &llc, payload))
	}
	return buf.Bytes()
}

func TestBpduFilter(t *testing.T) {
	_, err := BpduFilterProgram()
	require.NoError(t, err)

	vm, err := bpf.NewVM(bpduFilter)
	require.NoError(t, err)

	for _, tc := range []struct {
		dst    string
		vlan   uint16
		accept bool
	}{
		{"01:80:c2:00:00:00", 0, true},
		{"01:80:c2:00:00:00", 100, true},
		{"01:00:0c:cc:cc:cd", 0, true},
		{"01:80:c2:00:00:0e", 0, false},
		{"01:00:0c:cc:cc:cc", 0, false},
		{"ff:ff:ff:ff:ff:ff", 0, false},
	} {
		n, err := vm.Run(buildFrame(t, tc.dst, tc.vlan))
		require.NoError(t, err)
		assert.Equal(t, tc.accept, n > 0, "dst %s vlan %d", tc.dst, tc.vlan)
	}
}

func TestFrameVlan(t *testing.T) {
	pkt := gopacket.NewPacket(buildFrame(t, "01:80:c2:00:00:00", 42), layers.LayerTypeEthernet, gopacket.Default)
	assert.Equal(t, uint16(42), frameVlan(pkt))
	pkt = gopacket.NewPacket(buildFrame(t, "01:80:c2:00:00:00", 0), layers.LayerTypeEthernet, gopacket.Default)
	assert.Equal(t, uint16(0), frameVlan(pkt))
}

func TestPortFlags(t *testing.T) {
	for _, tc := range []struct {
		state    stp.PortState
		learning bool
		flood    bool
	}{
		{stp.PortStateDisabled, false, false},
		{stp.PortStateDiscarding, false, false},
		{stp.PortStateLearning, true, false},
		{stp.PortStateForwarding, true, true},
	} {
		learning, flood := portFlags(tc.state)
		assert.Equal(t, tc.learning, learning, tc.state.String())
		assert.Equal(t, tc.flood, flood, tc.state.String())
	}
}

func TestFlushEntry(t *testing.T) {
	vlans, err := stp.ParseVlanList("10-19")
	require.NoError(t, err)

	assert.True(t, flushEntry(&netlink.Neigh{Vlan: 10}, 1, vlans))
	assert.False(t, flushEntry(&netlink.Neigh{Vlan: 20}, 1, vlans))
	// untagged entries follow the CIST
	assert.False(t, flushEntry(&netlink.Neigh{}, 1, vlans))
	assert.True(t, flushEntry(&netlink.Neigh{}, stp.CistMstId, vlans))
	assert.False(t, flushEntry(&netlink.Neigh{Vlan: 10, State: netlink.NUD_PERMANENT}, 1, vlans))
	assert.False(t, flushEntry(&netlink.Neigh{Vlan: 10, Flags: netlink.NTF_SELF}, 1, vlans))
}
