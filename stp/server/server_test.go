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

// server_test.go
package server

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stp "l2mstp/stp/protocol"
)

type countingTransport struct {
	sent int64
}

func (t *countingTransport) Send(port int32, vlan uint16, frame []byte, tagged bool) error {
	atomic.AddInt64(&t.sent, 1)
	return nil
}

func newTestServer(t *testing.T, tr stp.Transport) *STPServer {
	svr := NewSTPServer(ServerOpt{TickInterval: 5 * time.Millisecond, Transport: tr})
	bc := stp.DefaultStpBridgeConfig()
	bc.Address = "00:11:22:33:44:00"
	require.NoError(t, svr.CreateBridge(&bc))
	return svr
}

func TestServerConfigWithoutBridge(t *testing.T) {
	svr := NewSTPServer(ServerOpt{})
	_, err := svr.BridgeInfo()
	assert.ErrorIs(t, err, stp.ErrBridgeNotFound)

	pc := stp.DefaultStpPortConfig(1, "eth1")
	assert.ErrorIs(t, svr.CreatePort(&pc), stp.ErrBridgeNotFound)

	bc := stp.DefaultStpBridgeConfig()
	require.NoError(t, svr.CreateBridge(&bc))
	assert.ErrorIs(t, svr.CreateBridge(&bc), stp.ErrBridgeExists)

	require.NoError(t, svr.DeleteBridge())
	_, err = svr.BridgeInfo()
	assert.ErrorIs(t, err, stp.ErrBridgeNotFound)
}

func TestServerPortComesUp(t *testing.T) {
	tr := &countingTransport{}
	svr := newTestServer(t, tr)
	pc := stp.DefaultStpPortConfig(1, "eth1")
	require.NoError(t, svr.CreatePort(&pc))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svr.Start(ctx)
	defer svr.Stop()

	require.NoError(t, svr.LinkState(1, true, true))

	// no bpdu is received so the port turns edge and forwards
	assert.Eventually(t, func() bool {
		ports, err := svr.PortInfoList()
		if err != nil || len(ports) != 1 {
			return false
		}
		return ports[0].OperEdge && ports[0].Trees[0].State == stp.PortStateForwarding.String()
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, atomic.LoadInt64(&tr.sent) > 0)

	info, err := svr.BridgeInfo()
	require.NoError(t, err)
	assert.True(t, info.Active)
	assert.True(t, info.TickCount > 0)

	require.NoError(t, svr.LinkState(1, false, true))
	assert.Eventually(t, func() bool {
		ports, err := svr.PortInfoList()
		return err == nil && ports[0].Trees[0].State == stp.PortStateDisabled.String()
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServerInstances(t *testing.T) {
	svr := newTestServer(t, nil)
	for _, ifindex := range []int32{1, 2} {
		pc := stp.DefaultStpPortConfig(ifindex, "")
		require.NoError(t, svr.CreatePort(&pc))
	}
	svr.Start(context.Background())
	defer svr.Stop()

	ic := stp.DefaultStpInstanceConfig(10)
	ic.Vlans = "100-110"
	require.NoError(t, svr.CreateInstance(&ic))

	info, err := svr.BridgeInfo()
	require.NoError(t, err)
	require.Len(t, info.Instances, 2)
	assert.Equal(t, "1-2", info.Instances[1].Ports)
	assert.Equal(t, stp.MaxMstInstances-1, info.FreeSlots)

	assert.ErrorIs(t, svr.DeleteInstance(11), stp.ErrInstanceNotFound)
	require.NoError(t, svr.DeleteInstance(10))
	info, err = svr.BridgeInfo()
	require.NoError(t, err)
	assert.Len(t, info.Instances, 1)
	assert.Equal(t, stp.MaxMstInstances, info.FreeSlots)

	bc := stp.DefaultStpBridgeConfig()
	bc.Address = "00:11:22:33:44:00"
	bc.Priority = 4096
	bc.RegionName = "lab"
	require.NoError(t, svr.UpdateBridge(&bc))
	info, err = svr.BridgeInfo()
	require.NoError(t, err)
	assert.Equal(t, "lab", info.RegionName)
	assert.Equal(t, "1000.00:11:22:33:44:00", info.Instances[0].BridgeId)

	bc.Address = "00:11:22:33:44:01"
	assert.ErrorIs(t, svr.UpdateBridge(&bc), stp.ErrInvalidParam)
}

func TestServerRxOverrun(t *testing.T) {
	svr := NewSTPServer(ServerOpt{})
	for i := 0; i < STP_RX_PKT_CHANNEL_SIZE+3; i++ {
		svr.RxPkt(1, 0, nil)
	}
	assert.Equal(t, uint64(3), atomic.LoadUint64(&svr.RxOverrun))
}

func TestServerStopAndDo(t *testing.T) {
	svr := newTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	svr.Start(ctx)
	var active bool
	require.NoError(t, svr.Do(func(b *stp.Bridge) error {
		active = b.Active
		return nil
	}))
	assert.True(t, active)

	// cancelling the context stops the handler, requests fail until Stop
	cancel()
	assert.Eventually(t, func() bool {
		return svr.Do(func(b *stp.Bridge) error { return nil }) == ErrServerStopped
	}, time.Second, 5*time.Millisecond)
	svr.Stop()
	require.NoError(t, svr.Do(func(b *stp.Bridge) error {
		active = b.Active
		return nil
	}))
	assert.False(t, active)
}
