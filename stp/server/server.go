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

// Package server runs the protocol engine.  One goroutine owns the bridge
// and serialises received frames, link events, timer ticks and
// configuration requests.
package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	stp "l2mstp/stp/protocol"
)

const (
	STP_RX_PKT_CHANNEL_SIZE   = 256
	STP_LINK_CHANNEL_SIZE     = 64
	STP_TICK_INTERVAL_DEFAULT = time.Second
)

var ErrServerStopped = errors.New("stp server stopped")

// RxPkt is a frame handed over by a transport
type RxPkt struct {
	IfIndex int32
	Vlan    uint16
	Frame   []byte
}

// LinkEvent reports a port's link state
type LinkEvent struct {
	IfIndex    int32
	Up         bool
	FullDuplex bool
}

type cfgReq struct {
	apply func(b *stp.Bridge) error
	// bridge lifecycle requests may run without a bridge
	noBridge bool
	done     chan error
}

type ServerOpt struct {
	TickInterval time.Duration
	Transport    stp.Transport
	Sync         stp.PortStateSync
}

type STPServer struct {
	bridge *stp.Bridge

	opt ServerOpt

	RxPktCh chan RxPkt
	LinkCh  chan LinkEvent
	cfgCh   chan *cfgReq

	wg      sync.WaitGroup
	cancel  context.CancelFunc
	stopped <-chan struct{}
	running bool
	mu      sync.Mutex

	// frames dropped because the rx channel was full
	RxOverrun uint64
}

func NewSTPServer(opt ServerOpt) *STPServer {
	if opt.TickInterval <= 0 {
		opt.TickInterval = STP_TICK_INTERVAL_DEFAULT
	}
	return &STPServer{
		opt:     opt,
		RxPktCh: make(chan RxPkt, STP_RX_PKT_CHANNEL_SIZE),
		LinkCh:  make(chan LinkEvent, STP_LINK_CHANNEL_SIZE),
		cfgCh:   make(chan *cfgReq),
	}
}

// Start launches the channel handler
func (svr *STPServer) Start(ctx context.Context) {
	svr.mu.Lock()
	defer svr.mu.Unlock()
	if svr.running {
		return
	}
	ctx, svr.cancel = context.WithCancel(ctx)
	svr.stopped = ctx.Done()
	svr.running = true
	svr.wg.Add(1)
	go svr.ChannelHandler(ctx)
	stp.StpLogger("INFO", "STP server started")
}

// Stop terminates the channel handler and hands every port back to the
// kernel as forwarding
func (svr *STPServer) Stop() {
	svr.mu.Lock()
	if !svr.running {
		svr.mu.Unlock()
		return
	}
	svr.running = false
	svr.cancel()
	svr.mu.Unlock()
	svr.wg.Wait()
	if svr.bridge != nil {
		svr.bridge.Stop()
	}
	stp.StpLogger("INFO", "STP server stopped")
}

// ChannelHandler is the only goroutine touching the bridge
func (svr *STPServer) ChannelHandler(ctx context.Context) {
	defer svr.wg.Done()
	ticker := time.NewTicker(svr.opt.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if svr.bridge != nil {
				svr.bridge.Tick()
			}
		case pkt := <-svr.RxPktCh:
			if svr.bridge == nil {
				continue
			}
			if err := svr.bridge.RxFrame(pkt.IfIndex, pkt.Vlan, pkt.Frame); err != nil {
				stp.StpLogger("DEBUG", fmt.Sprintf("rx port %d: %s", pkt.IfIndex, err))
			}
		case ev := <-svr.LinkCh:
			svr.handleLinkEvent(ev)
		case req := <-svr.cfgCh:
			req.done <- svr.handleCfgReq(req)
		}
	}
}

func (svr *STPServer) handleLinkEvent(ev LinkEvent) {
	if svr.bridge == nil || svr.bridge.GetPort(ev.IfIndex) == nil {
		return
	}
	var err error
	if ev.Up {
		err = svr.bridge.PortEnable(ev.IfIndex, ev.FullDuplex)
	} else {
		err = svr.bridge.PortDisable(ev.IfIndex)
	}
	if err != nil {
		stp.StpLogger("ERROR", fmt.Sprintf("link event port %d: %s", ev.IfIndex, err))
	}
}

func (svr *STPServer) handleCfgReq(req *cfgReq) error {
	if svr.bridge == nil && !req.noBridge {
		return stp.ErrBridgeNotFound
	}
	return req.apply(svr.bridge)
}

func (svr *STPServer) submit(req *cfgReq) error {
	svr.mu.Lock()
	running, stopped := svr.running, svr.stopped
	svr.mu.Unlock()
	if !running {
		// nobody else touches the bridge before the handler starts
		return svr.handleCfgReq(req)
	}
	req.done = make(chan error, 1)
	select {
	case svr.cfgCh <- req:
	case <-stopped:
		return ErrServerStopped
	}
	return <-req.done
}

// Do runs fn on the engine goroutine and returns its result
func (svr *STPServer) Do(fn func(b *stp.Bridge) error) error {
	return svr.submit(&cfgReq{apply: fn})
}

// RxPkt queues a received frame.  The frame is dropped when the engine is
// not keeping up.
func (svr *STPServer) RxPkt(ifindex int32, vlan uint16, frame []byte) {
	select {
	case svr.RxPktCh <- RxPkt{IfIndex: ifindex, Vlan: vlan, Frame: frame}:
	default:
		atomic.AddUint64(&svr.RxOverrun, 1)
	}
}

// LinkState queues a link up/down event
func (svr *STPServer) LinkState(ifindex int32, up bool, fullDuplex bool) error {
	svr.mu.Lock()
	stopped := svr.stopped
	svr.mu.Unlock()
	select {
	case svr.LinkCh <- LinkEvent{IfIndex: ifindex, Up: up, FullDuplex: fullDuplex}:
		return nil
	case <-stopped:
		return ErrServerStopped
	}
}

// CreateBridge creates and starts the bridge
func (svr *STPServer) CreateBridge(c *stp.StpBridgeConfig) error {
	return svr.submit(&cfgReq{
		noBridge: true,
		apply: func(b *stp.Bridge) error {
			if b != nil {
				return stp.ErrBridgeExists
			}
			nb, err := stp.NewStpBridge(c, svr.opt.Transport, svr.opt.Sync)
			if err != nil {
				return err
			}
			svr.bridge = nb
			nb.Start()
			return nil
		},
	})
}

// DeleteBridge stops the bridge and drops it
func (svr *STPServer) DeleteBridge() error {
	return svr.Do(func(b *stp.Bridge) error {
		b.Stop()
		svr.bridge = nil
		return nil
	})
}

// UpdateBridge applies every changed bridge attribute
func (svr *STPServer) UpdateBridge(c *stp.StpBridgeConfig) error {
	return svr.Do(func(b *stp.Bridge) error {
		return b.UpdateBridge(c)
	})
}

func (svr *STPServer) CreatePort(c *stp.StpPortConfig) error {
	return svr.Do(func(b *stp.Bridge) error {
		return b.PortAdd(c)
	})
}

func (svr *STPServer) UpdatePort(c *stp.StpPortConfig) error {
	return svr.Do(func(b *stp.Bridge) error {
		return b.UpdatePort(c)
	})
}

func (svr *STPServer) DeletePort(ifindex int32) error {
	return svr.Do(func(b *stp.Bridge) error {
		return b.PortDelete(ifindex)
	})
}

func (svr *STPServer) CreateInstance(c *stp.StpInstanceConfig) error {
	return svr.Do(func(b *stp.Bridge) error {
		return b.ApplyInstanceConfig(c)
	})
}

// DeleteInstance returns every vlan of the instance to the CIST which
// deletes the instance
func (svr *STPServer) DeleteInstance(mstid uint16) error {
	return svr.Do(func(b *stp.Bridge) error {
		tb := b.FindTree(stp.MstId(mstid))
		if tb == nil || tb.IsCist() {
			return fmt.Errorf("mstid %d: %w", mstid, stp.ErrInstanceNotFound)
		}
		return b.DetachVlans(tb.MstId, tb.VlanMask)
	})
}

func (svr *STPServer) BridgeInfo() (stp.BridgeInfo, error) {
	var info stp.BridgeInfo
	err := svr.Do(func(b *stp.Bridge) error {
		info = b.Info()
		return nil
	})
	return info, err
}

func (svr *STPServer) PortInfoList() ([]stp.PortInfo, error) {
	var list []stp.PortInfo
	err := svr.Do(func(b *stp.Bridge) error {
		list = b.PortInfoList()
		return nil
	})
	return list, err
}
