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

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"l2mstp/stp/config"
	"l2mstp/stp/hw"
	stp "l2mstp/stp/protocol"
	"l2mstp/stp/rpc"
	"l2mstp/stp/server"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the daemon",
	Long: `Run the daemon in the foreground until SIGINT or SIGTERM.

The configuration saved in db_dir is replayed when present, otherwise the
bridge, ports and instances of the config file are applied and saved.`,
	Run: func(cmd *cobra.Command, args []string) {
		c, err := loadConfig(true)
		if err != nil {
			exitWithError("failed to load config", err)
		}
		if err := c.Validate(); err != nil {
			exitWithError("invalid config", err)
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := runDaemon(ctx, c); err != nil {
			exitWithError("daemon failed", err)
		}
	},
}

func setupLogger(c *config.Config) error {
	l := stp.Logger()
	if l == nil {
		return nil
	}
	if err := l.SetLevel(c.Daemon.LogLevel); err != nil {
		return err
	}
	if c.Log.Filename != "" {
		l.AddFileAppender(c.Log)
	}
	return nil
}

func runDaemon(ctx context.Context, c *config.Config) error {
	if err := setupLogger(c); err != nil {
		return err
	}
	if l := stp.Logger(); l != nil {
		defer l.Close()
	}

	var svr *server.STPServer
	opt := server.ServerOpt{TickInterval: c.Daemon.TickInterval}
	var capture *hw.PcapTransport
	if c.Daemon.Capture {
		capture = hw.NewPcapTransport(func(ifindex int32, vlan uint16, frame []byte) {
			svr.RxPkt(ifindex, vlan, frame)
		})
		defer capture.Close()
		opt.Transport = capture
	}
	if c.Daemon.Netlink {
		opt.Sync = hw.NewNetlinkSync()
	}
	svr = server.NewSTPServer(opt)

	var store *rpc.ConfigStore
	if c.Daemon.DBDir != "" {
		var err error
		if store, err = rpc.OpenConfigStore(c.Daemon.DBDir); err != nil {
			return err
		}
		defer store.Close()
	}
	handler := rpc.NewSTPDServiceHandler(svr, store)

	// lets replay any config that is in the db
	err := handler.ReadConfigFromDB()
	switch {
	case errors.Is(err, rpc.ErrNoConfig):
		if err := applyConfig(handler, c); err != nil {
			return err
		}
	case err != nil:
		return err
	}

	ports, err := svr.PortInfoList()
	if err != nil {
		return err
	}
	ifindexes := make([]int32, 0, len(ports))
	for _, p := range ports {
		ifindexes = append(ifindexes, p.IfIndex)
		if capture != nil {
			if err := capture.AddPort(p.IfIndex, p.Name); err != nil {
				return fmt.Errorf("port %s: %w", p.Name, err)
			}
		}
	}

	svr.Start(ctx)
	defer svr.Stop()

	stp.StpLogger("INFO", fmt.Sprintf("Starting MSTP daemon with %d ports", len(ifindexes)))
	if !c.Daemon.Netlink {
		// without link events every port is taken as up
		for _, ifindex := range ifindexes {
			if err := svr.LinkState(ifindex, true, true); err != nil {
				return err
			}
		}
		<-ctx.Done()
		return nil
	}
	return hw.NewLinkWatcher(ifindexes, svr.LinkState).Run(ctx)
}
