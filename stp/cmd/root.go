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

// Package cmd implements the mstpd command line
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vishvananda/netlink"

	"l2mstp/stp/config"
	stp "l2mstp/stp/protocol"
	"l2mstp/stp/rpc"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "mstpd",
	Short: "mstpd - IEEE 802.1Q multiple spanning tree daemon",
	Long: `mstpd runs the MSTP protocol (with RSTP and STP compatibility) over the
ports of a Linux bridge.  BPDUs are exchanged with libpcap and the computed
port states are pushed into the kernel bridge over netlink.`,
	SilenceUsage: true,
}

// Execute runs the command line, it is called once by main
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "/etc/mstpd/mstpd.yaml",
		"config file path")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(validateCmd)
}

func linkIndex(name string) (int32, error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return 0, err
	}
	return int32(link.Attrs().Index), nil
}

// loadConfig reads and checks the config file.  resolve looks up ports
// configured by name only.
func loadConfig(resolve bool) (*config.Config, error) {
	c, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if resolve {
		if err := c.ResolvePorts(linkIndex); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// applyConfig creates the bridge, its ports and instances through the
// handler so the store follows
func applyConfig(h *rpc.STPDServiceHandler, c *config.Config) error {
	if _, err := h.CreateStpBridgeConfig(&c.Bridge); err != nil {
		return fmt.Errorf("bridge: %w", err)
	}
	for i := range c.Ports {
		if _, err := h.CreateStpPortConfig(&c.Ports[i]); err != nil {
			return fmt.Errorf("port %s: %w", c.Ports[i].Name, err)
		}
	}
	for i := range c.Instances {
		if _, err := h.CreateStpInstanceConfig(&c.Instances[i]); err != nil {
			return fmt.Errorf("mst %d: %w", c.Instances[i].MstId, err)
		}
	}
	return nil
}

// offlineLogger keeps stdout for the command output
func offlineLogger() {
	if l := stp.Logger(); l != nil {
		l.SetOutput(os.Stderr)
	}
}

func exitWithError(msg string, err error) {
	stp.StpLogger("ERROR", fmt.Sprintf("%s: %v", msg, err))
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}
