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
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"l2mstp/stp/config"
	stp "l2mstp/stp/protocol"
	"l2mstp/stp/rpc"
	"l2mstp/stp/server"
)

var (
	showStored bool
	showLinkUp bool
)

type showOutput struct {
	Bridge stp.BridgeInfo `yaml:"bridge"`
	Ports  []stp.PortInfo `yaml:"ports"`
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the bridge as configured",
	Long: `Start the configuration on an offline bridge and print the bridge and port
state as yaml.  With --stored the configuration saved by the daemon is used
instead of the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		offlineLogger()
		c, err := loadConfig(false)
		if err != nil {
			return err
		}
		svr := server.NewSTPServer(server.ServerOpt{})
		if showStored {
			err = showFromStore(svr, c)
		} else {
			err = applyConfig(rpc.NewSTPDServiceHandler(svr, nil), c)
		}
		if err != nil {
			return err
		}
		if showLinkUp {
			err = svr.Do(func(b *stp.Bridge) error {
				for _, p := range b.Ports() {
					if err := b.PortEnable(p.IfIndex, true); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		var out showOutput
		if out.Bridge, err = svr.BridgeInfo(); err != nil {
			return err
		}
		if out.Ports, err = svr.PortInfoList(); err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(&out)
	},
}

func showFromStore(svr *server.STPServer, c *config.Config) error {
	if c.Daemon.DBDir == "" {
		return errors.New("no db_dir configured")
	}
	store, err := rpc.OpenConfigStore(c.Daemon.DBDir)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := rpc.NewSTPDServiceHandler(svr, store).ReadConfigFromDB(); err != nil {
		return fmt.Errorf("stored config: %w", err)
	}
	return nil
}

func init() {
	showCmd.Flags().BoolVarP(&showStored, "stored", "s", false,
		"use the configuration saved by the daemon")
	showCmd.Flags().BoolVarP(&showLinkUp, "up", "u", false,
		"bring every port up before printing")
}
