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
	"fmt"

	"github.com/spf13/cobra"

	"l2mstp/stp/rpc"
	"l2mstp/stp/server"
)

var validateResolve bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config file",
	Long: `Validate the config file without touching any interface.

Every object is checked on its own and then applied to an offline bridge so
references between ports and instances are checked as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		offlineLogger()
		c, err := loadConfig(validateResolve)
		if err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("INVALID: %w", err)
		}
		svr := server.NewSTPServer(server.ServerOpt{})
		if err := applyConfig(rpc.NewSTPDServiceHandler(svr, nil), c); err != nil {
			return fmt.Errorf("INVALID: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "VALID: bridge %q %d port(s) %d instance(s)\n",
			c.Bridge.Name, len(c.Ports), len(c.Instances))
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVarP(&validateResolve, "resolve", "r", false,
		"look up the ifindex of ports configured by name")
}
