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

// layer.go
package stp

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// LayerTypeMSTP decodes the BPDU carried after the LLC/SNAP header
var LayerTypeMSTP = gopacket.RegisterLayerType(2170, gopacket.LayerTypeMetadata{
	Name:    "MSTP",
	Decoder: gopacket.DecodeFunc(decodeMSTP),
})

// MSTP is a gopacket layer wrapping a Config, TCN, RST or MST BPDU
type MSTP struct {
	layers.BaseLayer
	Bpdu *Bpdu
}

func (m *MSTP) LayerType() gopacket.LayerType { return LayerTypeMSTP }

func (m *MSTP) CanDecode() gopacket.LayerClass { return LayerTypeMSTP }

func (m *MSTP) NextLayerType() gopacket.LayerType { return gopacket.LayerTypeZero }

func (m *MSTP) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	bpdu, err := DecodeBpdu(data)
	if err != nil {
		return err
	}
	m.Bpdu = bpdu
	m.Contents = data
	m.Payload = nil
	return nil
}

func (m *MSTP) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	enc := m.Bpdu.Encode()
	bytes, err := b.PrependBytes(len(enc))
	if err != nil {
		return err
	}
	copy(bytes, enc)
	return nil
}

func decodeMSTP(data []byte, p gopacket.PacketBuilder) error {
	m := &MSTP{}
	if err := m.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(m)
	return nil
}
