//go:build !cuda

package network

import G "gorgonia.org/gorgonia"

const cudaAvailable = false

func cudaVMOpts(Device) []G.VMOpt {
	return nil
}
