//go:build cuda

package network

import G "gorgonia.org/gorgonia"

const cudaAvailable = true

// cudaVMOpts places the model on the default cuda device
func cudaVMOpts(Device) []G.VMOpt {
	return []G.VMOpt{G.UseCudaFor()}
}
