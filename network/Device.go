package network

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	G "gorgonia.org/gorgonia"
)

// ErrDeviceUnavailable is returned when a model is placed on a device
// that this binary cannot use
var ErrDeviceUnavailable = errors.New("device unavailable")

// DeviceKind is the kind of compute device a model runs on
type DeviceKind string

const (
	CPUKind  DeviceKind = "cpu"
	CUDAKind DeviceKind = "cuda"
)

// Device identifies a compute device, e.g. cpu or cuda:1
type Device struct {
	Kind  DeviceKind
	Index int
}

// CPU is the host device
var CPU = Device{Kind: CPUKind}

// ParseDevice parses a device identifier of the form "cpu", "cuda" or
// "cuda:<index>"
func ParseDevice(s string) (Device, error) {
	name, index, hasIndex := strings.Cut(strings.ToLower(s), ":")

	d := Device{Kind: DeviceKind(name)}
	switch d.Kind {
	case CPUKind:
		if hasIndex {
			return Device{}, fmt.Errorf("parseDevice: cpu takes no index, "+
				"got %q", s)
		}
		return d, nil

	case CUDAKind:
		if !hasIndex {
			return d, nil
		}
		i, err := strconv.Atoi(index)
		if err != nil || i < 0 {
			return Device{}, fmt.Errorf("parseDevice: invalid device index "+
				"in %q", s)
		}
		d.Index = i
		return d, nil
	}

	return Device{}, fmt.Errorf("parseDevice: unknown device %q", s)
}

// IsCPU returns whether the device is the host CPU
func (d Device) IsCPU() bool {
	return d.Kind == CPUKind
}

// String implements the fmt.Stringer interface
func (d Device) String() string {
	if d.IsCPU() {
		return string(d.Kind)
	}
	return fmt.Sprintf("%v:%v", d.Kind, d.Index)
}

// vmOpts returns the tape machine options that place a model on the
// device. Gorgonia picks the cuda device itself, so only index 0 is
// accepted.
func (d Device) vmOpts() ([]G.VMOpt, error) {
	if d.IsCPU() {
		return nil, nil
	}
	if d.Index != 0 {
		return nil, fmt.Errorf("%w: %v (only the first cuda device is "+
			"supported)", ErrDeviceUnavailable, d)
	}
	if !cudaAvailable {
		return nil, fmt.Errorf("%w: %v (binary built without cuda support)",
			ErrDeviceUnavailable, d)
	}
	return cudaVMOpts(d), nil
}
