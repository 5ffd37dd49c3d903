package network

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// FormatVersion is the version of the parameter file layout written by
// Save. Load refuses files of any other version.
const FormatVersion = 1

// paramHeader is the first value encoded in a parameter file
type paramHeader struct {
	Version int
	Arch    Architecture
}

// ParamFile returns the name of the parameter file for the model
// trained with the scalar constant c, e.g. learn_dynamics_lmd_0.7.gob
func ParamFile(c float64) string {
	return "learn_dynamics_lmd_" + strconv.FormatFloat(c, 'f', -1, 64) +
		".gob"
}

// ParamPath returns the path of the parameter file for the constant c
// in directory dir
func ParamPath(dir string, c float64) string {
	return filepath.Join(dir, ParamFile(c))
}

// Save writes the architecture and weights of the model to path
func (m *ForwardModel) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: could not create parameter file: %v", err)
	}
	defer file.Close()

	enc := gob.NewEncoder(file)
	if err := enc.Encode(paramHeader{FormatVersion, m.arch}); err != nil {
		return fmt.Errorf("save: could not encode header: %v", err)
	}

	for _, node := range m.Learnables() {
		data, ok := node.Value().Data().([]float64)
		if !ok {
			return fmt.Errorf("save: node %v does not hold float64 data",
				node.Name())
		}
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("save: could not encode node %v: %v",
				node.Name(), err)
		}
	}

	return file.Close()
}

// Load reads a parameter file written by Save and returns the model
// it describes on the given device. Weights are always decoded into
// host memory first.
func Load(path string, device Device) (*ForwardModel, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load: could not open parameter file: %v",
			err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)

	var header paramHeader
	if err := dec.Decode(&header); err != nil {
		return nil, fmt.Errorf("load: could not decode header of %v: %v",
			path, err)
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("load: parameter file %v has format version "+
			"%v, want %v", path, header.Version, FormatVersion)
	}

	m, err := New(header.Arch, device, G.Zeroes())
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	for _, node := range m.Learnables() {
		var data []float64
		if err := dec.Decode(&data); err != nil {
			return nil, fmt.Errorf("load: could not decode node %v: %v",
				node.Name(), err)
		}
		if len(data) != node.Shape().TotalSize() {
			return nil, fmt.Errorf("load: node %v has %v parameters, want %v",
				node.Name(), len(data), node.Shape().TotalSize())
		}

		value := tensor.New(
			tensor.WithBacking(data),
			tensor.WithShape(node.Shape()...),
		)
		if err := G.Let(node, value); err != nil {
			return nil, fmt.Errorf("load: could not set node %v: %v",
				node.Name(), err)
		}
	}

	return m, nil
}
