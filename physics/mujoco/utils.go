//go:build mujoco

package mujoco

// #cgo LDFLAGS: -lmujoco
// #include <mujoco/mujoco.h>
// #include <stdlib.h>
import "C"

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/samuelfneumann/tripod/mjcf"
)

// loadModel compiles a composed model. MuJoCo only compiles from
// files or a virtual file system, so the model is written to a
// temporary file first.
func loadModel(model *mjcf.Model) (*C.mjModel, *C.mjData, error) {
	xml, err := model.Bytes()
	if err != nil {
		return nil, nil, fmt.Errorf("loadModel: %v", err)
	}

	f, err := os.CreateTemp("", "tripod-*.xml")
	if err != nil {
		return nil, nil, fmt.Errorf("loadModel: %v", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(xml); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("loadModel: %v", err)
	}
	if err := f.Close(); err != nil {
		return nil, nil, fmt.Errorf("loadModel: %v", err)
	}

	return loadXML(f.Name())
}

func loadXML(file string) (*C.mjModel, *C.mjData, error) {
	// Create mjModel from XML
	modelName := C.CString(file)
	defer C.free(unsafe.Pointer(modelName))
	var errBuf [1000]C.char
	model := C.mj_loadXML(
		modelName,
		nil,
		&errBuf[0],
		C.int(len(errBuf)),
	)
	goErr := C.GoString(&errBuf[0])
	if model == nil {
		return nil, nil, fmt.Errorf("loadXML: could not construct model: %v",
			goErr)
	}

	// Create the mjData
	data := C.mj_makeData(model)
	if data == nil {
		C.mj_deleteModel(model)
		return nil, nil, fmt.Errorf("loadXML: could not construct mjData")
	}

	return model, data, nil
}

// f64SliceC2Go converts a copy of a C double array to a Go []float64
//
// See https://github.com/golang/go/wiki/cgo#turning-c-arrays-into-go-slices
func f64SliceC2Go(array *C.mjtNum, n int) []float64 {
	if n == 0 {
		return []float64{}
	}
	list := unsafe.Slice((*float64)(unsafe.Pointer(array)), n)

	newList := make([]float64, n)
	copy(newList, list)
	return newList
}

// f64SliceGo2C copies values into a C double array of at least
// len(values) elements
func f64SliceGo2C(array *C.mjtNum, values []float64) {
	if len(values) == 0 {
		return
	}
	copy(unsafe.Slice((*float64)(unsafe.Pointer(array)), len(values)), values)
}

func i32SliceC2Go(array *C.int, n int) []int {
	if n == 0 {
		return []int{}
	}
	list := unsafe.Slice(array, n)
	newList := make([]int, n)
	for i, v := range list {
		newList[i] = int(v)
	}
	return newList
}

func byteSliceC2Go(array *C.mjtByte, n int) []bool {
	if n == 0 {
		return []bool{}
	}
	list := unsafe.Slice(array, n)
	newList := make([]bool, n)
	for i, v := range list {
		newList[i] = v != 0
	}
	return newList
}
