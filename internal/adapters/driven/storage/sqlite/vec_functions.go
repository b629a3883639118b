package sqlite

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	sqlite "modernc.org/sqlite"
)

// vecL2Function is the SQL name of the distance function.
const vecL2Function = "vec_l2"

// extension registers the sidecar's SQL functions with the driver.
// Registration is global to the driver and only affects connections
// opened afterwards, so it must succeed before the sidecar connects.
type extension struct {
	once     sync.Once
	err      error
	register func() error
}

// sharedExtension is the process-wide registration state.
var sharedExtension = &extension{register: registerVectorFunctions}

// load registers the functions on first call and caches the result.
func (e *extension) load() error {
	e.once.Do(func() {
		e.err = e.register()
	})
	return e.err
}

func registerVectorFunctions() error {
	return sqlite.RegisterDeterministicScalarFunction(vecL2Function, 2, vecL2Impl)
}

// vecL2Impl returns the L2 distance between two embedding blobs, or NULL
// when either is missing or their lengths differ.
func vecL2Impl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("vec_l2: expected 2 arguments, got %d", len(args))
	}
	a, ok := args[0].([]byte)
	if !ok {
		return nil, nil
	}
	b, ok := args[1].([]byte)
	if !ok {
		return nil, nil
	}
	if len(a) != len(b) || len(a)%4 != 0 || len(a) == 0 {
		return nil, nil
	}

	var sum float64
	for i := 0; i < len(a); i += 4 {
		va := math.Float32frombits(binary.LittleEndian.Uint32(a[i:]))
		vb := math.Float32frombits(binary.LittleEndian.Uint32(b[i:]))
		d := float64(va) - float64(vb)
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
