package recordsync

import (
	"fmt"
	"sort"
	"sync"

	eng "github.com/reoring/recordsync/internal/engine"
	drvgojson "github.com/reoring/recordsync/source/gojson"
	drvjson "github.com/reoring/recordsync/source/json"
)

// Token and TokenSource are the driver-facing token stream types.
type (
	Token       = eng.Token
	TokenSource = eng.TokenSource
)

// Driver turns JSON text into a TokenSource via a pluggable SPI. The default
// implementation is based on encoding/json because it reports a byte offset
// for every token; go-json can be swapped in with SetDriver or WithDriver.
type Driver interface {
	NewBytes(b []byte) TokenSource
	Name() string
}

type encodingJSONDriver struct{}

func (encodingJSONDriver) NewBytes(b []byte) TokenSource { return drvjson.NewBytes(b) }
func (encodingJSONDriver) Name() string                  { return drvjson.Name }

type goJSONDriver struct{}

func (goJSONDriver) NewBytes(b []byte) TokenSource { return drvgojson.NewBytes(b) }
func (goJSONDriver) Name() string                  { return drvgojson.Name }

var (
	driverMu      sync.RWMutex
	currentDrv    Driver = encodingJSONDriver{}
	builtinDriver        = map[string]Driver{
		drvjson.Name:   encodingJSONDriver{},
		drvgojson.Name: goJSONDriver{},
	}
)

// SetDriver replaces the process-wide driver; nil values are ignored.
func SetDriver(d Driver) {
	if d == nil {
		return
	}
	driverMu.Lock()
	currentDrv = d
	driverMu.Unlock()
}

// UseDefaultDriver restores the encoding/json driver.
func UseDefaultDriver() {
	driverMu.Lock()
	currentDrv = encodingJSONDriver{}
	driverMu.Unlock()
}

func currentDriver() Driver {
	driverMu.RLock()
	d := currentDrv
	driverMu.RUnlock()
	return d
}

// DriverByName returns a built-in driver ("encoding/json" or "go-json").
// An empty name selects the default.
func DriverByName(name string) (Driver, error) {
	if name == "" {
		return encodingJSONDriver{}, nil
	}
	if d, ok := builtinDriver[name]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("recordsync: unknown json driver %q (known: %v)", name, DriverNames())
}

// DriverNames lists the built-in driver names in sorted order.
func DriverNames() []string {
	names := make([]string, 0, len(builtinDriver))
	for n := range builtinDriver {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
