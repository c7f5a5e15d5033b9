package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
)

// halProvider is the shape a DeviceProvider must have to hand out raw HAL
// handles. gogpu's context provider implements it.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// NewContextFromProvider creates a dedicated-thread context sharing the GPU
// device of an external host (e.g. a gogpu application). The provider must
// expose HAL access; sharing avoids creating a second GPU instance.
//
// The context RECEIVES the device from the host, it does not create one:
// device ownership and teardown stay with the host.
func NewContextFromProvider(name string, provider gpucontext.DeviceProvider) (*Context, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}

	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALAccess
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALAccess)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALAccess)
	}

	return NewContext(ContextOptions{
		Name:            name,
		DedicatedThread: true,
		Device:          device,
		Queue:           queue,
	}), nil
}
