package config

import (
	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/spadverify/accel"
	"github.com/sarchlab/spadverify/api"
)

// Platform is a driver connected to an accelerator, both running on one
// engine.
type Platform struct {
	Engine  sim.Engine
	Driver  api.Driver
	Device  *accel.Accelerator
	Monitor *monitoring.Monitor
}

// PlatformBuilder can build test platforms.
type PlatformBuilder struct {
	config  Config
	monitor bool
}

// MakePlatformBuilder creates a builder with the default configuration.
func MakePlatformBuilder() PlatformBuilder {
	return PlatformBuilder{config: Default()}
}

// WithConfig sets the configuration of the platform.
func (b PlatformBuilder) WithConfig(c Config) PlatformBuilder {
	b.config = c
	return b
}

// WithMonitor attaches an akita monitor to the engine and both components.
// The caller starts its server.
func (b PlatformBuilder) WithMonitor(enabled bool) PlatformBuilder {
	b.monitor = enabled
	return b
}

// Build creates a platform.
func (b PlatformBuilder) Build(name string) *Platform {
	p := &Platform{
		Engine: sim.NewSerialEngine(),
	}

	freq := b.config.Freq()

	p.Driver = api.DriverBuilder{}.
		WithEngine(p.Engine).
		WithFreq(freq).
		Build(name + ".Driver")

	p.Device = accel.NewBuilder().
		WithEngine(p.Engine).
		WithFreq(freq).
		WithGeometry(b.config.Geometry()).
		WithRowElems(b.config.Dim).
		WithDMARowsPerCycle(b.config.DMARowsPerCycle).
		WithMultiplyLatency(b.config.MultiplyLatency).
		Build(name + ".Accel")

	p.Driver.RegisterDevice(p.Device)

	if b.monitor {
		p.Monitor = monitoring.NewMonitor()
		p.Monitor.RegisterEngine(p.Engine)
		p.Monitor.RegisterComponent(p.Driver)
		p.Monitor.RegisterComponent(p.Device)
	}

	return p
}
