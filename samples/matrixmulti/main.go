package main

import (
	"fmt"

	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/spadverify/accel"
	"github.com/sarchlab/spadverify/api"
	"github.com/sarchlab/spadverify/harness"
	"github.com/sarchlab/spadverify/matrix"
	"github.com/sarchlab/spadverify/spad"
	"github.com/tebeka/atexit"
)

var dim = 2

func fromRows(rows ...[]matrix.Elem) *matrix.Operand {
	m := matrix.NewOperand(len(rows))
	for i, row := range rows {
		copy(m.Row(i), row)
	}
	return m
}

// matrixMulti computes a × b on the accelerator.
func matrixMulti(driver api.Driver, a, b *matrix.Operand) *matrix.Result {
	layout, err := spad.Plan(spad.DefaultGeometry(), dim)
	if err != nil {
		panic(err)
	}

	out := matrix.NewResult(dim)
	harness.Offload(driver, layout, b, a, out)

	return out
}

func buildPlatform(monitor *monitoring.Monitor) api.Driver {
	engine := sim.NewSerialEngine()

	driver := api.DriverBuilder{}.
		WithEngine(engine).
		WithFreq(1 * sim.GHz).
		Build("Driver")

	device := accel.NewBuilder().
		WithEngine(engine).
		WithFreq(1 * sim.GHz).
		WithRowElems(dim).
		Build("Device")

	if monitor != nil {
		monitor.RegisterEngine(engine)
		monitor.RegisterComponent(driver)
		monitor.RegisterComponent(device)
	}

	driver.RegisterDevice(device)

	return driver
}

func run(driver api.Driver) {
	//1 2
	//3 4
	a := fromRows([]matrix.Elem{1, 2}, []matrix.Elem{3, 4})
	//5 6
	//7 8
	b := fromRows([]matrix.Elem{5, 6}, []matrix.Elem{7, 8})

	fmt.Println("a x b:", matrixMulti(driver, a, b).Data)

	bt := matrix.NewOperand(dim)
	if err := matrix.Transpose(b, bt); err != nil {
		panic(err)
	}
	fmt.Println("a x bT:", matrixMulti(driver, a, bt).Data)

	matrix.FlipRows(a)
	fmt.Println("flip(a) x b:", matrixMulti(driver, a, b).Data)
}

func main() {
	monitor := monitoring.NewMonitor()
	driver := buildPlatform(monitor)

	monitor.StartServer()

	run(driver)

	atexit.Exit(0)
}
