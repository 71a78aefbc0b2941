package harness_test

import (
	"bytes"
	"context"

	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/spadverify/accel"
	"github.com/sarchlab/spadverify/api"
	"github.com/sarchlab/spadverify/gate"
	"github.com/sarchlab/spadverify/harness"
	"github.com/sarchlab/spadverify/matrix"
	"github.com/sarchlab/spadverify/spad"
	"github.com/sarchlab/spadverify/verify"
)

func newDriver(dim int) api.Driver {
	engine := sim.NewSerialEngine()

	driver := api.DriverBuilder{}.
		WithEngine(engine).
		Build("Driver")
	device := accel.NewBuilder().
		WithEngine(engine).
		WithRowElems(dim).
		Build("Accel")
	driver.RegisterDevice(device)

	return driver
}

var _ = Describe("Run", func() {
	It("should pass the reference test", func() {
		opts := harness.DefaultOptions()

		r, err := harness.Run(newDriver(opts.Dim), opts)

		Expect(err).NotTo(HaveOccurred())
		Expect(r.Passed).To(BeTrue())
		Expect(r.Verdict()).To(Equal("Test passed!"))
		Expect(r.Output.Data).To(Equal(r.Expected.Data))
		Expect(r.Layout.Disjoint()).To(BeTrue())
	})

	It("should keep operands in range and the result nonzero", func() {
		opts := harness.DefaultOptions()

		r, err := harness.Run(newDriver(opts.Dim), opts)

		Expect(err).NotTo(HaveOccurred())
		for _, v := range r.Weight.Data {
			Expect(v).To(BeNumerically(">=", 0))
			Expect(v).To(BeNumerically("<=", matrix.MaxValue))
		}
		Expect(r.Expected.Data).To(ContainElement(BeNumerically(">", 0)))
	})

	It("should reproduce the same operands", func() {
		opts := harness.DefaultOptions()

		r1, err := harness.Run(newDriver(opts.Dim), opts)
		Expect(err).NotTo(HaveOccurred())
		r2, err := harness.Run(newDriver(opts.Dim), opts)
		Expect(err).NotTo(HaveOccurred())

		Expect(r1.Weight.Data).To(Equal(r2.Weight.Data))
		Expect(r1.Input.Data).To(Equal(r2.Input.Data))
		Expect(r1.Weight.Data).NotTo(Equal(r1.Input.Data))
	})

	It("should multiply zero matrices to zero", func() {
		opts := harness.DefaultOptions()
		opts.Dim = 8
		opts.Scenario = harness.Zero

		r, err := harness.Run(newDriver(opts.Dim), opts)

		Expect(err).NotTo(HaveOccurred())
		Expect(r.Passed).To(BeTrue())
		Expect(r.Output.Data).To(HaveEach(matrix.Acc(0)))
	})

	It("should pass at the largest supported dimension", func() {
		opts := harness.DefaultOptions()
		opts.Dim = spad.MaxDim(opts.Geometry)

		r, err := harness.Run(newDriver(opts.Dim), opts)

		Expect(err).NotTo(HaveOccurred())
		Expect(r.Passed).To(BeTrue())
	})

	It("should reject an unsupported dimension", func() {
		opts := harness.DefaultOptions()
		opts.Dim = 0

		_, err := harness.Run(nil, opts)

		Expect(err).To(MatchError(spad.ErrUnsupportedDim))
	})

	It("should reject an unknown scenario", func() {
		opts := harness.DefaultOptions()
		opts.Scenario = "ones"

		_, err := harness.Run(nil, opts)

		Expect(err).To(HaveOccurred())
	})

	It("should reject an empty scenario like ParseScenario does", func() {
		opts := harness.DefaultOptions()
		opts.Scenario = ""

		_, err := harness.Run(nil, opts)
		Expect(err).To(HaveOccurred())

		_, err = harness.ParseScenario("")
		Expect(err).To(HaveOccurred())
	})

	It("should report and dump", func() {
		opts := harness.DefaultOptions()
		opts.Dim = 2

		r, err := harness.Run(newDriver(opts.Dim), opts)
		Expect(err).NotTo(HaveOccurred())

		var report, dump bytes.Buffer
		Expect(r.WriteReport(&report)).To(Succeed())
		r.Dump(&dump)

		Expect(report.String()).To(Equal("Test passed!\n"))
		Expect(dump.String()).To(ContainSubstring("Weight"))
		Expect(dump.String()).To(ContainSubstring("Expected"))
	})

	It("should report a failure", func() {
		r := &harness.Result{}
		Expect(r.Verdict()).To(Equal("Test failed!"))
	})
})

var _ = Describe("ParseScenario", func() {
	It("should accept known scenarios", func() {
		Expect(harness.ParseScenario("seeded")).To(Equal(harness.Seeded))
		Expect(harness.ParseScenario("zero")).To(Equal(harness.Zero))
	})

	It("should reject unknown ones", func() {
		_, err := harness.ParseScenario("random")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Offload", func() {
	var (
		mockCtrl *gomock.Controller
		port     *MockPort
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		port = NewMockPort(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should fence before every dependent command", func() {
		dim := 4
		layout, err := spad.Plan(spad.DefaultGeometry(), dim)
		Expect(err).NotTo(HaveOccurred())

		weight := matrix.NewOperand(dim)
		input := matrix.NewOperand(dim)
		output := matrix.NewResult(dim)

		gomock.InOrder(
			port.EXPECT().MoveIn(output.Bytes(), spad.Addr(1028), 16),
			port.EXPECT().MoveIn(weight.Bytes(), spad.Addr(0), 4),
			port.EXPECT().MoveIn(input.Bytes(), spad.Addr(516), 4),
			port.EXPECT().Fence(),
			port.EXPECT().Multiply(
				spad.Addr(0), spad.Addr(516), spad.Addr(1028), 4),
			port.EXPECT().Fence(),
			port.EXPECT().MoveOut(output.Bytes(), spad.Addr(1028), 16),
			port.EXPECT().Fence(),
		)

		harness.Offload(port, layout, weight, input, output)
	})

	It("should produce a hazard-free trace", func() {
		opts := harness.DefaultOptions()
		rec := verify.NewRecorder(newDriver(opts.Dim))

		r, err := harness.Run(rec, opts)

		Expect(err).NotTo(HaveOccurred())
		Expect(r.Passed).To(BeTrue())
		Expect(rec.Commands()).To(HaveLen(8))
		Expect(verify.RunLint(rec.Commands())).To(BeEmpty())
	})
})

var _ = Describe("RunUnit", func() {
	It("should run the designated unit", func() {
		opts := harness.DefaultOptions()
		g := gate.New(true, 1)

		r, err := harness.RunUnit(context.Background(), g, 1,
			newDriver(opts.Dim), opts)

		Expect(err).NotTo(HaveOccurred())
		Expect(r.Passed).To(BeTrue())
	})

	It("should keep other units out", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := harness.RunUnit(ctx, gate.New(true, 1), 0, nil,
			harness.DefaultOptions())

		Expect(err).To(MatchError(gate.ErrExcluded))
	})
})
