package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/spadverify/config"
	"github.com/sarchlab/spadverify/harness"
	"github.com/sarchlab/spadverify/spad"
)

var _ = Describe("Config", func() {
	writeFile := func(content string) string {
		path := filepath.Join(GinkgoT().TempDir(), "run.yaml")
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	It("should default to the reference test", func() {
		c := config.Default()

		Expect(c.Validate()).To(Succeed())
		Expect(c.HarnessOptions()).To(Equal(harness.DefaultOptions()))
		Expect(c.Geometry()).To(Equal(spad.DefaultGeometry()))
		Expect(c.Freq()).To(Equal(1 * sim.GHz))
	})

	It("should load a file over the defaults", func() {
		path := writeFile(`
dim: 8
scenario: zero
multicore: true
units: 4
designated_unit: 2
multiply_latency: 3
`)

		c, err := config.Load(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Dim).To(Equal(8))
		Expect(c.Scenario).To(Equal("zero"))
		Expect(c.Multicore).To(BeTrue())
		Expect(c.Units).To(Equal(4))
		Expect(c.DesignatedUnit).To(Equal(2))
		Expect(c.MultiplyLatency).To(Equal(3))
		Expect(c.WeightSeed).To(Equal(int64(42)))
		Expect(c.InputSeed).To(Equal(int64(51)))
		Expect(c.BankRows).To(Equal(spad.DefaultBankRows))
	})

	It("should read an invalid file without validating it", func() {
		c, err := config.ReadFile(writeFile("dim: 205\n"))

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Dim).To(Equal(205))
		Expect(c.Validate()).To(MatchError(spad.ErrUnsupportedDim))
	})

	It("should fail on a missing file", func() {
		_, err := config.Load(filepath.Join(GinkgoT().TempDir(), "none.yaml"))
		Expect(err).To(HaveOccurred())
	})

	It("should fail on malformed yaml", func() {
		_, err := config.Load(writeFile("dim: [1, 2"))
		Expect(err).To(HaveOccurred())
	})

	It("should reject a dimension the scratchpad cannot hold", func() {
		_, err := config.Load(writeFile("dim: 205\n"))

		Expect(err).To(MatchError(config.ErrInvalid))
		Expect(err).To(MatchError(spad.ErrUnsupportedDim))
	})

	DescribeTable("should reject invalid fields",
		func(mutate func(c *config.Config)) {
			c := config.Default()
			mutate(&c)

			Expect(c.Validate()).To(MatchError(config.ErrInvalid))
		},
		Entry("zero dim", func(c *config.Config) { c.Dim = 0 }),
		Entry("unknown scenario", func(c *config.Config) { c.Scenario = "ones" }),
		Entry("no units", func(c *config.Config) { c.Units = 0 }),
		Entry("designated unit out of range",
			func(c *config.Config) { c.DesignatedUnit = 1 }),
		Entry("no banks", func(c *config.Config) { c.NumBanks = 0 }),
		Entry("stalled dma", func(c *config.Config) { c.DMARowsPerCycle = 0 }),
		Entry("negative latency",
			func(c *config.Config) { c.MultiplyLatency = -1 }),
		Entry("stopped clock", func(c *config.Config) { c.FreqGHz = 0 }),
	)
})

var _ = Describe("PlatformBuilder", func() {
	It("should build a platform that passes the test", func() {
		c := config.Default()
		c.DMARowsPerCycle = 4
		c.MultiplyLatency = 2

		p := config.MakePlatformBuilder().
			WithConfig(c).
			Build("Platform")

		Expect(p.Monitor).To(BeNil())
		Expect(p.Device.RowBytes()).To(Equal(c.Dim))

		r, err := harness.Run(p.Driver, c.HarnessOptions())

		Expect(err).NotTo(HaveOccurred())
		Expect(r.Passed).To(BeTrue())
		Expect(p.Driver.Outstanding()).To(BeZero())
	})

	It("should attach a monitor", func() {
		p := config.MakePlatformBuilder().
			WithMonitor(true).
			Build("Platform")

		Expect(p.Monitor).NotTo(BeNil())
	})
})
