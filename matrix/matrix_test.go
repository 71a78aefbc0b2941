package matrix_test

import (
	"bytes"
	"unsafe"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/spadverify/matrix"
	valgen "github.com/sarchlab/spadverify/util"
)

var _ = Describe("Matrix", func() {
	It("should align the backing buffer", func() {
		for _, dim := range []int{1, 3, 16, 33} {
			op := matrix.NewOperand(dim)
			res := matrix.NewResult(dim)

			Expect(uintptr(unsafe.Pointer(&op.Data[0])) % matrix.Alignment).
				To(BeZero())
			Expect(uintptr(unsafe.Pointer(&res.Data[0])) % matrix.Alignment).
				To(BeZero())
			Expect(op.Data).To(HaveLen(dim * dim))
			Expect(cap(op.Data)).To(Equal(dim * dim))
		}
	})

	It("should expose the buffer as host memory", func() {
		res := matrix.NewResult(2)
		raw := res.Bytes()
		Expect(raw).To(HaveLen(16))

		raw[0] = 7
		Expect(res.Data[0]).NotTo(BeZero())

		res.Zero()
		Expect(res.Data).To(Equal([]matrix.Acc{0, 0, 0, 0}))
	})

	It("should index in row-major order", func() {
		m := matrix.New[matrix.Elem](2, 3)
		matrix.Fill(m, valgen.MakeIncreasingGen(0))

		Expect(m.At(0, 0)).To(Equal(matrix.Elem(1)))
		Expect(m.At(1, 2)).To(Equal(matrix.Elem(6)))
		Expect(m.Row(1)).To(Equal([]matrix.Elem{4, 5, 6}))
	})
})

var _ = Describe("Generate", func() {
	It("should be reproducible for a seed", func() {
		a := matrix.NewOperand(16)
		b := matrix.NewOperand(16)

		matrix.Generate(a, 42)
		matrix.Generate(b, 42)

		Expect(a.Data).To(Equal(b.Data))
	})

	It("should differ between seeds", func() {
		a := matrix.NewOperand(16)
		b := matrix.NewOperand(16)

		matrix.Generate(a, 42)
		matrix.Generate(b, 51)

		Expect(a.Data).NotTo(Equal(b.Data))
	})

	It("should stay within the bounded range", func() {
		m := matrix.NewOperand(32)
		matrix.Generate(m, 7)

		for _, v := range m.Data {
			Expect(v).To(BeNumerically(">=", 0))
			Expect(v).To(BeNumerically("<=", matrix.MaxValue))
		}
	})
})

var _ = Describe("Multiply", func() {
	It("should compute the sum of products", func() {
		a := matrix.New[matrix.Elem](2, 3)
		b := matrix.New[matrix.Elem](3, 2)
		c := matrix.New[matrix.Acc](2, 2)
		copy(a.Data, []matrix.Elem{1, 2, 3, 4, 5, 6})
		copy(b.Data, []matrix.Elem{7, 8, 9, 10, 11, 12})

		Expect(matrix.Multiply(a, b, c)).To(Succeed())

		Expect(c.Data).To(Equal([]matrix.Acc{58, 64, 139, 154}))
	})

	It("should agree with an element-wise definition", func() {
		dim := 16
		a := matrix.NewOperand(dim)
		b := matrix.NewOperand(dim)
		c := matrix.NewResult(dim)
		matrix.Generate(a, 51)
		matrix.Generate(b, 42)

		Expect(matrix.Multiply(a, b, c)).To(Succeed())

		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				var want matrix.Acc
				for k := 0; k < dim; k++ {
					want += matrix.Acc(a.Data[i*dim+k]) * matrix.Acc(b.Data[k*dim+j])
				}
				Expect(c.At(i, j)).To(Equal(want))
			}
		}
	})

	It("should not overflow at the largest values", func() {
		dim := 204
		a := matrix.NewOperand(dim)
		b := matrix.NewOperand(dim)
		c := matrix.NewResult(dim)
		matrix.Fill(a, valgen.MakeConstGen(matrix.MaxValue))
		matrix.Fill(b, valgen.MakeConstGen(matrix.MaxValue))

		Expect(matrix.Multiply(a, b, c)).To(Succeed())

		Expect(c.At(dim-1, dim-1)).
			To(Equal(matrix.Acc(dim * matrix.MaxValue * matrix.MaxValue)))
	})

	It("should reject mismatched shapes", func() {
		a := matrix.New[matrix.Elem](2, 3)
		b := matrix.New[matrix.Elem](2, 3)
		c := matrix.New[matrix.Acc](2, 3)

		Expect(matrix.Multiply(a, b, c)).To(MatchError(matrix.ErrShape))
	})

	It("should produce zeros from zero operands", func() {
		a := matrix.NewOperand(8)
		b := matrix.NewOperand(8)
		c := matrix.NewResult(8)
		c.Data[3] = 99

		Expect(matrix.Multiply(a, b, c)).To(Succeed())

		Expect(c.Data).To(HaveEach(matrix.Acc(0)))
	})
})

var _ = Describe("Compare", func() {
	var expected *matrix.Result

	BeforeEach(func() {
		expected = matrix.NewResult(4)
		for i := range expected.Data {
			expected.Data[i] = matrix.Acc(i)
		}
	})

	It("should accept identical matrices", func() {
		actual := matrix.NewResult(4)
		copy(actual.Data, expected.Data)

		Expect(matrix.Compare(actual, expected)).To(BeTrue())
	})

	It("should reject a single differing element", func() {
		actual := matrix.NewResult(4)
		copy(actual.Data, expected.Data)
		actual.Set(3, 2, actual.At(3, 2)+1)

		Expect(matrix.Compare(actual, expected)).To(BeFalse())
	})

	It("should reject different shapes", func() {
		Expect(matrix.Compare(matrix.NewResult(3), expected)).To(BeFalse())
	})
})

var _ = Describe("Transforms", func() {
	It("should flip rows", func() {
		m := matrix.New[matrix.Elem](3, 2)
		copy(m.Data, []matrix.Elem{1, 2, 3, 4, 5, 6})

		matrix.FlipRows(m)

		Expect(m.Data).To(Equal([]matrix.Elem{5, 6, 3, 4, 1, 2}))
	})

	It("should transpose", func() {
		src := matrix.New[matrix.Elem](2, 3)
		dst := matrix.New[matrix.Elem](3, 2)
		copy(src.Data, []matrix.Elem{1, 2, 3, 4, 5, 6})

		Expect(matrix.Transpose(src, dst)).To(Succeed())

		Expect(dst.Data).To(Equal([]matrix.Elem{1, 4, 2, 5, 3, 6}))
		Expect(matrix.Transpose(src, matrix.New[matrix.Elem](2, 3))).
			To(MatchError(matrix.ErrShape))
	})

	It("should render a table", func() {
		m := matrix.New[matrix.Acc](2, 2)
		copy(m.Data, []matrix.Acc{11, 12, 13, 14})

		var buf bytes.Buffer
		matrix.Render(&buf, "Output", m)

		Expect(buf.String()).To(ContainSubstring("Output"))
		Expect(buf.String()).To(ContainSubstring("14"))
	})
})
