package matrix

import valgen "github.com/sarchlab/spadverify/util"

// MaxValue is the largest value Generate produces. Dim products of values in
// [0, MaxValue] summed in an Acc cannot overflow for any supported Dim.
const MaxValue = 3

// Fill writes gen's values into m in row-major order.
func Fill(m *Operand, gen func() int) {
	for i := range m.Data {
		m.Data[i] = Elem(gen())
	}
}

// Generate fills m with values in [0, MaxValue] drawn from seed. The same
// seed always yields the same matrix.
func Generate(m *Operand, seed int64) {
	Fill(m, valgen.MakeBoundedGen(seed, MaxValue+1))
}
