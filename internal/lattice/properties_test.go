package lattice_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/stringsim/internal/lattice"
)

const sampleDt = 1.0 / 44100

var _ = Describe("String", func() {
	var s *lattice.String

	newString := func(n int) *lattice.String {
		str, err := lattice.NewDefault(n)
		Expect(err).NotTo(HaveOccurred())
		return str
	}

	Describe("at rest", func() {
		DescribeTable("stays at rest for any stable dt",
			func(n int, dt float64) {
				s = newString(n)
				for i := 0; i < 5000; i++ {
					s.Step(dt)
				}
				for i := 0; i < n; i++ {
					Expect(s.Node(i)).To(Equal(lattice.Node{}))
				}
			},
			Entry("single node", 1, sampleDt),
			Entry("short string at 48k", 8, 1.0/48000),
			Entry("reference string", lattice.DefaultNodes, sampleDt),
			Entry("near the bound", 32, 0.9*lattice.StableTimestep(lattice.DefaultSpringConstant, lattice.DefaultMass)),
		)
	})

	Describe("after plucking the left end", func() {
		const strength = 0.02

		BeforeEach(func() {
			s = newString(33)
			s.Pluck(0, strength)
		})

		It("starts the endpoint at full strength", func() {
			Expect(s.Node(0).Displacement).To(Equal(strength))
			Expect(math.Signbit(s.Sample())).To(Equal(math.Signbit(strength)))
		})

		It("lets the left anchor pull the endpoint back", func() {
			s.Step(sampleDt)
			Expect(s.Node(0).Velocity).To(BeNumerically("<", 0))

			for i := 0; i < 20; i++ {
				s.Step(sampleDt)
			}
			Expect(math.Abs(s.Node(0).Displacement)).To(BeNumerically("<", strength))
		})
	})

	Describe("plucking the middle of an odd string", func() {
		It("produces a profile symmetric about the midpoint", func() {
			const n = 1601
			s = newString(n)
			s.Pluck(0.5, 1)

			mid := n / 2
			Expect(s.Node(mid).Displacement).To(Equal(1.0))
			for d := 1; d <= mid; d++ {
				left := s.Node(mid - d).Displacement
				right := s.Node(mid + d).Displacement
				Expect(left).To(BeNumerically("~", right, 2e-3))
			}
		})
	})

	Describe("sampling", func() {
		It("is idempotent between steps", func() {
			s = newString(64)
			s.Pluck(0.37, 0.5)
			s.Step(sampleDt)
			s.Step(sampleDt)

			first := s.Sample()
			for i := 0; i < 10; i++ {
				Expect(s.Sample()).To(Equal(first))
			}
		})
	})

	Describe("energy", func() {
		const strength = 0.01

		It("does not diverge over 100000 steps below the stability bound", func() {
			s = newString(201)
			s.Pluck(0.3, strength)
			initial := s.Energy()

			peak := 0.0
			for i := 0; i < 100000; i++ {
				s.Step(sampleDt)
				for j := 0; j < s.Len(); j += 10 {
					peak = math.Max(peak, math.Abs(s.Node(j).Displacement))
				}
			}

			Expect(peak).To(BeNumerically("<", 4*strength))
			Expect(s.Energy()).To(BeNumerically("~", initial, 0.1*initial))
		})
	})

	Describe("the verbatim pluck shape", func() {
		It("overshoots strength before the pluck point", func() {
			s = newString(11)
			s.SetShape(lattice.ShapeVerbatim)
			s.Pluck(0.5, 1)

			// start = 5, node 4 gets t = 5
			Expect(s.Node(4).Displacement).To(BeNumerically("~", 5, 1e-12))
			Expect(s.Node(0).Displacement).To(BeNumerically("~", 1, 1e-12))
		})
	})
})
