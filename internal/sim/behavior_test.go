package sim

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mvelten/cabletree/internal/cable"
	"github.com/mvelten/cabletree/internal/channels"
)

func TestSimBehavior(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Sim Behavior Suite")
}

var _ = Describe("a passive cable", func() {
	var net *Network

	BeforeEach(func() {
		cell := NewCell([]Branch{NewBranch(DefaultCompartment(), 4)}, []int{-1})
		var err error
		net, err = SingleCell(cell)
		Expect(err).NotTo(HaveOccurred())
		Expect(net.Insert(channels.NewLeak(), nil, nil)).To(Succeed())
	})

	It("stays at rest without input", func() {
		state := net.InitialState()
		for i := 0; i < 10; i++ {
			var err error
			state, err = net.Step(state, 0.025, nil)
			Expect(err).NotTo(HaveOccurred())
		}
		for _, v := range state.Voltages() {
			Expect(v).To(BeNumerically("~", -70.0, 1e-9))
		}
	})

	It("relaxes a perturbation back toward rest", func() {
		state := net.InitialState()
		state[cable.VoltageKey][2] = -40

		var err error
		for i := 0; i < 2000; i++ {
			state, err = net.Step(state, 0.025, nil)
			Expect(err).NotTo(HaveOccurred())
		}
		for _, v := range state.Voltages() {
			Expect(v).To(BeNumerically("~", -70.0, 0.01))
		}
	})

	It("keeps the state shape across steps", func() {
		state := net.InitialState()
		next, err := net.Step(state, 0.025, map[int]float64{0: 0.1})
		Expect(err).NotTo(HaveOccurred())
		Expect(state.SameShape(next)).To(BeTrue())
	})
})

var _ = Describe("an excitable soma", func() {
	newSoma := func() *Network {
		proto := DefaultCompartment()
		proto.Radius = 10.0
		net, err := SingleCell(NewCell([]Branch{NewBranch(proto, 1)}, []int{-1}))
		Expect(err).NotTo(HaveOccurred())
		net.SetRestingPotential(-65)
		Expect(net.Insert(channels.NewHH(), nil, nil)).To(Succeed())
		return net
	}

	It("fires on a suprathreshold pulse and stays finite", func() {
		net := newSoma()
		cfg := Config{Dt: 0.025, Steps: 800, RecordEvery: 1}
		stim := cable.NewStimulus().Add(0, cable.StepCurrent(5.0, 40, 120, 800))

		result, err := Run(context.Background(), net, net.InitialState(), cfg, stim)
		Expect(err).NotTo(HaveOccurred())

		trace := result.VoltageTrace(0)
		peak := -65.0
		for _, v := range trace {
			if v > peak {
				peak = v
			}
		}
		Expect(peak).To(BeNumerically(">", 0))
		Expect(result.States[len(result.States)-1].IsValid()).To(BeTrue())
	})

	It("does not fire without input", func() {
		net := newSoma()
		cfg := Config{Dt: 0.025, Steps: 800, RecordEvery: 1}

		result, err := Run(context.Background(), net, net.InitialState(), cfg, nil)
		Expect(err).NotTo(HaveOccurred())

		for _, v := range result.VoltageTrace(0) {
			Expect(v).To(BeNumerically("<", -50))
		}
	})
})
