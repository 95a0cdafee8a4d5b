// Package hal assembles a modeled machine out of an architecture, a bank of
// physical RAM and a set of cores, and runs the per-core bootstrap sequence
// across them at power-on.
package hal

import (
	"bedrock/kernel"
	"bedrock/kernel/arch"
	"bedrock/kernel/cpu"
	"bedrock/kernel/kfmt"
	"bedrock/kernel/mem"
)

var (
	errNoCores        = &kernel.Error{Module: "hal", Message: "machine needs at least one core"}
	errStackBeyondRAM = &kernel.Error{Module: "hal", Message: "boot stack lies outside physical memory"}
	errAlreadyBooted  = &kernel.Error{Module: "hal", Message: "machine has already been booted"}
	errNoActiveCore   = &kernel.Error{Module: "hal", Message: "bootstrap left no core active"}
)

// Machine models one physical machine: an architecture, its default memory
// layout, a RAM bank and a set of cores with sequential affinity ids.
type Machine struct {
	isa    arch.CPU
	lay    mem.Layout
	ram    *mem.Physical
	cores  []*cpu.Core
	active *cpu.Core
}

// New assembles a machine for the named architecture with numCores cores and
// ramSize bytes of RAM mapped at the architecture's default layout. The
// layout's reserved boot stack must fit inside the RAM bank.
func New(archName string, numCores int, ramSize mem.Size) (*Machine, *kernel.Error) {
	isa, err := arch.Lookup(archName)
	if err != nil {
		return nil, err
	}

	if numCores < 1 {
		return nil, errNoCores
	}

	lay := isa.DefaultLayout()
	if lay.BootStackTop > lay.RAMBase+mem.Addr(ramSize) {
		return nil, errStackBeyondRAM
	}

	m := &Machine{
		isa: isa,
		lay: lay,
		ram: mem.NewPhysical(lay.RAMBase, ramSize),
	}

	for id := 0; id < numCores; id++ {
		m.cores = append(m.cores, isa.NewCore(uint32(id)))
	}

	return m, nil
}

// Boot runs the architecture's bootstrap sequence once on every core in
// affinity order and returns the single core that became active. Every other
// core ends up permanently halted; that exactly one core survives bring-up
// is verified here, not assumed.
func (m *Machine) Boot() (*cpu.Core, *kernel.Error) {
	if m.active != nil {
		return nil, errAlreadyBooted
	}

	w := &kfmt.PrefixWriter{Sink: kfmt.GetOutputSink(), Prefix: prefix(m.isa.Name())}

	for _, c := range m.cores {
		state, err := m.isa.Boot(c, m.lay)
		if err != nil {
			return nil, err
		}

		kfmt.Fprintf(w, "core %d: %s\n", m.isa.AffinityID(c), state.String())

		if state == cpu.Active {
			m.active = c
		}
	}

	if m.active == nil {
		return nil, errNoActiveCore
	}

	kfmt.Fprintf(w, "boot stack at %x, entry point %x\n", uint64(m.lay.BootStackTop), uint64(m.lay.KernelEntry))
	return m.active, nil
}

// Arch returns the machine's architecture capability.
func (m *Machine) Arch() arch.CPU { return m.isa }

// RAM returns the machine's physical memory bank.
func (m *Machine) RAM() *mem.Physical { return m.ram }

// Layout returns the machine's link-map layout.
func (m *Machine) Layout() mem.Layout { return m.lay }

// Cores returns all cores in affinity order.
func (m *Machine) Cores() []*cpu.Core { return m.cores }

// ActiveCore returns the core selected by bootstrap, or nil before Boot.
func (m *Machine) ActiveCore() *cpu.Core { return m.active }

// prefix builds the per-architecture log prefix without allocating at each
// log call.
func prefix(name string) []byte {
	p := make([]byte, 0, len(name)+3)
	p = append(p, '[')
	p = append(p, name...)
	p = append(p, ']', ' ')
	return p
}
