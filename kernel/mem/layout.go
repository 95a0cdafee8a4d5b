package mem

// Layout captures the link-map contract between the bootstrap code and the
// rest of the kernel image: the addresses that on real hardware would be
// supplied by the linker script and the platform's memory map. Each
// architecture publishes its default Layout; the values are build-time
// constants, not runtime configuration.
type Layout struct {
	// RAMBase is the physical address where modeled RAM begins.
	RAMBase Addr

	// GlobalDataBase is the linker-provided symbol marking the start of
	// the statically-linked global data region. Bootstrap loads it into
	// the global-data-area register of the active core.
	GlobalDataBase Addr

	// BootStackTop is the reserved physical address the active core uses
	// as its initial stack top. It must not overlap the kernel image or
	// any region claimed before the memory manager is available.
	BootStackTop Addr

	// KernelEntry is the address of the architecture-independent kernel
	// entry point that bootstrap jumps to. The jump is not a call; no
	// return linkage to it ever exists.
	KernelEntry Addr
}
