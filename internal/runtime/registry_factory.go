// SPDX-License-Identifier: MPL-2.0

package runtime

// BuildRegistry creates a registry with every runtime this package provides.
// Runtimes that cannot run on the host stay registered; Registry.Get reports
// them as unavailable.
func BuildRegistry() *Registry {
	registry := NewRegistry()
	registry.Register(ModeNative, NewNativeRuntime())
	registry.Register(ModeVirtual, NewVirtualRuntime())
	registry.Register(ModeTTY, NewTTYRuntime())
	return registry
}
