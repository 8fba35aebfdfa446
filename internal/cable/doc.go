// Package cable provides core primitives for compartmental neuron
// simulation.
//
// The package defines the fundamental types shared by the morphology,
// conductance, kinetics and solver layers:
//
//   - [State]: the global state vector, mapping state names to value arrays
//   - [Stimulus]: externally injected current traces per compartment
//   - [TopologyError], [ConfigurationError], [NumericalError]: the error
//     taxonomy surfaced by indexing, model building and the implicit solve
//   - [ParallelFor]: chunked data-parallel loop used by the hot paths
//
// # Thread Safety
//
// A State is never mutated by more than one concurrent step. Morphology
// and conductance structures are read-only after construction and may be
// shared freely across concurrent simulations.
package cable
