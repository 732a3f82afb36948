// Package eoc implements a dataization engine for object graphs.
//
// A program is a flat table of objects addressed by integer id. An object
// either holds a literal (Δ), delegates to an atom (λ), forwards to another
// object through its body (φ), or is empty. Dataization reduces an object
// to a single 64-bit scalar. Calls open baskets: activation records that
// bind an object to the basket active at the call, so closures and
// recursion need no copying of the graph.
//
// # Architecture Overview
//
// The engine consists of several key components:
//
//   - Object table: immutable once the first dataization starts
//   - Baskets: activation records with enclosing links and per-basket caches
//   - Resolver: walks ξ-paths through enclosing links
//   - Atoms: native Go functions or bytecode programs, chosen per engine
//   - Perf: transition histogram and atom counters per dataization
//
// # Evaluation Characteristics
//
//   - Every attribute of a basket is computed at most once
//   - bool-if evaluates only the branch it selects
//   - Deleting a basket releases its whole activation subtree
//   - Engines sharing a frozen table may run in parallel
//
// # Basic Usage
//
//	// Compile a graph written in the textual notation
//	eocc fibonacci.eo fibonacci.eob
//
//	// Load and dataize
//	engine, err := runtime.Load("fibonacci.eob", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	v, perf, err := engine.Dataize()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(v, perf.TotalAtoms())
//
// # Package Structure
//
//   - core: scalar values, basket ids and the literal codec
//   - model: objects, locators, the object table and its binary form
//   - atoms: the atom interface, native catalog and bytecode interpreter
//   - runtime: basket manager, resolver and dataization engine
//   - compiler: textual notation parser and .eob compiler
//   - bench: fibonacci benchmark graph, cycle runner and regression suites
//   - cmd: command-line tools (eocc, eocrun, eocperf)
package eoc
