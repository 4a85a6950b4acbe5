// Package harness runs scenario files against the simulator through the
// client and checks what comes back.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: hero_hp
//	description: "Damage is observed by a watcher"
//	scene: ../scenes/hero.yaml
//	instance:
//	  viewModel: Hero
//	  name: Ada
//	steps:
//	  - watch: hp
//	    type: number
//	  - set: hp
//	    type: number
//	    value: 90
//	  - collect: hp
//	    expect: [90]
//	  - get: nickname
//	    type: string
//	    error: MISSING_DATA
//	assertions:
//	  - type: trace_count
//	    command: Unsubscribe
//	    count: 1
//
// The scene path is relative to the scenario file. The instance is created
// from a view model or from an artboard's default view model; name selects a
// named instance, blank a blank one, and neither the default instance.
//
// # Steps
//
// Each step has exactly one operation key:
//
//   - set: write value to a property of the given type
//   - get: read a property; expect a value or an error code
//   - fire: fire a trigger
//   - watch: open a subscription, named by as (default: the path)
//   - collect: read count values (default: len(expect)) from a subscription
//   - append: append a new list element built from item
//   - size: read a list's length; expect an integer
//
// Types are string, number, boolean, color ("#RRGGBB" or "#AARRGGBB"), enum
// and trigger.
//
// # Assertion Types
//
//   - trace_contains: a command or reply with the given name (and path) was journaled
//   - trace_order: names appear in order, not necessarily adjacent
//   - trace_count: a name appears exactly count times
//
// # Deterministic Traces
//
// Every step is followed by a barrier that waits for the client loop and
// the simulator loop to go idle, twice, so commands issued in response to
// replies land before the next step. Request IDs and handles are therefore
// the same on every run, and traces can be compared with golden files.
package harness
