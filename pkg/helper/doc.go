// Package helper defines the contract shared by every template helper and the
// registry that binds helper names to implementations.
//
// A helper is a named function from an argument map to a value. Most helpers
// are pure (a random pick does not depend on anything but its arguments); a few
// hold an explicit handle on session state, such as the index helper which
// reads and advances a Sequence owned by the caller. Nothing in this package
// keeps hidden global state, so independent sessions in one process never
// observe each other.
//
// Builtin assembles the canonical catalog:
//
//	reg := helper.Builtin(helper.WithIndex(helper.NewCounter()))
//	v, err := reg.Call("integer", helper.Args{"start": 1, "end": 6})
package helper
