// Package settings provides a thread-safe, heterogeneously typed settings
// store with layered inheritance.
//
// A Store holds two parallel maps: tri-state flags (true, false, unset) and
// arbitrary typed values. Stores are created per configuration scope (global,
// type pair, member) and composed with Apply, which fills the receiver's unset
// keys from an ancestor and recursively merges composite values:
//
//	global := settings.NewStore()
//	global.SetBool("IgnoreNullValues", settings.Ptr(true))
//	global.Set("Ignores", []string{"Id"})
//
//	member := settings.NewStore()
//	member.Set("Ignores", []string{"CreatedAt"})
//	if err := member.Apply(global); err != nil {
//	    return err
//	}
//	// member.Bool("IgnoreNullValues") == true
//	// Ignores == []string{"CreatedAt", "Id"}
//
// Values implementing Mergeable or Sequence, and Go slices, are copied on
// first inheritance so sibling scopes never alias an ancestor's state. Stack
// orders scoped layers by priority and resolves or finalizes them in one call,
// reporting each applied layer to an ApplyLogger and to activity hooks.
//
// Typed reads go through the generic helpers Get, Lookup and GetOrInit.
package settings
