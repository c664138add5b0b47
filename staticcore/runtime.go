package staticcore

// Runtime carries the execution-context capability flags that select a
// resolution strategy. The flags are ambient state supplied by the host
// application; nothing in this module mutates them.
type Runtime struct {
	// Client reports that code runs in a client runtime (browser-like,
	// after navigation) rather than on a server rendering pass.
	Client bool

	// StaticBuild reports that a static-site generation pass is active.
	StaticBuild bool
}

// IsClientRuntime reports whether the client strategy applies.
func (r Runtime) IsClientRuntime() bool { return r.Client }

// IsServerRuntime reports whether the server strategy applies. It is
// always the complement of IsClientRuntime.
func (r Runtime) IsServerRuntime() bool { return !r.Client }

// IsStaticBuild reports whether a static-generation pass is active.
func (r Runtime) IsStaticBuild() bool { return r.StaticBuild }
