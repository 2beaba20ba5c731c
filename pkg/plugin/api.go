// Package plugin defines the contract between calcengine and operation modules.
//
// An operation module is a native shared library (.so, .dylib) built from any
// language that can export C symbols. The host never links against it; it
// opens the library at run time and resolves four entry points by name:
//
//	calc_operation *create(void);
//	void            destroy(calc_operation *op);
//	const char     *getType(void);
//	const char     *getName(void);
//
// The handle returned by create points to a struct whose first two fields are
// function pointers forming the operation vtable:
//
//	struct calc_operation {
//		const char *(*version)(const calc_operation *self);
//		double      (*execute)(const calc_operation *self, double a, double b);
//	};
//
// The full header lives in include/calcplugin.h. None of the exported
// functions may block, and none may unwind across the library boundary.
package plugin

// Exported symbol names every module must provide.
const (
	// SymbolCreate allocates a new instance. Ownership passes to the caller.
	SymbolCreate = "create"

	// SymbolDestroy releases an instance previously returned by create.
	// Calling it twice on the same handle is undefined.
	SymbolDestroy = "destroy"

	// SymbolGetType returns the capability category of the module.
	SymbolGetType = "getType"

	// SymbolGetName returns the unique name of the module within its type.
	SymbolGetName = "getName"
)

const (
	// TypeOperation is the capability category of binary numeric operations.
	TypeOperation = "operation"

	// InterfaceVersion is the vtable layout version this host speaks.
	InterfaceVersion = "1.0"
)

// LibraryHandle is an opaque reference to a mapped native library.
// The zero value means "no library".
type LibraryHandle uintptr

// IsZero reports whether the handle refers to no library.
func (h LibraryHandle) IsZero() bool {
	return h == 0
}

// InstanceHandle is an opaque reference to an instance returned by create.
type InstanceHandle uintptr

// Operation is a binary numeric function implemented by a module.
type Operation interface {
	// Execute applies the operation to the two operands.
	Execute(a, b float64) float64

	// Version returns the interface version the module was built against.
	Version() string
}

// Instance is a live Operation backed by a native instance handle.
//
// An Instance handed out by the registry is borrowed: it stays valid only
// until the matching unload. Calling it afterwards is a contract violation
// and results in undefined behavior.
type Instance interface {
	Operation

	// Handle returns the native instance handle.
	Handle() InstanceHandle
}
