//go:build linux || darwin || freebsd

package plugin_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smykla-skalski/calcengine/internal/plugin"
	"github.com/smykla-skalski/calcengine/pkg/logger"
)

// buildLibrary compiles a C source into dir and returns the library path.
func buildLibrary(dir, src, name string) string {
	GinkgoHelper()

	ext := ".so"
	if runtime.GOOS == "darwin" {
		ext = ".dylib"
	}

	out := filepath.Join(dir, "lib"+name+ext)
	include, err := filepath.Abs(filepath.Join("..", "..", "include"))
	Expect(err).NotTo(HaveOccurred())

	cmd := exec.Command("cc", "-shared", "-fPIC", "-I", include, "-o", out, src)
	output, err := cmd.CombinedOutput()
	Expect(err).NotTo(HaveOccurred(), string(output))

	return out
}

var _ = Describe("NativeLoader", Ordered, func() {
	var (
		libDir  string
		loader  *plugin.NativeLoader
		addPath string
		mulPath string
	)

	BeforeAll(func() {
		if _, err := exec.LookPath("cc"); err != nil {
			Skip("C compiler not available")
		}

		libDir = GinkgoT().TempDir()
		addPath = buildLibrary(libDir, filepath.Join("..", "..", "examples", "plugins", "addition", "addition.c"), "add")
		buildLibrary(libDir, filepath.Join("..", "..", "examples", "plugins", "subtraction", "subtraction.c"), "sub")
		mulPath = buildLibrary(libDir, filepath.Join("testdata", "mul.c"), "mul")
		buildLibrary(libDir, filepath.Join("testdata", "notype.c"), "notype")
		buildLibrary(libDir, filepath.Join("testdata", "nullcreate.c"), "nullcreate")
		Expect(os.WriteFile(filepath.Join(libDir, "README.md"), []byte("not a library"), 0o600)).To(Succeed())
	})

	BeforeEach(func() {
		loader = plugin.NewNativeLoader()
	})

	It("reports a missing file", func() {
		_, err := loader.Open(filepath.Join(libDir, "libmissing.so"))
		Expect(errors.Is(err, plugin.ErrLibraryNotFound)).To(BeTrue())
	})

	It("reports a file that is not a library", func() {
		_, err := loader.Open(filepath.Join(libDir, "README.md"))
		Expect(errors.Is(err, plugin.ErrLibraryOpenFailed)).To(BeTrue())
	})

	It("calls through the instance vtable", func() {
		lib, err := loader.Open(mulPath)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(loader.Close, lib)

		Expect(loader.PluginType(lib)).To(Equal("operation"))
		Expect(loader.PluginName(lib)).To(Equal("mul"))

		inst, err := loader.CreateInstance(lib)
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Version()).To(Equal("1.0"))
		Expect(inst.Execute(6, 7)).To(Equal(42.0))
		Expect(loader.DestroyInstance(lib, inst)).To(Succeed())
	})

	It("reports a missing export", func() {
		lib, err := loader.Open(addPath)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(loader.Close, lib)

		_, err = plugin.ResolveSymbol[func() string](lib, "nonexistent")
		Expect(errors.Is(err, plugin.ErrSymbolNotFound)).To(BeTrue())
	})

	It("ignores repeated and zero closes", func() {
		lib, err := loader.Open(addPath)
		Expect(err).NotTo(HaveOccurred())

		Expect(func() {
			loader.Close(lib)
			loader.Close(lib)
			loader.Close(0)
		}).NotTo(Panic())
	})

	Describe("from a relative path", func() {
		BeforeEach(func() {
			wd, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(libDir)).To(Succeed())
			DeferCleanup(os.Chdir, wd)
		})

		It("opens a bare file name from the working directory", func() {
			lib, err := loader.Open(filepath.Base(addPath))
			Expect(err).NotTo(HaveOccurred())
			loader.Close(lib)
		})

		It("catalogs the working directory", func() {
			registry := plugin.NewRegistry(loader, logger.NewNoOpLogger(), plugin.WithDirectory("."))
			Expect(registry.Initialize()).To(Succeed())
			DeferCleanup(registry.Close)

			Expect(filepath.IsAbs(registry.Directory())).To(BeTrue())

			add, ok := registry.Lookup("operation", "add")
			Expect(ok).To(BeTrue())
			Expect(filepath.IsAbs(add.LibraryPath)).To(BeTrue())

			inst, err := registry.Load(add)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Execute(2, 3)).To(Equal(5.0))
			Expect(registry.Unload(add)).To(Succeed())
		})
	})

	Describe("with a registry", func() {
		var registry *plugin.Registry

		BeforeEach(func() {
			registry = plugin.NewRegistry(loader, logger.NewNoOpLogger(), plugin.WithDirectory(libDir))
			Expect(registry.Initialize()).To(Succeed())
			DeferCleanup(registry.Close)
		})

		It("catalogs only the usable modules", func() {
			ids := make([]string, 0)
			for _, d := range registry.All() {
				ids = append(ids, d.ID())
			}

			Expect(ids).To(Equal([]string{"operation::add", "operation::mul", "operation::sub"}))

			byName := make(map[string]plugin.Reason)
			for _, e := range registry.Events() {
				byName[filepath.Base(e.Path)] = e.Reason
			}

			Expect(byName).To(HaveKeyWithValue("README.md", plugin.ReasonOpenFailed))
			Expect(byName).To(HaveKeyWithValue(HavePrefix("libnotype"), plugin.ReasonMissingType))
			Expect(byName).To(HaveKeyWithValue(HavePrefix("libnullcreate"), plugin.ReasonCreateFailed))
		})

		It("runs add and sub end to end", func() {
			add, ok := registry.Lookup("operation", "add")
			Expect(ok).To(BeTrue())

			inst, err := registry.Load(add)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Execute(2, 3)).To(Equal(5.0))
			Expect(registry.Unload(add)).To(Succeed())

			sub, ok := registry.Lookup("operation", "sub")
			Expect(ok).To(BeTrue())

			inst, err = registry.Load(sub)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Execute(10, 4)).To(Equal(6.0))
			Expect(registry.Unload(sub)).To(Succeed())
		})

		It("does not know unregistered operations", func() {
			_, ok := registry.Lookup("operation", "div")
			Expect(ok).To(BeFalse())
		})
	})
})
