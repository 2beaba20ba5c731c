package plugin_test

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/smykla-skalski/calcengine/internal/plugin"
	"github.com/smykla-skalski/calcengine/pkg/logger"
	pluginapi "github.com/smykla-skalski/calcengine/pkg/plugin"
)

type stubInstance struct {
	handle pluginapi.InstanceHandle
}

func (*stubInstance) Execute(a, b float64) float64       { return a + b }
func (*stubInstance) Version() string                    { return pluginapi.InterfaceVersion }
func (s *stubInstance) Handle() pluginapi.InstanceHandle { return s.handle }

var errBoom = errors.New("boom")

var _ = Describe("Registry", func() {
	var (
		ctrl     *gomock.Controller
		loader   *plugin.MockLoader
		registry *plugin.Registry
		dir      string
		addDesc  plugin.Descriptor
		subDesc  plugin.Descriptor
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		loader = plugin.NewMockLoader(ctrl)
		dir = GinkgoT().TempDir()
		registry = plugin.NewRegistry(loader, logger.NewNoOpLogger(), plugin.WithDirectory(dir))

		addDesc = plugin.Descriptor{Type: "operation", Name: "add", LibraryPath: "/plugins/libadd.so"}
		subDesc = plugin.Descriptor{Type: "operation", Name: "sub", LibraryPath: "/plugins/libsub.so"}
	})

	AfterEach(func() {
		ctrl.Finish()
	})

	Describe("Descriptor", func() {
		It("joins type and name into the ID", func() {
			Expect(addDesc.ID()).To(Equal("operation::add"))
			Expect(plugin.ID("operation", "add")).To(Equal(addDesc.ID()))
		})
	})

	Describe("Directory", func() {
		It("resolves a relative directory against the working directory", func() {
			wd, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())

			relative := plugin.NewRegistry(loader, logger.NewNoOpLogger(), plugin.WithDirectory("plugins"))
			Expect(relative.Directory()).To(Equal(filepath.Join(wd, "plugins")))
		})

		It("keeps an absolute directory", func() {
			Expect(registry.Directory()).To(Equal(dir))
		})
	})

	Describe("Initialize", func() {
		It("probes in order and releases the probe instance", func() {
			path := filepath.Join(dir, "libadd.so")
			Expect(os.WriteFile(path, nil, 0o600)).To(Succeed())

			inst := &stubInstance{handle: 11}

			gomock.InOrder(
				loader.EXPECT().Open(path).Return(pluginapi.LibraryHandle(1), nil),
				loader.EXPECT().CreateInstance(pluginapi.LibraryHandle(1)).Return(inst, nil),
				loader.EXPECT().PluginType(pluginapi.LibraryHandle(1)).Return("operation"),
				loader.EXPECT().PluginName(pluginapi.LibraryHandle(1)).Return("add"),
				loader.EXPECT().DestroyInstance(pluginapi.LibraryHandle(1), inst).Return(nil),
				loader.EXPECT().Close(pluginapi.LibraryHandle(1)),
			)

			Expect(registry.Initialize()).To(Succeed())

			d, ok := registry.Lookup("operation", "add")
			Expect(ok).To(BeTrue())
			Expect(d.LibraryPath).To(Equal(path))
			Expect(registry.Loaded(d)).To(BeFalse())
		})

		It("closes the library when create fails", func() {
			path := filepath.Join(dir, "libbad.so")
			Expect(os.WriteFile(path, nil, 0o600)).To(Succeed())

			gomock.InOrder(
				loader.EXPECT().Open(path).Return(pluginapi.LibraryHandle(2), nil),
				loader.EXPECT().CreateInstance(pluginapi.LibraryHandle(2)).
					Return(nil, plugin.ErrInstanceCreateFailed),
				loader.EXPECT().Close(pluginapi.LibraryHandle(2)),
			)

			Expect(registry.Initialize()).To(Succeed())
			Expect(registry.All()).To(BeEmpty())

			events := registry.Events()
			Expect(events).To(HaveLen(1))
			Expect(events[0].Reason).To(Equal(plugin.ReasonCreateFailed))
			Expect(errors.Is(events[0].Err, plugin.ErrProbeFailed)).To(BeTrue())
			Expect(errors.Is(events[0].Err, plugin.ErrInstanceCreateFailed)).To(BeTrue())
		})

		It("rejects a second call", func() {
			Expect(registry.Initialize()).To(Succeed())
			Expect(registry.Initialize()).To(MatchError(plugin.ErrAlreadyInitialized))
		})
	})

	Describe("Load", func() {
		It("reuses the cached instance", func() {
			inst := &stubInstance{handle: 21}

			loader.EXPECT().Open(addDesc.LibraryPath).Return(pluginapi.LibraryHandle(3), nil).Times(1)
			loader.EXPECT().CreateInstance(pluginapi.LibraryHandle(3)).Return(inst, nil).Times(1)

			first, err := registry.Load(addDesc)
			Expect(err).NotTo(HaveOccurred())

			second, err := registry.Load(addDesc)
			Expect(err).NotTo(HaveOccurred())

			Expect(second).To(BeIdenticalTo(first))
			Expect(registry.Loaded(addDesc)).To(BeTrue())
		})

		It("surfaces open failures without caching", func() {
			loader.EXPECT().Open(addDesc.LibraryPath).
				Return(pluginapi.LibraryHandle(0), errors.Wrap(plugin.ErrLibraryNotFound, "gone"))

			_, err := registry.Load(addDesc)
			Expect(errors.Is(err, plugin.ErrLibraryNotFound)).To(BeTrue())
			Expect(registry.Loaded(addDesc)).To(BeFalse())
		})

		It("closes the library when create fails", func() {
			gomock.InOrder(
				loader.EXPECT().Open(addDesc.LibraryPath).Return(pluginapi.LibraryHandle(4), nil),
				loader.EXPECT().CreateInstance(pluginapi.LibraryHandle(4)).
					Return(nil, errors.Wrap(plugin.ErrSymbolNotFound, "create")),
				loader.EXPECT().Close(pluginapi.LibraryHandle(4)),
			)

			_, err := registry.Load(addDesc)
			Expect(errors.Is(err, plugin.ErrSymbolNotFound)).To(BeTrue())
			Expect(registry.Loaded(addDesc)).To(BeFalse())
		})
	})

	Describe("Unload", func() {
		It("is a no-op when nothing is loaded", func() {
			Expect(registry.Unload(addDesc)).To(Succeed())
		})

		It("destroys before closing", func() {
			inst := &stubInstance{handle: 31}

			gomock.InOrder(
				loader.EXPECT().Open(addDesc.LibraryPath).Return(pluginapi.LibraryHandle(5), nil),
				loader.EXPECT().CreateInstance(pluginapi.LibraryHandle(5)).Return(inst, nil),
				loader.EXPECT().DestroyInstance(pluginapi.LibraryHandle(5), inst).Return(nil),
				loader.EXPECT().Close(pluginapi.LibraryHandle(5)),
			)

			_, err := registry.Load(addDesc)
			Expect(err).NotTo(HaveOccurred())

			Expect(registry.Unload(addDesc)).To(Succeed())
			Expect(registry.Loaded(addDesc)).To(BeFalse())
			Expect(registry.Unload(addDesc)).To(Succeed())
		})

		It("still closes and evicts when destroy fails", func() {
			inst := &stubInstance{handle: 41}

			gomock.InOrder(
				loader.EXPECT().Open(addDesc.LibraryPath).Return(pluginapi.LibraryHandle(6), nil),
				loader.EXPECT().CreateInstance(pluginapi.LibraryHandle(6)).Return(inst, nil),
				loader.EXPECT().DestroyInstance(pluginapi.LibraryHandle(6), inst).Return(errBoom),
				loader.EXPECT().Close(pluginapi.LibraryHandle(6)),
			)

			_, err := registry.Load(addDesc)
			Expect(err).NotTo(HaveOccurred())

			err = registry.Unload(addDesc)
			Expect(errors.Is(err, errBoom)).To(BeTrue())
			Expect(registry.Loaded(addDesc)).To(BeFalse())
		})
	})

	Describe("Close", func() {
		It("unloads everything and joins errors", func() {
			addInst := &stubInstance{handle: 51}
			subInst := &stubInstance{handle: 52}

			loader.EXPECT().Open(addDesc.LibraryPath).Return(pluginapi.LibraryHandle(7), nil)
			loader.EXPECT().CreateInstance(pluginapi.LibraryHandle(7)).Return(addInst, nil)
			loader.EXPECT().Open(subDesc.LibraryPath).Return(pluginapi.LibraryHandle(8), nil)
			loader.EXPECT().CreateInstance(pluginapi.LibraryHandle(8)).Return(subInst, nil)

			loader.EXPECT().DestroyInstance(pluginapi.LibraryHandle(7), addInst).Return(errBoom)
			loader.EXPECT().Close(pluginapi.LibraryHandle(7))
			loader.EXPECT().DestroyInstance(pluginapi.LibraryHandle(8), subInst).Return(nil)
			loader.EXPECT().Close(pluginapi.LibraryHandle(8))

			_, err := registry.Load(addDesc)
			Expect(err).NotTo(HaveOccurred())
			_, err = registry.Load(subDesc)
			Expect(err).NotTo(HaveOccurred())

			Expect(registry.Close()).To(MatchError(ContainSubstring("boom")))
			Expect(registry.Loaded(addDesc)).To(BeFalse())
			Expect(registry.Loaded(subDesc)).To(BeFalse())

			Expect(registry.Close()).To(Succeed())
		})
	})
})
