package engine_test

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/sync/errgroup"

	"github.com/smykla-skalski/calcengine/internal/engine"
	"github.com/smykla-skalski/calcengine/internal/invoke"
	"github.com/smykla-skalski/calcengine/internal/plugin"
	"github.com/smykla-skalski/calcengine/internal/plugin/plugintest"
	"github.com/smykla-skalski/calcengine/pkg/logger"
)

var _ = Describe("Engine", func() {
	var (
		dir    string
		loader *plugintest.Loader
		eng    *engine.Engine
	)

	start := func(modules map[string]plugintest.Module, opts ...engine.Option) {
		GinkgoHelper()

		var err error

		loader, err = plugintest.NewDirectory(dir, modules)
		Expect(err).NotTo(HaveOccurred())

		registry := plugin.NewRegistry(loader, logger.NewNoOpLogger(), plugin.WithDirectory(dir))

		eng, err = engine.New(registry, logger.NewNoOpLogger(), opts...)
		Expect(err).NotTo(HaveOccurred())
		Expect(eng.Start()).To(Succeed())
		DeferCleanup(eng.Stop)
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	Context("with add and sub", func() {
		BeforeEach(func() {
			start(map[string]plugintest.Module{
				"libadd.so": plugintest.Add(),
				"libsub.so": plugintest.Sub(),
				"README":    {NotLibrary: true},
			})
		})

		It("reports supported operations", func() {
			Expect(eng.IsSupported("operation", "add")).To(BeTrue())
			Expect(eng.IsSupported("operation", "sub")).To(BeTrue())
			Expect(eng.IsSupported("operation", "mul")).To(BeFalse())
			Expect(eng.Catalog()).To(HaveLen(2))
		})

		It("runs add and sub", func() {
			Expect(eng.Run("operation", "add", 2, 3)).To(Equal(5.0))
			Expect(eng.Run("operation", "sub", 10, 4)).To(Equal(6.0))
		})

		It("fails unknown operations without a sentinel value", func() {
			result, err := eng.Run("operation", "mul", 2, 3)
			Expect(errors.Is(err, plugin.ErrUnknownPlugin)).To(BeTrue())
			Expect(result).To(BeZero())
		})

		It("unloads after every run", func() {
			_, err := eng.Run("operation", "add", 1, 1)
			Expect(err).NotTo(HaveOccurred())

			add, _ := eng.Registry().Lookup("operation", "add")
			Expect(eng.Registry().Loaded(add)).To(BeFalse())
			Expect(loader.OpenLibraries()).To(BeZero())
			Expect(loader.LiveInstances()).To(BeZero())
		})

		It("invokes JSON methods", func() {
			out, err := eng.Invoke("operation", "sub", invoke.MethodExecute, []byte(`{"operandA":10,"operandB":4}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(MatchJSON(`{"result":6}`))

			out, err = eng.Invoke("operation", "sub", invoke.MethodVersion, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(MatchJSON(`{"version":"1.0"}`))
		})

		It("unloads even when the JSON method fails", func() {
			_, err := eng.Invoke("operation", "add", "divide", nil)
			Expect(errors.Is(err, invoke.ErrUnknownMethod)).To(BeTrue())
			Expect(loader.LiveInstances()).To(BeZero())
		})

		It("runs the same operation from many goroutines", func() {
			loader.Reset()

			var g errgroup.Group

			for i := range 16 {
				g.Go(func() error {
					for j := range 25 {
						a, b := float64(i), float64(j)

						sum, err := eng.Run("operation", "add", a, b)
						if err != nil {
							return err
						}

						if sum != a+b {
							return errors.Newf("add(%v, %v) = %v", a, b, sum)
						}

						if _, err := eng.Run("operation", "sub", a, b); err != nil {
							return err
						}
					}

					return nil
				})
			}

			Expect(g.Wait()).To(Succeed())
			Expect(loader.StaleCalls).To(BeZero())
			Expect(loader.Creates).To(Equal(loader.Destroys))
			Expect(loader.LiveInstances()).To(BeZero())
			Expect(loader.OpenLibraries()).To(BeZero())
		})

		It("describes methods without loading", func() {
			loader.Reset()

			schema, err := eng.Describe("operation", "add", invoke.MethodExecute)
			Expect(err).NotTo(HaveOccurred())
			Expect(schema.Method).To(Equal("execute"))
			Expect(loader.Opens).To(BeZero())

			_, err = eng.Describe("operation", "mul", invoke.MethodExecute)
			Expect(errors.Is(err, plugin.ErrUnknownPlugin)).To(BeTrue())

			Expect(eng.Methods()).To(Equal([]string{"execute", "version"}))
		})
	})

	It("reports modules that cannot be loaded as unavailable", func() {
		start(map[string]plugintest.Module{"libadd.so": plugintest.Add()})

		broken := plugintest.Add()
		broken.FailCreate = true
		loader.Replace(filepath.Join(dir, "libadd.so"), broken)

		result, err := eng.Run("operation", "add", 1, 2)
		Expect(errors.Is(err, engine.ErrPluginUnavailable)).To(BeTrue())
		Expect(errors.Is(err, plugin.ErrInstanceCreateFailed)).To(BeTrue())
		Expect(result).To(BeZero())
		Expect(loader.OpenLibraries()).To(BeZero())
	})

	It("rejects instances outside the version constraint", func() {
		old := plugintest.Add()
		old.Version = "0.9"

		start(map[string]plugintest.Module{"libadd.so": old})

		_, err := eng.Run("operation", "add", 1, 2)
		Expect(errors.Is(err, engine.ErrIncompatibleVersion)).To(BeTrue())
		Expect(loader.LiveInstances()).To(BeZero())
	})

	It("verifies the reported version and unloads", func() {
		old := plugintest.Add()
		old.Version = "0.9"

		start(map[string]plugintest.Module{
			"libadd.so": old,
			"libsub.so": plugintest.Sub(),
		})

		version, err := eng.Verify("operation", "sub")
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal("1.0"))

		version, err = eng.Verify("operation", "add")
		Expect(errors.Is(err, engine.ErrIncompatibleVersion)).To(BeTrue())
		Expect(version).To(Equal("0.9"))

		_, err = eng.Verify("operation", "mul")
		Expect(errors.Is(err, plugin.ErrUnknownPlugin)).To(BeTrue())

		Expect(loader.LiveInstances()).To(BeZero())
		Expect(loader.OpenLibraries()).To(BeZero())
	})

	It("accepts a custom version constraint", func() {
		old := plugintest.Add()
		old.Version = "0.9"

		start(map[string]plugintest.Module{"libadd.so": old}, engine.WithVersionConstraint(">=0.9"))

		Expect(eng.Run("operation", "add", 1, 2)).To(Equal(3.0))
	})

	It("rejects a malformed version constraint", func() {
		registry := plugin.NewRegistry(plugintest.NewLoader(nil), logger.NewNoOpLogger())

		_, err := engine.New(registry, logger.NewNoOpLogger(), engine.WithVersionConstraint("one point oh"))
		Expect(err).To(HaveOccurred())
	})

	It("starts with an empty catalog when the directory is missing", func() {
		registry := plugin.NewRegistry(
			plugintest.NewLoader(nil),
			logger.NewNoOpLogger(),
			plugin.WithDirectory(filepath.Join(dir, "missing")),
		)

		e, err := engine.New(registry, logger.NewNoOpLogger())
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Start()).To(Succeed())
		Expect(e.Catalog()).To(BeEmpty())
		Expect(e.IsSupported("operation", "add")).To(BeFalse())
		Expect(e.Stop()).To(Succeed())
	})
})
