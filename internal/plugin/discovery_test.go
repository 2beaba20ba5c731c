package plugin_test

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smykla-skalski/calcengine/internal/plugin"
	"github.com/smykla-skalski/calcengine/internal/plugin/plugintest"
	"github.com/smykla-skalski/calcengine/pkg/logger"
)

var _ = Describe("Discovery", func() {
	var (
		dir    string
		loader *plugintest.Loader
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	newRegistry := func(modules map[string]plugintest.Module, opts ...plugin.Option) *plugin.Registry {
		var err error

		loader, err = plugintest.NewDirectory(dir, modules)
		Expect(err).NotTo(HaveOccurred())

		opts = append([]plugin.Option{plugin.WithDirectory(dir)}, opts...)
		registry := plugin.NewRegistry(loader, logger.NewNoOpLogger(), opts...)
		Expect(registry.Initialize()).To(Succeed())

		return registry
	}

	reasons := func(events []plugin.DiscoveryEvent) map[string]plugin.Reason {
		out := make(map[string]plugin.Reason, len(events))
		for _, e := range events {
			out[filepath.Base(e.Path)] = e.Reason
		}

		return out
	}

	It("registers one library next to a plain file", func() {
		registry := newRegistry(map[string]plugintest.Module{
			"libadd.so": plugintest.Add(),
			"README":    {NotLibrary: true},
		})

		Expect(registry.All()).To(HaveLen(1))
		Expect(reasons(registry.Events())).To(Equal(map[string]plugin.Reason{
			"libadd.so": plugin.ReasonRegistered,
			"README":    plugin.ReasonOpenFailed,
		}))
	})

	It("satisfies lookup for every discovered descriptor", func() {
		registry := newRegistry(map[string]plugintest.Module{
			"libadd.so": plugintest.Add(),
			"libsub.so": plugintest.Sub(),
		})

		all := registry.All()
		Expect(all).To(HaveLen(2))
		Expect(all[0].ID()).To(Equal("operation::add"))
		Expect(all[1].ID()).To(Equal("operation::sub"))

		for _, d := range all {
			found, ok := registry.Lookup(d.Type, d.Name)
			Expect(ok).To(BeTrue())
			Expect(found).To(Equal(d))
		}
	})

	It("skips directories without probing them", func() {
		Expect(os.Mkdir(filepath.Join(dir, "nested"), 0o700)).To(Succeed())

		registry := newRegistry(map[string]plugintest.Module{})

		Expect(reasons(registry.Events())).To(Equal(map[string]plugin.Reason{
			"nested": plugin.ReasonSkipped,
		}))
		Expect(loader.Opens).To(BeZero())
	})

	It("ignores entries matching a pattern", func() {
		registry := newRegistry(map[string]plugintest.Module{
			"libadd.so":  plugintest.Add(),
			"notes.txt":  {NotLibrary: true},
			"libsub.so~": plugintest.Sub(),
		}, plugin.WithIgnorePatterns("*.txt", "*~"))

		Expect(registry.All()).To(HaveLen(1))
		Expect(loader.Opens).To(Equal(1))

		r := reasons(registry.Events())
		Expect(r["notes.txt"]).To(Equal(plugin.ReasonIgnored))
		Expect(r["libsub.so~"]).To(Equal(plugin.ReasonIgnored))
	})

	It("discards modules without metadata but still destroys the instance", func() {
		noType := plugintest.Add()
		noType.Type = ""
		noName := plugintest.Sub()
		noName.Name = ""

		registry := newRegistry(map[string]plugintest.Module{
			"libnotype.so": noType,
			"libnoname.so": noName,
		})

		Expect(registry.All()).To(BeEmpty())
		Expect(reasons(registry.Events())).To(Equal(map[string]plugin.Reason{
			"libnotype.so": plugin.ReasonMissingType,
			"libnoname.so": plugin.ReasonMissingName,
		}))
		Expect(loader.Destroys).To(Equal(2))
		Expect(loader.LiveInstances()).To(BeZero())
		Expect(loader.OpenLibraries()).To(BeZero())
	})

	It("discards modules whose probe instance cannot be destroyed", func() {
		leaky := plugintest.Add()
		leaky.FailDestroy = true

		registry := newRegistry(map[string]plugintest.Module{"libleaky.so": leaky})

		Expect(registry.All()).To(BeEmpty())
		Expect(reasons(registry.Events())["libleaky.so"]).To(Equal(plugin.ReasonDestroyFailed))
		Expect(loader.OpenLibraries()).To(BeZero())
	})

	It("keeps the last of two colliding modules", func() {
		registry := newRegistry(map[string]plugintest.Module{
			"liba.so": plugintest.Add(),
			"libb.so": plugintest.Add(),
		})

		d, ok := registry.Lookup("operation", "add")
		Expect(ok).To(BeTrue())
		Expect(d.LibraryPath).To(Equal(filepath.Join(dir, "libb.so")))
		Expect(reasons(registry.Events())).To(Equal(map[string]plugin.Reason{
			"liba.so": plugin.ReasonShadowed,
			"libb.so": plugin.ReasonReplaced,
		}))
	})

	It("links the shadowed and the replacing event", func() {
		registry := newRegistry(map[string]plugintest.Module{
			"liba.so": plugintest.Add(),
			"libb.so": plugintest.Add(),
			"libc.so": plugintest.Add(),
		})

		byName := make(map[string]plugin.DiscoveryEvent)
		for _, e := range registry.Events() {
			byName[filepath.Base(e.Path)] = e
		}

		Expect(byName["liba.so"].Reason).To(Equal(plugin.ReasonShadowed))
		Expect(byName["liba.so"].ShadowedBy).To(Equal(filepath.Join(dir, "libb.so")))
		Expect(byName["libb.so"].Reason).To(Equal(plugin.ReasonShadowed))
		Expect(byName["libb.so"].Replaces).To(Equal(filepath.Join(dir, "liba.so")))
		Expect(byName["libb.so"].ShadowedBy).To(Equal(filepath.Join(dir, "libc.so")))
		Expect(byName["libc.so"].Reason).To(Equal(plugin.ReasonReplaced))
		Expect(byName["libc.so"].Replaces).To(Equal(filepath.Join(dir, "libb.so")))

		accepted := 0
		for _, e := range registry.Events() {
			if e.Accepted() {
				accepted++
			}
		}

		Expect(accepted).To(Equal(len(registry.All())))
	})

	It("leaves no library open after the scan", func() {
		newRegistry(map[string]plugintest.Module{
			"libadd.so": plugintest.Add(),
			"libsub.so": plugintest.Sub(),
		})

		Expect(loader.Opens).To(Equal(2))
		Expect(loader.Closes).To(Equal(2))
		Expect(loader.OpenLibraries()).To(BeZero())
		Expect(loader.LiveInstances()).To(BeZero())
	})

	It("treats a missing directory as an empty catalog", func() {
		missing := filepath.Join(dir, "does-not-exist")
		registry := plugin.NewRegistry(
			plugintest.NewLoader(nil),
			logger.NewNoOpLogger(),
			plugin.WithDirectory(missing),
		)

		Expect(registry.Initialize()).To(Succeed())
		Expect(registry.All()).To(BeEmpty())
		Expect(errors.Is(registry.ScanError(), plugin.ErrDirectoryUnavailable)).To(BeTrue())
	})

	Describe("lifecycle", func() {
		var (
			registry *plugin.Registry
			add      plugin.Descriptor
		)

		BeforeEach(func() {
			registry = newRegistry(map[string]plugintest.Module{
				"libadd.so": plugintest.Add(),
				"libsub.so": plugintest.Sub(),
			})

			var ok bool
			add, ok = registry.Lookup("operation", "add")
			Expect(ok).To(BeTrue())

			loader.Reset()
		})

		It("opens the library once for consecutive loads", func() {
			first, err := registry.Load(add)
			Expect(err).NotTo(HaveOccurred())

			second, err := registry.Load(add)
			Expect(err).NotTo(HaveOccurred())

			Expect(second).To(BeIdenticalTo(first))
			Expect(loader.Opens).To(Equal(1))
			Expect(loader.Creates).To(Equal(1))
			Expect(first.Execute(2, 3)).To(Equal(5.0))
		})

		It("creates a fresh instance after unload", func() {
			first, err := registry.Load(add)
			Expect(err).NotTo(HaveOccurred())
			firstHandle := first.Handle()

			Expect(registry.Unload(add)).To(Succeed())

			second, err := registry.Load(add)
			Expect(err).NotTo(HaveOccurred())

			Expect(second.Handle()).NotTo(Equal(firstHandle))
			Expect(loader.Opens).To(Equal(2))
			Expect(loader.Creates).To(Equal(2))
		})

		It("balances every open and create after teardown", func() {
			for _, d := range registry.All() {
				_, err := registry.Load(d)
				Expect(err).NotTo(HaveOccurred())
			}

			Expect(loader.OpenLibraries()).To(Equal(2))
			Expect(registry.Close()).To(Succeed())

			Expect(loader.OpenLibraries()).To(BeZero())
			Expect(loader.LiveInstances()).To(BeZero())
			Expect(loader.Opens).To(Equal(loader.Closes))
			Expect(loader.Creates).To(Equal(loader.Destroys))
			Expect(registry.All()).To(BeEmpty())
		})

		It("stays consistent under concurrent use", func() {
			var wg sync.WaitGroup

			for range 16 {
				wg.Add(1)

				go func() {
					defer GinkgoRecover()
					defer wg.Done()

					for range 50 {
						inst, err := registry.Load(add)
						Expect(err).NotTo(HaveOccurred())
						Expect(inst).NotTo(BeNil())

						_, _ = registry.Lookup("operation", "sub")
						_ = registry.Loaded(add)
						Expect(registry.Unload(add)).To(Succeed())
					}
				}()
			}

			wg.Wait()
			Expect(registry.Close()).To(Succeed())
			Expect(loader.OpenLibraries()).To(BeZero())
			Expect(loader.LiveInstances()).To(BeZero())
		})
	})
})

var _ = Describe("Probe", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	probe := func(name string, m plugintest.Module) (plugin.DiscoveryEvent, *plugintest.Loader) {
		loader, err := plugintest.NewDirectory(dir, map[string]plugintest.Module{name: m})
		Expect(err).NotTo(HaveOccurred())

		return plugin.Probe(loader, filepath.Join(dir, name)), loader
	}

	It("returns a descriptor and releases every handle", func() {
		event, loader := probe("libadd.so", plugintest.Add())

		Expect(event.Accepted()).To(BeTrue())
		Expect(event.Descriptor.ID()).To(Equal("operation::add"))
		Expect(event.Descriptor.LibraryPath).To(Equal(filepath.Join(dir, "libadd.so")))
		Expect(event.Duration).To(BeNumerically(">=", 0))
		Expect(loader.OpenLibraries()).To(BeZero())
		Expect(loader.LiveInstances()).To(BeZero())
	})

	It("destroys the instance when the type is missing", func() {
		m := plugintest.Add()
		m.Type = ""

		event, loader := probe("libnotype.so", m)

		Expect(event.Reason).To(Equal(plugin.ReasonMissingType))
		Expect(errors.Is(event.Err, plugin.ErrProbeFailed)).To(BeTrue())
		Expect(event.Descriptor).To(BeNil())
		Expect(loader.Creates).To(Equal(loader.Destroys))
		Expect(loader.OpenLibraries()).To(BeZero())
	})

	It("reports files that are not libraries", func() {
		event, _ := probe("notes.txt", plugintest.Module{NotLibrary: true})

		Expect(event.Reason).To(Equal(plugin.ReasonOpenFailed))
		Expect(event.ErrorMessage()).To(ContainSubstring("notes.txt"))
	})
})
