package crashdump_test

import (
	"runtime"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smykla-skalski/calcengine/internal/crashdump"
)

var _ = Describe("Collector", func() {
	var collector *crashdump.Collector

	BeforeEach(func() {
		collector = crashdump.NewCollector("1.2.3")
	})

	DescribeTable("formats panic values",
		func(recovered any, expected string) {
			Expect(collector.Collect(recovered, nil, nil).PanicValue).To(Equal(expected))
		},
		Entry("string", "boom", "boom"),
		Entry("error", errors.New("bad operand"), "bad operand"),
		Entry("nil", nil, "panic(nil)"),
		Entry("PanicNilError", new(runtime.PanicNilError), "panic(nil)"),
		Entry("other", 42, "42"),
	)

	It("collects runtime, metadata and a stack", func() {
		info := collector.Collect("boom", nil, nil)

		Expect(info.ID).To(MatchRegexp(`^crash-\d{8}T\d{6}-[0-9a-f]{8}$`))
		Expect(info.Runtime.GOOS).To(Equal(runtime.GOOS))
		Expect(info.Runtime.GoVersion).To(Equal(runtime.Version()))
		Expect(info.Metadata.Version).To(Equal("1.2.3"))
		Expect(info.StackTrace).To(ContainSubstring("goroutine"))
		Expect(info.Context).To(BeNil())
		Expect(info.Config).To(BeNil())
	})

	It("copies context and config", func() {
		ctx := &crashdump.ContextInfo{
			Command:    "run",
			PluginType: "operation",
			PluginName: "add",
			Args:       []string{"add", "1", "2"},
		}

		info := collector.Collect("boom", ctx, map[string]any{
			"plugins": map[string]any{"interface_version": "^1.0"},
		})

		Expect(info.Context).NotTo(BeIdenticalTo(ctx))
		Expect(info.Context.PluginName).To(Equal("add"))
		Expect(info.Context.Args).To(Equal([]string{"add", "1", "2"}))
		Expect(info.Config).To(HaveKeyWithValue("plugins",
			HaveKeyWithValue("interface_version", "^1.0")))
	})
})

var _ = Describe("Sanitizer", func() {
	sanitizer := crashdump.NewSanitizerWithHome("/home/alex")

	It("rewrites paths under home", func() {
		Expect(sanitizer.SanitizeString("/home/alex")).To(Equal("~"))
		Expect(sanitizer.SanitizeString("/home/alex/.calcengine/plugins")).To(Equal("~/.calcengine/plugins"))
		Expect(sanitizer.SanitizeString("/home/alexandra/x")).To(Equal("/home/alexandra/x"))
		Expect(sanitizer.SanitizeString("/opt/plugins")).To(Equal("/opt/plugins"))
	})

	It("rewrites nested maps and slices without touching the input", func() {
		in := map[string]any{
			"plugins": map[string]any{
				"directory": "/home/alex/plugins",
				"ignore":    []any{"/home/alex/skip", "*.txt"},
			},
			"count": 3,
		}

		out := sanitizer.SanitizeMap(in)

		Expect(out).To(HaveKeyWithValue("count", 3))
		Expect(out["plugins"]).To(HaveKeyWithValue("directory", "~/plugins"))
		Expect(out["plugins"]).To(HaveKeyWithValue("ignore", []any{"~/skip", "*.txt"}))
		Expect(in["plugins"]).To(HaveKeyWithValue("directory", "/home/alex/plugins"))
	})

	It("rewrites context paths", func() {
		ctx := sanitizer.SanitizeContext(crashdump.ContextInfo{
			PluginsDir: "/home/alex/plugins",
			Args:       []string{"/home/alex/libadd.so"},
		})

		Expect(ctx.PluginsDir).To(Equal("~/plugins"))
		Expect(ctx.Args).To(Equal([]string{"~/libadd.so"}))
	})

	It("leaves everything alone without a home directory", func() {
		Expect(crashdump.NewSanitizerWithHome("").SanitizeString("/home/alex")).To(Equal("/home/alex"))
	})
})
