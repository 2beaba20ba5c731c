package schema_test

import (
	"encoding/json"
	"regexp"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smykla-skalski/calcengine/internal/schema"
)

var _ = Describe("Generate", func() {
	var s map[string]any

	section := func(name string) map[string]any {
		GinkgoHelper()

		props, ok := s["properties"].(map[string]any)
		Expect(ok).To(BeTrue())

		sec, ok := props[name].(map[string]any)
		Expect(ok).To(BeTrue(), name)

		return sec
	}

	key := func(sec, name string) map[string]any {
		GinkgoHelper()

		props, ok := section(sec)["properties"].(map[string]any)
		Expect(ok).To(BeTrue())

		k, ok := props[name].(map[string]any)
		Expect(ok).To(BeTrue(), sec+"."+name)

		return k
	}

	BeforeEach(func() {
		data, err := schema.GenerateJSON(true)
		Expect(err).NotTo(HaveOccurred())
		Expect(json.Unmarshal(data, &s)).To(Succeed())
	})

	It("identifies the schema", func() {
		Expect(s["$schema"]).To(Equal("https://json-schema.org/draft/2020-12/schema"))
		Expect(s["$id"]).To(Equal(schema.SchemaURL))
		Expect(s["title"]).To(Equal("calcengine configuration"))
		Expect(s["description"]).NotTo(BeEmpty())
	})

	It("inlines every section", func() {
		Expect(s).NotTo(HaveKey("$defs"))

		for _, name := range []string{"plugins", "log", "repl", "doctor"} {
			Expect(section(name)["type"]).To(Equal("object"))
			Expect(section(name)["additionalProperties"]).To(BeFalse())
		}
	})

	It("documents the defaults", func() {
		Expect(key("plugins", "directory")["default"]).To(Equal("~/.calcengine/plugins"))
		Expect(key("plugins", "interface_version")["default"]).To(Equal("^1.0"))
		Expect(key("log", "level")["default"]).To(Equal("error"))
		Expect(key("repl", "prompt")["default"]).To(Equal("auto"))
		Expect(key("doctor", "timeout")["default"]).To(Equal("10s"))
	})

	It("constrains enumerated keys", func() {
		Expect(key("log", "level")["enum"]).To(ConsistOf("debug", "info", "error"))
		Expect(key("repl", "prompt")["enum"]).To(ConsistOf("auto", "always", "never"))
	})

	It("accepts Go durations for the doctor timeout", func() {
		pattern, ok := key("doctor", "timeout")["pattern"].(string)
		Expect(ok).To(BeTrue())

		re := regexp.MustCompile(pattern)
		Expect(re.MatchString("10s")).To(BeTrue())
		Expect(re.MatchString("1m30s")).To(BeTrue())
		Expect(re.MatchString("250ms")).To(BeTrue())
		Expect(re.MatchString("ten")).To(BeFalse())
		Expect(re.MatchString("-5s")).To(BeFalse())
	})

	It("rejects empty ignore patterns", func() {
		items, ok := key("plugins", "ignore")["items"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(items["minLength"]).To(BeNumerically("==", 1))
	})

	It("ends with a newline", func() {
		data, err := schema.GenerateJSON(false)
		Expect(err).NotTo(HaveOccurred())
		Expect(data[len(data)-1]).To(Equal(byte('\n')))
	})

	It("builds a taplo directive", func() {
		Expect(schema.SchemaDirective()).To(Equal("#:schema " + schema.SchemaURL))
	})
})
