package config_test

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smykla-skalski/calcengine/internal/config"
	"github.com/smykla-skalski/calcengine/pkg/logger"
)

var _ = Describe("Writer", func() {
	var (
		homeDir string
		workDir string
		writer  *config.Writer
	)

	BeforeEach(func() {
		tmpDir := GinkgoT().TempDir()
		homeDir = filepath.Join(tmpDir, "home")
		workDir = filepath.Join(tmpDir, "work")
		writer = config.NewWriterWithDirs(homeDir, workDir)
	})

	It("renders the schema directive and tables", func() {
		data, err := writer.Render(config.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())

		text := string(data)
		Expect(text).To(HavePrefix("#:schema "))
		Expect(text).To(ContainSubstring("[plugins]"))
		Expect(text).To(ContainSubstring("interface_version = '^1.0'"))
		Expect(text).To(ContainSubstring("level = 'error'"))
		Expect(text).To(ContainSubstring("timeout = '10s'"))
	})

	It("writes the global file with private permissions", func() {
		path := writer.GlobalConfigPath()
		Expect(writer.WriteFile(path, config.DefaultConfig(), false)).To(Succeed())

		info, err := os.Stat(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(config.ConfigFileMode)))

		dirInfo, err := os.Stat(filepath.Dir(path))
		Expect(err).NotTo(HaveOccurred())
		Expect(dirInfo.Mode().Perm()).To(Equal(os.FileMode(config.ConfigDirMode)))
	})

	It("refuses to overwrite without force", func() {
		path := writer.ProjectConfigPath()
		Expect(writer.WriteFile(path, config.DefaultConfig(), false)).To(Succeed())

		err := writer.WriteFile(path, config.DefaultConfig(), false)
		Expect(errors.Is(err, config.ErrConfigExists)).To(BeTrue())

		Expect(writer.WriteFile(path, config.DefaultConfig(), true)).To(Succeed())
	})

	It("round-trips through the loader", func() {
		cfg := config.DefaultConfig()
		cfg.Plugins.Directory = "/opt/calc/plugins"
		level := logger.LevelDebug
		cfg.Log.Level = &level

		Expect(writer.WriteFile(writer.GlobalConfigPath(), cfg, false)).To(Succeed())

		loaded, err := config.NewKoanfLoaderWithDirs(homeDir, workDir).Load(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.GetPlugins().GetDirectory()).To(Equal("/opt/calc/plugins"))
		Expect(loaded.GetLog().GetLevel()).To(Equal(logger.LevelDebug))
	})

	Describe("Diff", func() {
		It("shows every line as added when the file is missing", func() {
			path := writer.ProjectConfigPath()

			diff, err := writer.Diff(path, config.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(diff).To(ContainSubstring("+[plugins]"))
		})

		It("is empty when nothing changes", func() {
			path := writer.ProjectConfigPath()
			Expect(writer.WriteFile(path, config.DefaultConfig(), false)).To(Succeed())

			diff, err := writer.Diff(path, config.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(diff).To(BeEmpty())
		})

		It("shows changed values", func() {
			path := writer.ProjectConfigPath()
			Expect(writer.WriteFile(path, config.DefaultConfig(), false)).To(Succeed())

			cfg := config.DefaultConfig()
			cfg.Plugins.InterfaceVersion = "^2.0"

			diff, err := writer.Diff(path, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(diff).To(ContainSubstring("-  interface_version = '^1.0'"))
			Expect(diff).To(ContainSubstring("+  interface_version = '^2.0'"))
		})
	})
})
