package crashdump_test

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smykla-skalski/calcengine/internal/crashdump"
)

var _ = Describe("Writer and Storage", func() {
	var (
		dir     string
		writer  *crashdump.Writer
		storage *crashdump.Storage
	)

	dump := func(id string, age time.Duration, panicValue string) *crashdump.CrashInfo {
		return &crashdump.CrashInfo{
			ID:         id,
			Timestamp:  time.Now().Add(-age),
			PanicValue: panicValue,
		}
	}

	BeforeEach(func() {
		dir = filepath.Join(GinkgoT().TempDir(), "crashes")

		var err error

		writer, err = crashdump.NewWriter(dir)
		Expect(err).NotTo(HaveOccurred())

		storage, err = crashdump.NewStorage(dir)
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects an empty directory", func() {
		_, err := crashdump.NewWriter("")
		Expect(errors.Is(err, crashdump.ErrInvalidDumpDir)).To(BeTrue())

		_, err = crashdump.NewStorage("")
		Expect(errors.Is(err, crashdump.ErrInvalidDumpDir)).To(BeTrue())
	})

	It("rejects nil info", func() {
		_, err := writer.Write(nil)
		Expect(errors.Is(err, crashdump.ErrWriteFailed)).To(BeTrue())
	})

	It("writes private files and reads them back", func() {
		path, err := writer.Write(dump("crash-a", 0, "boom"))
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(dir, "crash-a.json")))

		info, err := os.Stat(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(crashdump.FilePerm))
		Expect(filepath.Join(dir, "crash-a.json.tmp")).NotTo(BeAnExistingFile())

		got, err := storage.Get("crash-a")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.PanicValue).To(Equal("boom"))
	})

	It("lists an absent directory as empty", func() {
		Expect(storage.List()).To(BeEmpty())
	})

	It("lists newest first, skipping corrupt files", func() {
		_, err := writer.Write(dump("crash-old", time.Hour, "old"))
		Expect(err).NotTo(HaveOccurred())
		_, err = writer.Write(dump("crash-new", time.Minute, strings.Repeat("x", 100)))
		Expect(err).NotTo(HaveOccurred())
		Expect(os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("{"), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o600)).To(Succeed())

		summaries, err := storage.List()
		Expect(err).NotTo(HaveOccurred())
		Expect(summaries).To(HaveLen(2))
		Expect(summaries[0].ID).To(Equal("crash-new"))
		Expect(summaries[0].PanicValue).To(HaveLen(83))
		Expect(summaries[0].Size).To(BeNumerically(">", 0))
		Expect(summaries[1].ID).To(Equal("crash-old"))
	})

	It("reports missing dumps", func() {
		_, err := storage.Get("nope")
		Expect(errors.Is(err, crashdump.ErrDumpNotFound)).To(BeTrue())
		Expect(errors.Is(storage.Delete("nope"), crashdump.ErrDumpNotFound)).To(BeTrue())
	})

	It("does not escape the dump directory", func() {
		_, err := storage.Get("../../etc/passwd")
		Expect(errors.Is(err, crashdump.ErrDumpNotFound)).To(BeTrue())
	})

	It("prunes by age, then by count", func() {
		for _, d := range []*crashdump.CrashInfo{
			dump("crash-1", 72*time.Hour, "1"),
			dump("crash-2", 3*time.Hour, "2"),
			dump("crash-3", 2*time.Hour, "3"),
			dump("crash-4", time.Hour, "4"),
		} {
			_, err := writer.Write(d)
			Expect(err).NotTo(HaveOccurred())
		}

		removed, err := storage.Prune(2, 24*time.Hour)
		Expect(err).NotTo(HaveOccurred())
		Expect(removed).To(Equal(2))

		summaries, err := storage.List()
		Expect(err).NotTo(HaveOccurred())
		Expect(summaries).To(HaveLen(2))
		Expect(summaries[0].ID).To(Equal("crash-4"))
		Expect(summaries[1].ID).To(Equal("crash-3"))
	})

	It("keeps everything with no limits", func() {
		_, err := writer.Write(dump("crash-1", 72*time.Hour, "1"))
		Expect(err).NotTo(HaveOccurred())

		Expect(storage.Prune(-1, 0)).To(BeZero())
	})
})
