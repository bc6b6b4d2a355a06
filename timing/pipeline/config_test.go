package pipeline_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ooosim/timing/cache"
	"github.com/sarchlab/ooosim/timing/pipeline"
)

var _ = Describe("Config", func() {
	It("should have valid defaults", func() {
		cfg := pipeline.DefaultConfig()
		Expect(cfg.Validate()).To(Succeed())
		Expect(cfg.IssueWidth).To(Equal(4))
		Expect(cfg.CommitWidth).To(Equal(4))
		Expect(cfg.ROBSize).To(Equal(32))
		Expect(cfg.Predictor.Policy).To(Equal(pipeline.PolicyBimodal))
		Expect(cfg.DCache).To(BeNil())
	})

	DescribeTable("rejects invalid values",
		func(mutate func(*pipeline.Config), field string) {
			cfg := pipeline.DefaultConfig()
			mutate(&cfg)

			_, err := pipeline.NewEngine(mustLoad("1\nNOP"), cfg)
			Expect(err).To(HaveOccurred())

			var cerr *pipeline.ConfigurationError
			Expect(errors.As(err, &cerr)).To(BeTrue())
			Expect(cerr.Field).To(Equal(field))
			Expect(err.Error()).To(ContainSubstring(field))
		},
		Entry("issue width", func(c *pipeline.Config) { c.IssueWidth = 0 }, "issue_width"),
		Entry("commit width", func(c *pipeline.Config) { c.CommitWidth = -1 }, "commit_width"),
		Entry("rob size", func(c *pipeline.Config) { c.ROBSize = 0 }, "rob_size"),
		Entry("prefetch size", func(c *pipeline.Config) { c.PrefetchSize = 0 }, "prefetch_size"),
		Entry("station capacity", func(c *pipeline.Config) { c.Stations.FloatMul = 0 }, "stations.float_mul"),
		Entry("latency", func(c *pipeline.Config) { c.Timing.JumpLatency = 0 }, "timing"),
		Entry("policy", func(c *pipeline.Config) { c.Predictor.Policy = "oracle" }, "predictor.policy"),
		Entry("bht size", func(c *pipeline.Config) { c.Predictor.BHTSize = 100 }, "predictor.bht_size"),
		Entry("dcache", func(c *pipeline.Config) {
			dc := cache.DefaultL1DConfig()
			dc.BlockSize = 12
			c.DCache = &dc
		}, "dcache"),
	)

	It("should accept a static policy regardless of table sizes", func() {
		cfg := pipeline.DefaultConfig()
		cfg.Predictor = pipeline.PredictorConfig{Policy: pipeline.PolicyTaken}
		Expect(cfg.Validate()).To(Succeed())
	})

	It("should deep copy the data cache config", func() {
		cfg := pipeline.DefaultConfig()
		dc := cache.DefaultL1DConfig()
		cfg.DCache = &dc

		clone := cfg.Clone()
		clone.DCache.Size = 2048
		Expect(cfg.DCache.Size).To(Equal(1024))
	})

	Describe("Files", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		It("should keep defaults for keys missing from a TOML file", func() {
			path := filepath.Join(dir, "engine.toml")
			Expect(os.WriteFile(path, []byte("issue_width = 2\n\n[stations]\nmemory = 1\n\n[timing]\nfloat_mul_latency = 9\n"), 0o644)).To(Succeed())

			cfg, err := pipeline.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.IssueWidth).To(Equal(2))
			Expect(cfg.Stations.Memory).To(Equal(1))
			Expect(cfg.Stations.IntAdd).To(Equal(4))
			Expect(cfg.Timing.FloatMulLatency).To(Equal(uint64(9)))
			Expect(cfg.Timing.IntAddLatency).To(Equal(uint64(1)))
			Expect(cfg.ROBSize).To(Equal(32))
		})

		It("should read JSON files", func() {
			path := filepath.Join(dir, "engine.json")
			Expect(os.WriteFile(path, []byte(`{"rob_size": 8, "predictor": {"policy": "taken"}}`), 0o644)).To(Succeed())

			cfg, err := pipeline.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.ROBSize).To(Equal(8))
			Expect(cfg.Predictor.Policy).To(Equal(pipeline.PolicyTaken))
			Expect(cfg.Predictor.BHTSize).To(Equal(uint32(1024)))
		})

		It("should save a config that loads back unchanged", func() {
			cfg := pipeline.DefaultConfig()
			cfg.IssueWidth = 3
			dc := cache.DefaultL1DConfig()
			cfg.DCache = &dc

			for _, name := range []string{"engine.toml", "engine.json"} {
				path := filepath.Join(dir, name)
				Expect(cfg.SaveConfig(path)).To(Succeed())

				loaded, err := pipeline.LoadConfig(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(loaded).To(Equal(cfg))
			}
		})

		It("should report malformed files", func() {
			path := filepath.Join(dir, "engine.toml")
			Expect(os.WriteFile(path, []byte("issue_width = \"wide\""), 0o644)).To(Succeed())

			_, err := pipeline.LoadConfig(path)
			Expect(err).To(HaveOccurred())
		})

		It("should report missing files", func() {
			_, err := pipeline.LoadConfig(filepath.Join(dir, "missing.json"))
			Expect(err).To(HaveOccurred())
		})
	})
})
