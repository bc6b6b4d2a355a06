package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ooosim/insts"
	"github.com/sarchlab/ooosim/timing/pipeline"
)

func branchAt(id, target int) *insts.Instruction {
	return &insts.Instruction{
		ID: id,
		Op: insts.OpBNE,
		Operands: [3]insts.Operand{
			{Kind: insts.OperandGPR, Value: 1},
			{Kind: insts.OperandGPR, Value: 2},
			{Kind: insts.OperandBlock, Value: int64(target)},
		},
	}
}

var _ = Describe("BranchPredictor", func() {
	var bp *pipeline.BranchPredictor

	BeforeEach(func() {
		bp = pipeline.NewBranchPredictor(pipeline.PredictorConfig{
			Policy:  pipeline.PolicyBimodal,
			BHTSize: 16,
			BTBSize: 8,
		})
	})

	Describe("Prediction", func() {
		It("should initially predict not taken", func() {
			pred := bp.Predict(branchAt(4, 1))
			Expect(pred.Taken).To(BeFalse())
			Expect(pred.TargetKnown).To(BeFalse())
		})

		It("should learn a taken branch after one outcome", func() {
			bp.Update(4, true, 1, false)

			pred := bp.Predict(branchAt(4, 1))
			Expect(pred.Taken).To(BeTrue())
			Expect(pred.TargetKnown).To(BeTrue())
			Expect(pred.Target).To(Equal(1))
		})

		It("should learn not-taken pattern", func() {
			for i := 0; i < 10; i++ {
				bp.Update(4, false, 1, true)
			}

			pred := bp.Predict(branchAt(4, 1))
			Expect(pred.Taken).To(BeFalse())
		})
	})

	Describe("2-bit saturating counter", func() {
		It("should require 2 not-taken outcomes to change direction", func() {
			bp.Update(4, true, 1, true)
			bp.Update(4, true, 1, true)
			bp.Update(4, true, 1, true)

			bp.Update(4, false, 1, false)
			Expect(bp.Predict(branchAt(4, 1)).Taken).To(BeTrue())

			bp.Update(4, false, 1, false)
			Expect(bp.Predict(branchAt(4, 1)).Taken).To(BeFalse())
		})
	})

	Describe("BTB", func() {
		It("should not cache not-taken branches", func() {
			bp.Update(4, false, 1, true)

			Expect(bp.Predict(branchAt(4, 1)).TargetKnown).To(BeFalse())
		})

		It("should handle BTB conflicts correctly", func() {
			bp = pipeline.NewBranchPredictor(pipeline.PredictorConfig{
				Policy:  pipeline.PolicyBimodal,
				BHTSize: 16,
				BTBSize: 4,
			})

			// 2 and 6 share a BTB slot.
			bp.Update(2, true, 1, true)
			Expect(bp.Predict(branchAt(2, 1)).Target).To(Equal(1))

			bp.Update(6, true, 3, true)
			pred := bp.Predict(branchAt(6, 3))
			Expect(pred.TargetKnown).To(BeTrue())
			Expect(pred.Target).To(Equal(3))

			Expect(bp.Predict(branchAt(2, 1)).TargetKnown).To(BeFalse())
		})
	})

	Describe("Static policies", func() {
		It("should always fall through under not-taken", func() {
			bp = pipeline.NewBranchPredictor(pipeline.PredictorConfig{Policy: pipeline.PolicyNotTaken})
			bp.Update(4, true, 1, false)

			Expect(bp.Predict(branchAt(4, 1)).Taken).To(BeFalse())
		})

		It("should predict the encoded target under taken", func() {
			bp = pipeline.NewBranchPredictor(pipeline.PredictorConfig{Policy: pipeline.PolicyTaken})

			pred := bp.Predict(branchAt(4, 2))
			Expect(pred.Taken).To(BeTrue())
			Expect(pred.TargetKnown).To(BeTrue())
			Expect(pred.Target).To(Equal(2))
		})
	})

	Describe("Statistics", func() {
		It("should track predictions and outcomes", func() {
			bp.Predict(branchAt(4, 1))
			bp.Predict(branchAt(4, 1))
			bp.Update(4, true, 1, false)
			bp.Update(4, true, 1, true)
			bp.Update(4, true, 1, true)
			bp.Update(4, true, 1, true)

			stats := bp.Stats()
			Expect(stats.Predictions).To(Equal(uint64(2)))
			Expect(stats.Correct).To(Equal(uint64(3)))
			Expect(stats.Mispredictions).To(Equal(uint64(1)))
			Expect(stats.Accuracy()).To(BeNumerically("~", 75.0, 0.01))
			Expect(stats.MispredictionRate()).To(BeNumerically("~", 25.0, 0.01))
		})

		It("should track BTB hit rate", func() {
			bp.Predict(branchAt(4, 1))
			bp.Update(4, true, 1, false)
			bp.Predict(branchAt(4, 1))

			stats := bp.Stats()
			Expect(stats.BTBHits).To(Equal(uint64(1)))
			Expect(stats.BTBMisses).To(Equal(uint64(1)))
			Expect(stats.BTBHitRate()).To(BeNumerically("~", 50.0, 0.01))
		})

		It("should handle zero predictions", func() {
			stats := bp.Stats()
			Expect(stats.Accuracy()).To(Equal(0.0))
			Expect(stats.BTBHitRate()).To(Equal(0.0))
		})
	})

	Describe("Reset", func() {
		It("should clear all state", func() {
			bp.Update(4, true, 1, true)
			bp.Predict(branchAt(4, 1))

			bp.Reset()

			Expect(bp.Stats()).To(Equal(pipeline.BranchPredictorStats{}))
			pred := bp.Predict(branchAt(4, 1))
			Expect(pred.Taken).To(BeFalse())
			Expect(pred.TargetKnown).To(BeFalse())
		})
	})
})
