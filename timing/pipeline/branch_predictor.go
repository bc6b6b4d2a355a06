package pipeline

import (
	"fortio.org/safecast"

	"github.com/sarchlab/ooosim/insts"
)

// BranchPredictorStats holds statistics for the jump predictor.
type BranchPredictorStats struct {
	// Predictions is the total number of branch predictions made.
	Predictions uint64
	// Correct is the number of resolved branches whose prediction held.
	Correct uint64
	// Mispredictions is the number of resolved branches that were
	// mispredicted.
	Mispredictions uint64
	// BTBHits is the number of BTB hits.
	BTBHits uint64
	// BTBMisses is the number of BTB misses.
	BTBMisses uint64
}

// Accuracy returns the prediction accuracy as a percentage.
func (s BranchPredictorStats) Accuracy() float64 {
	resolved := s.Correct + s.Mispredictions
	if resolved == 0 {
		return 0
	}
	return float64(s.Correct) / float64(resolved) * 100
}

// MispredictionRate returns the misprediction rate as a percentage.
func (s BranchPredictorStats) MispredictionRate() float64 {
	resolved := s.Correct + s.Mispredictions
	if resolved == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(resolved) * 100
}

// BTBHitRate returns the BTB hit rate as a percentage.
func (s BranchPredictorStats) BTBHitRate() float64 {
	total := s.BTBHits + s.BTBMisses
	if total == 0 {
		return 0
	}
	return float64(s.BTBHits) / float64(total) * 100
}

// Prediction represents a branch prediction result.
type Prediction struct {
	// Taken indicates whether the branch is predicted to be taken.
	Taken bool
	// Target is the predicted target block (if known).
	Target int
	// TargetKnown indicates whether the target block is known.
	TargetKnown bool
}

// BranchPredictor predicts compare-and-branch instructions, keyed by
// instruction id. The bimodal policy uses 2-bit saturating counters and a
// Branch Target Buffer (BTB); the static policies keep no state.
type BranchPredictor struct {
	policy string

	// Branch History Table (BHT) - 2-bit saturating counters
	// States: 0=Strongly Not Taken, 1=Weakly Not Taken,
	//         2=Weakly Taken, 3=Strongly Taken
	bht []uint8

	// Branch Target Buffer (BTB)
	// Maps instruction id to target block
	btb      []btbEntry
	btbValid []bool

	bhtSize uint32
	btbSize uint32

	stats BranchPredictorStats
}

type btbEntry struct {
	id     int
	target int
}

// NewBranchPredictor creates a new branch predictor with the given
// configuration.
func NewBranchPredictor(config PredictorConfig) *BranchPredictor {
	bhtSize := config.BHTSize
	btbSize := config.BTBSize
	if bhtSize == 0 {
		bhtSize = 1024
	}
	if btbSize == 0 {
		btbSize = 256
	}

	policy := config.Policy
	if policy == "" {
		policy = PolicyBimodal
	}

	bp := &BranchPredictor{
		policy:   policy,
		bht:      make([]uint8, bhtSize),
		btb:      make([]btbEntry, btbSize),
		btbValid: make([]bool, btbSize),
		bhtSize:  bhtSize,
		btbSize:  btbSize,
	}
	bp.Reset()

	return bp
}

func (bp *BranchPredictor) bhtIndex(id int) uint32 {
	return safecast.MustConv[uint32](id) & (bp.bhtSize - 1)
}

func (bp *BranchPredictor) btbIndex(id int) uint32 {
	return safecast.MustConv[uint32](id) & (bp.btbSize - 1)
}

// Predict makes a prediction for a branch instruction.
func (bp *BranchPredictor) Predict(inst *insts.Instruction) Prediction {
	bp.stats.Predictions++

	switch bp.policy {
	case PolicyNotTaken:
		return Prediction{}
	case PolicyTaken:
		return Prediction{Taken: true, Target: inst.Target(), TargetKnown: true}
	}

	pred := Prediction{Taken: bp.bht[bp.bhtIndex(inst.ID)] >= 2}

	idx := bp.btbIndex(inst.ID)
	if bp.btbValid[idx] && bp.btb[idx].id == inst.ID {
		pred.Target = bp.btb[idx].target
		pred.TargetKnown = true
		bp.stats.BTBHits++
	} else {
		bp.stats.BTBMisses++
	}

	return pred
}

// Update trains the predictor with a resolved outcome. correct tells
// whether the front end fetched the right successor.
func (bp *BranchPredictor) Update(id int, taken bool, target int, correct bool) {
	if correct {
		bp.stats.Correct++
	} else {
		bp.stats.Mispredictions++
	}

	if bp.policy != PolicyBimodal {
		return
	}

	i := bp.bhtIndex(id)
	counter := bp.bht[i]
	if taken {
		if counter < 3 {
			bp.bht[i] = counter + 1
		}
	} else if counter > 0 {
		bp.bht[i] = counter - 1
	}

	if taken {
		j := bp.btbIndex(id)
		bp.btb[j] = btbEntry{id: id, target: target}
		bp.btbValid[j] = true
	}
}

// Stats returns the branch predictor statistics.
func (bp *BranchPredictor) Stats() BranchPredictorStats {
	return bp.stats
}

// Reset clears all predictor state and statistics.
func (bp *BranchPredictor) Reset() {
	// Weakly not taken
	for i := range bp.bht {
		bp.bht[i] = 1
	}
	for i := range bp.btbValid {
		bp.btbValid[i] = false
	}
	bp.stats = BranchPredictorStats{}
}
