package benchmarks

import (
	"fmt"
	"strings"
)

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each
// benchmark targets a specific engine characteristic.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		storeForwarding(),
		branchTaken(),
		mixedOperations(),
		floatChain(),
		matrixMultiply2x2(),
		loopSimulation(),
	}
}

// GetCoreBenchmarks returns a minimal set of 3 core benchmarks for quick
// validation: loop, matrix multiply, branch-heavy code.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		loopSimulation(),
		matrixMultiply2x2(),
		branchTaken(),
	}
}

// program prefixes lines with their count.
func program(lines ...string) string {
	return fmt.Sprintf("%d\n%s", len(lines), strings.Join(lines, "\n"))
}

// 1. Arithmetic Sequential - independent operations, bounded by issue width
// and the single integer adder
func arithmeticSequential() Benchmark {
	lines := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		lines = append(lines, fmt.Sprintf("ADDI r%d r%d #1", i%5+1, i%5+1))
	}
	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "20 ADDIs over 5 registers - measures integer throughput",
		Source:      program(lines...),
		Expected:    map[uint8]uint64{1: 4, 2: 4, 3: 4, 4: 4, 5: 4},
	}
}

// 2. Dependency Chain - every instruction waits for the previous broadcast
func dependencyChain() Benchmark {
	return Benchmark{
		Name:        "dependency_chain",
		Description: "20 dependent ADDIs (r1 = r1 + 1) - measures wakeup latency",
		Source:      buildDependencyChain(20),
		Expected:    map[uint8]uint64{1: 20},
	}
}

func buildDependencyChain(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = "ADDI r1 r1 #1"
	}
	return program(lines...)
}

// 3. Memory Sequential - stores then loads of distinct words
func memorySequential() Benchmark {
	lines := []string{"ADDI r1 r0 #100"}
	for i := 0; i < 4; i++ {
		lines = append(lines, fmt.Sprintf("ADDI r%d r0 #%d", i+2, (i+1)*11))
	}
	for i := 0; i < 4; i++ {
		lines = append(lines, fmt.Sprintf("SW r%d %d(r1)", i+2, i))
	}
	for i := 0; i < 4; i++ {
		lines = append(lines, fmt.Sprintf("LW r%d %d(r1)", i+10, i))
	}
	lines = append(lines, "ADD r20 r10 r13")
	return Benchmark{
		Name:        "memory_sequential",
		Description: "4 stores and 4 loads to consecutive words - measures memory unit pressure",
		Source:      program(lines...),
		Expected:    map[uint8]uint64{10: 11, 11: 22, 12: 33, 13: 44, 20: 55},
	}
}

// 4. Store Forwarding - each load reads the word stored just before it
func storeForwarding() Benchmark {
	return Benchmark{
		Name:        "store_forwarding",
		Description: "store/load pairs to one address - measures store-to-load forwarding",
		Source: program(
			"ADDI r1 r0 #7",
			"SW r1 0(r0)",
			"LW r2 0(r0)",
			"ADDI r2 r2 #1",
			"SW r2 0(r0)",
			"LW r3 0(r0)",
			"ADDI r3 r3 #1",
			"SW r3 0(r0)",
			"LW r4 0(r0)",
		),
		Expected: map[uint8]uint64{2: 8, 3: 9, 4: 9},
	}
}

// 5. Branch Taken - a forward branch skipped over dead code, repeated
func branchTaken() Benchmark {
	return Benchmark{
		Name:        "branch_taken",
		Description: "taken forward branches in a loop - measures misprediction recovery",
		Source: program(
			"ADDI r1 r0 #8",
			"loop: ADDI r1 r1 #-1",
			"BEQ r0 r0 skip",
			"ADDI r5 r5 #100",
			"ADDI r6 r6 #100",
			"skip: ADDI r2 r2 #1",
			"BNE r1 r0 loop",
		),
		Expected: map[uint8]uint64{1: 0, 2: 8, 5: 0, 6: 0},
	}
}

// 6. Mixed Operations - every integer class in one block
func mixedOperations() Benchmark {
	return Benchmark{
		Name:        "mixed_operations",
		Description: "add, multiply, logic and shifts - measures unit-level parallelism",
		Source: program(
			"ADDI r1 r0 #6",
			"ADDI r2 r0 #10",
			"MULT r3 r1 r2",
			"MULT r4 r3 r1",
			"AND r5 r1 r2",
			"OR r6 r1 r2",
			"XOR r7 r1 r2",
			"ADDI r8 r0 #3",
			"SLLV r9 r2 r8",
			"SRLV r10 r9 r8",
			"SUB r11 r4 r9",
			"NOR r12 r0 r0",
		),
		Expected: map[uint8]uint64{3: 60, 4: 360, 5: 2, 6: 14, 7: 12, 9: 80, 10: 10, 11: 280, 12: ^uint64(0)},
	}
}

// 7. Float Chain - floating-point adds and multiplies through memory
func floatChain() Benchmark {
	return Benchmark{
		Name:        "float_chain",
		Description: "dependent ADDF/MULTF chain - measures floating-point latency",
		Source: program(
			"ADDI r1 r0 #1",
			"SW r1 0(r0)",
			"LF f1 0(r0)",
			"ADDF f2 f1 f1",
			"MULTF f3 f2 f2",
			"ADDF f4 f3 f1",
			"SUBF f5 f4 f2",
			"MULTF f6 f5 f1",
			"SF f6 1(r0)",
		),
	}
}

// 8. Matrix Multiply 2x2 - C = A * B with A and B in memory
func matrixMultiply2x2() Benchmark {
	// A = [1 2; 3 4] at 0..3, B = [5 6; 7 8] at 4..7, C at 8..11
	lines := []string{}
	for i, v := range []int{1, 2, 3, 4, 5, 6, 7, 8} {
		lines = append(lines,
			fmt.Sprintf("ADDI r1 r0 #%d", v),
			fmt.Sprintf("SW r1 %d(r0)", i))
	}
	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			c := 8 + row*2 + col
			lines = append(lines,
				fmt.Sprintf("LW r2 %d(r0)", row*2),
				fmt.Sprintf("LW r3 %d(r0)", 4+col),
				fmt.Sprintf("LW r4 %d(r0)", row*2+1),
				fmt.Sprintf("LW r5 %d(r0)", 6+col),
				"MULT r6 r2 r3",
				"MULT r7 r4 r5",
				fmt.Sprintf("ADD r%d r6 r7", 10+row*2+col),
				fmt.Sprintf("SW r%d %d(r0)", 10+row*2+col, c),
			)
		}
	}
	return Benchmark{
		Name:        "matrix_multiply_2x2",
		Description: "2x2 integer matrix multiply - measures load/multiply overlap",
		Source:      program(lines...),
		Expected:    map[uint8]uint64{10: 19, 11: 22, 12: 43, 13: 50},
	}
}

// 9. Loop Simulation - a counted loop summing its counter
func loopSimulation() Benchmark {
	return Benchmark{
		Name:        "loop_simulation",
		Description: "10-iteration counted loop - measures the predictor on a back edge",
		Source: program(
			"ADDI r1 r0 #10",
			"ADDI r2 r0 #0",
			"loop: ADD r2 r2 r1",
			"ADDI r1 r1 #-1",
			"BGT r1 r0 loop",
			"SW r2 0(r0)",
		),
		Expected: map[uint8]uint64{1: 0, 2: 55},
	}
}
