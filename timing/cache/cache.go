// Package cache provides an L1 data-cache latency model using Akita cache
// components.
//
// The model tracks tags only. Data always lives in the engine's memory and
// reorder buffer; the cache decides how many cycles a memory operation
// occupies the memory unit.
package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// WordSize is the size in bytes of one memory word. Word addresses are
// scaled by it before lookup.
const WordSize = 8

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int `json:"size" toml:"size"`
	// Associativity (number of ways)
	Associativity int `json:"associativity" toml:"associativity"`
	// BlockSize in bytes (cache line size)
	BlockSize int `json:"block_size" toml:"block_size"`
	// HitLatency in cycles
	HitLatency uint64 `json:"hit_latency" toml:"hit_latency"`
	// MissLatency in cycles (includes memory access time)
	MissLatency uint64 `json:"miss_latency" toml:"miss_latency"`
}

// DefaultL1DConfig returns a small direct configuration suitable for the
// short programs the simulator runs: 1KB, 2-way, 32B lines.
func DefaultL1DConfig() Config {
	return Config{
		Size:          1024,
		Associativity: 2,
		BlockSize:     32,
		HitLatency:    2,
		MissLatency:   10,
	}
}

// Validate checks the cache geometry and latencies.
func (c Config) Validate() error {
	if c.Size <= 0 || c.Associativity <= 0 || c.BlockSize <= 0 {
		return fmt.Errorf("size, associativity and block_size must be > 0")
	}
	if c.BlockSize%WordSize != 0 {
		return fmt.Errorf("block_size must be a multiple of %d", WordSize)
	}
	if c.Size%(c.Associativity*c.BlockSize) != 0 {
		return fmt.Errorf("size must be a multiple of associativity * block_size")
	}
	if c.HitLatency == 0 || c.MissLatency == 0 {
		return fmt.Errorf("hit_latency and miss_latency must be > 0")
	}
	return nil
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Latency is the number of cycles this access takes.
	Latency uint64
	// Evicted is true if a valid block was replaced.
	Evicted bool
	// EvictedAddr is the byte address of the evicted block.
	EvictedAddr uint64
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads     uint64
	Writes    uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns hits as a percentage of all accesses.
func (s Statistics) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Cache is a write-allocate tag store.
type Cache struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	stats Statistics
}

// New creates a new cache with the given configuration.
func New(config Config) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// Read models a load of the word at addr.
func (c *Cache) Read(addr uint64) AccessResult {
	c.stats.Reads++
	return c.access(addr, false)
}

// Write models a store to the word at addr.
func (c *Cache) Write(addr uint64) AccessResult {
	c.stats.Writes++
	return c.access(addr, true)
}

func (c *Cache) blockAddr(addr uint64) uint64 {
	byteAddr := addr * WordSize
	return (byteAddr / uint64(c.config.BlockSize)) * uint64(c.config.BlockSize)
}

func (c *Cache) access(addr uint64, isWrite bool) AccessResult {
	blockAddr := c.blockAddr(addr)

	block := c.directory.Lookup(0, blockAddr) // PID=0, single address space
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		if isWrite {
			block.IsDirty = true
		}
		return AccessResult{Hit: true, Latency: c.config.HitLatency}
	}

	c.stats.Misses++
	result := AccessResult{Latency: c.config.MissLatency}

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return result
	}

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = victim.Tag
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = isWrite
	c.directory.Visit(victim)

	return result
}

// Invalidate marks the line holding addr as invalid.
func (c *Cache) Invalidate(addr uint64) {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Reset invalidates all cache lines and clears statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
