package schema

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// IDGenerator produces values for columns declared with a generator.
type IDGenerator interface {
	Generate() (any, error)
	Type() string
}

// UUIDGenerator generates UUID v4 values.
type UUIDGenerator struct{}

func (UUIDGenerator) Generate() (any, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID: %w", err)
	}
	return id, nil
}

func (UUIDGenerator) Type() string { return "uuid" }

// ULIDGenerator generates monotonic ULIDs rendered as strings.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ULIDGenerator) Generate() (any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), g.entropy)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ULID: %w", err)
	}
	return id.String(), nil
}

func (g *ULIDGenerator) Type() string { return "ulid" }

// SnowflakeGenerator generates 63-bit time ordered IDs:
// 41 bits of milliseconds since 2023-01-01 | 10 bits machine | 12 bits sequence.
type SnowflakeGenerator struct {
	mu        sync.Mutex
	machineID uint64
	sequence  uint64
	lastTime  uint64
	epoch     uint64
}

func NewSnowflakeGenerator(machineID uint64) *SnowflakeGenerator {
	return &SnowflakeGenerator{
		machineID: machineID & 0x3FF,
		epoch:     uint64(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()),
	}
}

func (g *SnowflakeGenerator) Generate() (any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := uint64(time.Now().UnixMilli())
	if now < g.lastTime {
		return nil, fmt.Errorf("clock moved backwards")
	}
	if now == g.lastTime {
		g.sequence = (g.sequence + 1) & 0xFFF
		if g.sequence == 0 {
			for now <= g.lastTime {
				now = uint64(time.Now().UnixMilli())
			}
		}
	} else {
		g.sequence = 0
	}
	g.lastTime = now

	return int64(((now - g.epoch) << 22) | (g.machineID << 12) | g.sequence), nil
}

func (g *SnowflakeGenerator) Type() string { return "snowflake" }

// GeneratorRegistry maps generator names used in struct tags to generators.
type GeneratorRegistry struct {
	mu         sync.RWMutex
	generators map[string]IDGenerator
}

var defaultGenerators = NewGeneratorRegistry()

func NewGeneratorRegistry() *GeneratorRegistry {
	r := &GeneratorRegistry{generators: make(map[string]IDGenerator)}
	r.Register("uuid", UUIDGenerator{})
	r.Register("ulid", NewULIDGenerator())
	r.Register("snowflake", NewSnowflakeGenerator(1))
	return r
}

func (r *GeneratorRegistry) Register(name string, gen IDGenerator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[name] = gen
}

func (r *GeneratorRegistry) Get(name string) (IDGenerator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gen, ok := r.generators[name]
	return gen, ok
}

// RegisterGenerator adds a generator to the default registry.
func RegisterGenerator(name string, gen IDGenerator) {
	defaultGenerators.Register(name, gen)
}

// LookupGenerator finds a generator in the default registry.
func LookupGenerator(name string) (IDGenerator, bool) {
	return defaultGenerators.Get(name)
}

// GeneratorFunc adapts a generator to a column default function. A
// generator failure panics: default functions run while the insert is
// being compiled and have no error path.
func GeneratorFunc(gen IDGenerator) func() any {
	return func() any {
		v, err := gen.Generate()
		if err != nil {
			panic(fmt.Sprintf("schema: %s generator: %v", gen.Type(), err))
		}
		return v
	}
}
