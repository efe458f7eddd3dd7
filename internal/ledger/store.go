package ledger

import (
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Store is the position ledger consumed by the lifecycle engine: keyed
// storage for positions plus per-instrument aggregate exposure. Exposure is
// adjusted incrementally (+notional on open, -notional on close), never
// recomputed by full re-scan.
type Store interface {
	Create(fields CreatePosition) (uint64, error)
	Get(id uint64) (*Position, bool)
	Delete(id uint64) error
	SetTakeProfit(id uint64, v *big.Int) error
	SetStopLoss(id uint64, v *big.Int) error
	OwnerPositions(owner uuid.UUID) []*Position

	IncreaseExposure(instrument string, amount *big.Int) error
	DecreaseExposure(instrument string, amount *big.Int) error
	Exposure(instrument string) *big.Int

	Instrument(symbol string) (*Instrument, bool)
	UpsertInstrument(inst *Instrument) error
	Instruments() []*Instrument
}

// MemoryStore is the in-process Store implementation. All methods are safe
// for concurrent use; the engine layers its own per-position and
// per-instrument locking on top for multi-call atomicity.
type MemoryStore struct {
	mu          sync.RWMutex
	nextID      uint64
	positions   map[uint64]*Position
	exposure    map[string]*big.Int
	instruments map[string]*Instrument
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:      1,
		positions:   make(map[uint64]*Position),
		exposure:    make(map[string]*big.Int),
		instruments: make(map[string]*Instrument),
	}
}

// Create writes a new position and returns its identifier. Identifiers are
// never reused, even after deletion.
func (s *MemoryStore) Create(fields CreatePosition) (uint64, error) {
	if fields.Collateral == nil || fields.Collateral.Sign() <= 0 {
		return 0, fmt.Errorf("collateral must be > 0")
	}
	if fields.Leverage < 1 {
		return 0, fmt.Errorf("leverage must be >= 1, got %d", fields.Leverage)
	}
	if fields.EntryPrice == nil || fields.EntryPrice.Sign() <= 0 {
		return 0, fmt.Errorf("entry price must be > 0")
	}
	if !fields.Direction.Valid() {
		return 0, fmt.Errorf("unknown direction %d", fields.Direction)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	pos := &Position{
		ID:         id,
		Owner:      fields.Owner,
		Instrument: fields.Instrument,
		Direction:  fields.Direction,
		Collateral: new(big.Int).Set(fields.Collateral),
		Leverage:   fields.Leverage,
		EntryPrice: new(big.Int).Set(fields.EntryPrice),
		OpenedAt:   fields.OpenedAt,
	}
	if fields.TakeProfit != nil {
		pos.TakeProfit = new(big.Int).Set(fields.TakeProfit)
	}
	if fields.StopLoss != nil {
		pos.StopLoss = new(big.Int).Set(fields.StopLoss)
	}

	s.positions[id] = pos
	return id, nil
}

// Get returns a copy of the position, or false if no record exists.
func (s *MemoryStore) Get(id uint64) (*Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.positions[id]
	if !ok {
		return nil, false
	}
	return pos.Clone(), true
}

// Delete removes the record. Hard delete: there is no tombstone.
func (s *MemoryStore) Delete(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.positions[id]; !ok {
		return fmt.Errorf("position %d not found", id)
	}
	delete(s.positions, id)
	return nil
}

func (s *MemoryStore) SetTakeProfit(id uint64, v *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.positions[id]
	if !ok {
		return fmt.Errorf("position %d not found", id)
	}
	if v == nil {
		pos.TakeProfit = nil
		return nil
	}
	pos.TakeProfit = new(big.Int).Set(v)
	return nil
}

func (s *MemoryStore) SetStopLoss(id uint64, v *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.positions[id]
	if !ok {
		return fmt.Errorf("position %d not found", id)
	}
	if v == nil {
		pos.StopLoss = nil
		return nil
	}
	pos.StopLoss = new(big.Int).Set(v)
	return nil
}

// OwnerPositions returns copies of all open positions for an owner,
// ordered by identifier.
func (s *MemoryStore) OwnerPositions(owner uuid.UUID) []*Position {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Position, 0)
	for _, pos := range s.positions {
		if pos.Owner == owner {
			result = append(result, pos.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (s *MemoryStore) IncreaseExposure(instrument string, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("exposure increment must be >= 0")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.exposure[instrument]
	if !ok {
		cur = new(big.Int)
		s.exposure[instrument] = cur
	}
	cur.Add(cur, amount)
	return nil
}

func (s *MemoryStore) DecreaseExposure(instrument string, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("exposure decrement must be >= 0")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.exposure[instrument]
	if !ok || cur.Cmp(amount) < 0 {
		return fmt.Errorf("exposure underflow for %s: have %s, decrement %s", instrument, cur, amount)
	}
	cur.Sub(cur, amount)
	return nil
}

// Exposure returns a copy of the running aggregate notional for an instrument.
func (s *MemoryStore) Exposure(instrument string) *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cur, ok := s.exposure[instrument]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(cur)
}

func (s *MemoryStore) Instrument(symbol string) (*Instrument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.instruments[symbol]
	if !ok {
		return nil, false
	}
	return inst.Clone(), true
}

func (s *MemoryStore) UpsertInstrument(inst *Instrument) error {
	if err := ValidateInstrument(inst); err != nil {
		return fmt.Errorf("invalid instrument %q: %w", inst.Symbol, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.instruments[inst.Symbol] = inst.Clone()
	return nil
}

func (s *MemoryStore) Instruments() []*Instrument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Instrument, 0, len(s.instruments))
	for _, inst := range s.instruments {
		result = append(result, inst.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Symbol < result[j].Symbol })
	return result
}
